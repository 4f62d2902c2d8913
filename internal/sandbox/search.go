package sandbox

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// Match is one matching line: the file's root-relative path, the 1-indexed
// line number, and the line with surrounding whitespace trimmed. A line
// yields at most one match however many times the pattern occurs in it.
type Match struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Preview string `json:"preview"`
}

// SearchResult holds matches in discovery order: file enumeration order,
// then ascending line number within a file.
type SearchResult struct {
	Matches []Match

	// Truncated is true when the match cap stopped the scan early.
	Truncated bool
}

// Search scans files matched by glob for lines matching pattern.
//
// The pattern is compiled case-insensitively before any file I/O; a
// malformed pattern or glob fails the whole call with ErrInvalidPattern.
// Candidates are regular files only, deduplicated, with symbolic links
// excluded. Denied and oversized files are skipped silently, as are files
// that disappear or fail to decode as text mid-scan; per-file failures
// never abort the call. Scanning stops as soon as maxMatches results have
// accumulated and later candidates are not opened.
//
// maxMatches is assumed validated to [1, MaxSearchMatches] by the caller.
func (s *Service) Search(ctx context.Context, pattern, glob string, maxMatches int) (*SearchResult, error) {
	re, err := regexp.Compile("(?i)(?m)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", pattern, ErrInvalidPattern)
	}

	if glob == "" {
		glob = DefaultSearchGlob
	}
	if !doublestar.ValidatePattern(glob) {
		return nil, fmt.Errorf("glob %q: %w", glob, ErrInvalidPattern)
	}

	candidates, err := s.expandGlob(ctx, glob)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{}
	scanned := 0

	for _, rel := range candidates {
		if len(result.Matches) >= maxMatches {
			result.Truncated = true
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if s.policy.Denied(rel) {
			continue
		}
		if s.scanFile(rel, re, maxMatches, result) {
			scanned++
		}
	}

	s.logger.Debug("search finished",
		zap.String("glob", glob),
		zap.Int("candidates", len(candidates)),
		zap.Int("scanned", scanned),
		zap.Int("matches", len(result.Matches)),
		zap.Bool("truncated", result.Truncated))

	return result, nil
}

// expandGlob enumerates regular files under the root matching glob, in
// walk order, deduplicated, with symbolic links excluded.
func (s *Service) expandGlob(ctx context.Context, glob string) ([]string, error) {
	var candidates []string
	seen := make(map[string]bool)

	err := doublestar.GlobWalk(os.DirFS(s.root), glob, func(path string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !seen[path] {
			seen[path] = true
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("expanding glob %q: %w", glob, err)
	}

	return candidates, nil
}

// scanFile scans one candidate, appending matches until the cap. Returns
// false when the file was skipped without being read.
func (s *Service) scanFile(rel string, re *regexp.Regexp, maxMatches int, result *SearchResult) bool {
	abs := filepath.Join(s.root, filepath.FromSlash(rel))

	info, err := os.Lstat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if info.Size() > s.caps.MaxFileSize {
		return false
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		// The file may have disappeared between enumeration and read.
		s.logger.Debug("skipping unreadable candidate", zap.String("path", rel), zap.Error(err))
		return false
	}
	if !utf8.Valid(content) {
		return false
	}

	for i, line := range splitLines(string(content)) {
		if len(result.Matches) >= maxMatches {
			result.Truncated = true
			break
		}
		if re.MatchString(line) {
			result.Matches = append(result.Matches, Match{
				Path:    rel,
				Line:    i + 1,
				Preview: strings.TrimSpace(line),
			})
		}
	}

	return true
}
