package sandbox

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// FileSlice is the result of a read: the requested line range joined with
// newlines, the source file's total line count, and the effective
// 1-indexed inclusive range actually returned after clamping.
type FileSlice struct {
	Path       string
	Content    string
	TotalLines int
	StartLine  int
	EndLine    int
}

// Read returns a line slice of a single text file under the root.
//
// startLine and endLine are 1-indexed and inclusive; zero means unset
// (start of file, end of file respectively). The effective range is
// clamped to the file's bounds: a start past the last line yields an
// empty, non-error slice with EndLine < StartLine.
//
// The file's size is checked against the byte cap before any content is
// read; an oversized file fails with ErrTooLarge and its line count stays
// unknown.
func (s *Service) Read(ctx context.Context, userPath string, startLine, endLine int) (*FileSlice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, rel, err := s.Resolve(userPath)
	if err != nil {
		return nil, err
	}

	if s.policy.Denied(rel) {
		return nil, fmt.Errorf("%q: %w", rel, ErrAccessDenied)
	}

	// Lstat, not Stat: a symlink is "not a regular file" even when its
	// target is, so links can never smuggle content from outside the root.
	info, err := os.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%q: %w", rel, ErrNotFound)
		}
		return nil, fmt.Errorf("stat %q: %w", rel, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%q is not a regular file: %w", rel, ErrNotFound)
	}
	if info.Size() > s.caps.MaxFileSize {
		return nil, fmt.Errorf("%q is %d bytes (limit %d): %w", rel, info.Size(), s.caps.MaxFileSize, ErrTooLarge)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%q: %w", rel, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %q: %w", rel, err)
	}

	lines := splitLines(string(content))
	total := len(lines)

	start := startLine
	if start < 1 {
		start = 1
	}
	end := endLine
	if end < 1 || end > total {
		end = total
	}

	// An empty range (start past the last line, or start > end) is not an
	// error; the caller sees EndLine < StartLine and an empty slice.
	var text string
	if start <= end {
		text = strings.Join(lines[start-1:end], "\n")
	}

	s.logger.Debug("file read",
		zap.String("path", rel),
		zap.Int("total_lines", total),
		zap.Int("start", start),
		zap.Int("end", end))

	return &FileSlice{
		Path:       rel,
		Content:    text,
		TotalLines: total,
		StartLine:  start,
		EndLine:    end,
	}, nil
}

// splitLines splits text on either line-ending convention. A single
// trailing newline does not count as an extra empty line.
func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
