package sandbox

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// TreeResult is the outcome of a tree listing. A result holding exactly the
// entry cap may be truncated; Truncated distinguishes the two cases.
type TreeResult struct {
	// Entries are slash-separated paths relative to the root, in lexical
	// walk order (deterministic for unchanged filesystem content).
	Entries []string

	// Truncated is true when the entry cap stopped the walk early.
	Truncated bool
}

// Tree enumerates files and directories up to depth levels below the root.
//
// Hidden entries (dot-prefixed names) are excluded at every level unless
// includeHidden is set. Denied entries never appear and denied directories
// are not descended into. Symbolic links are listed but never followed.
// The walk stops silently once the entry cap is reached.
//
// Depth is assumed validated to [MinTreeDepth, MaxTreeDepth] by the caller.
func (s *Service) Tree(ctx context.Context, depth int, includeHidden bool) (*TreeResult, error) {
	result := &TreeResult{}

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal for the listing.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if path == s.root {
			return nil
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !includeHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if s.policy.Denied(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if len(result.Entries) >= s.caps.MaxTreeEntries {
			result.Truncated = true
			return fs.SkipAll
		}
		result.Entries = append(result.Entries, rel)

		// Do not descend past the requested depth.
		if d.IsDir() && strings.Count(rel, "/")+1 >= depth {
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking repository tree: %w", err)
	}

	s.logger.Debug("tree listed",
		zap.Int("depth", depth),
		zap.Bool("include_hidden", includeHidden),
		zap.Int("entries", len(result.Entries)),
		zap.Bool("truncated", result.Truncated))

	return result, nil
}
