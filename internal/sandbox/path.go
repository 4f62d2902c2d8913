package sandbox

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Resolve maps a user-supplied path onto the repository root and proves
// containment by path arithmetic alone: join, normalize, then verify the
// result is the root or a strict descendant of it. No filesystem access
// occurs, so resolution behaves the same whether or not the target exists.
//
// It returns the absolute path and the slash-separated root-relative form
// ("." for the root itself). An absolute input pointing outside the root
// and any ".." form that normalizes outside both fail with ErrPathEscape.
func (s *Service) Resolve(userPath string) (abs, rel string, err error) {
	return resolve(s.root, userPath)
}

func resolve(root, userPath string) (abs, rel string, err error) {
	candidate := userPath
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(root, candidate)
	}
	candidate = filepath.Clean(candidate)

	rel, relErr := filepath.Rel(root, candidate)
	if relErr != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%q: %w", userPath, ErrPathEscape)
	}

	return candidate, filepath.ToSlash(rel), nil
}
