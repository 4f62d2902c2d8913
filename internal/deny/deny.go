// Package deny implements the blocklist applied uniformly by every
// repository operation. A path is denied when it matches a glob pattern
// (evaluated against the root-relative path) or when its base name matches
// a filename pattern. The rule set is built once at startup and never
// mutated afterwards.
package deny

import (
	"fmt"
	"path"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultGlobs blocks version-control metadata, dependency caches, build
// output, lockfiles, and common binary extensions. Patterns use doublestar
// semantics against slash-separated paths relative to the repository root;
// a leading "**/" matches zero or more directories, so each rule applies at
// any depth including the root.
var DefaultGlobs = []string{
	"**/.git", "**/.git/**",
	"**/.svn", "**/.svn/**",
	"**/.hg", "**/.hg/**",
	"**/node_modules", "**/node_modules/**",
	"**/vendor", "**/vendor/**",
	"**/__pycache__", "**/__pycache__/**",
	"**/.venv", "**/.venv/**",
	"**/venv", "**/venv/**",
	"**/.idea", "**/.idea/**",
	"**/.vscode", "**/.vscode/**",
	"**/.cache", "**/.cache/**",
	"**/dist", "**/dist/**",
	"**/build", "**/build/**",
	"**/.next", "**/.next/**",
	"**/target", "**/target/**",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
	"**/*.{png,jpg,jpeg,gif,ico,webp,pdf}",
	"**/*.{zip,tar,gz,tgz,bz2,xz,7z}",
	"**/*.{exe,dll,so,dylib,a,o,bin,wasm}",
	"**/*.min.js",
}

// DefaultFilePatterns match base names regardless of directory. The env-file
// rule is deliberately broad: anything whose name begins with ".env" is
// treated as credentials.
var DefaultFilePatterns = []string{
	`(?i)^\.env`,
	`(?i)^\.netrc$`,
	`(?i)^id_(rsa|dsa|ecdsa|ed25519)$`,
}

// Policy is an immutable set of deny rules.
type Policy struct {
	globs    []string
	fileRegs []*regexp.Regexp
}

// New builds a policy from glob patterns and filename regular expressions.
// Invalid patterns fail construction rather than being skipped: a deny rule
// that silently does nothing is worse than no rule at all.
func New(globs, filePatterns []string) (*Policy, error) {
	for _, g := range globs {
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("invalid deny glob %q", g)
		}
	}

	regs := make([]*regexp.Regexp, 0, len(filePatterns))
	for _, p := range filePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid deny filename pattern %q: %w", p, err)
		}
		regs = append(regs, re)
	}

	return &Policy{globs: globs, fileRegs: regs}, nil
}

// NewDefault builds the built-in policy, optionally extended with additional
// glob patterns (typically parsed from ignore files at startup).
func NewDefault(extraGlobs []string) (*Policy, error) {
	return NewDefaultWith(extraGlobs, nil)
}

// NewDefaultWith builds the built-in policy extended with additional glob
// patterns and filename regular expressions.
func NewDefaultWith(extraGlobs, extraFilePatterns []string) (*Policy, error) {
	globs := make([]string, 0, len(DefaultGlobs)+len(extraGlobs))
	globs = append(globs, DefaultGlobs...)
	globs = append(globs, extraGlobs...)

	filePatterns := make([]string, 0, len(DefaultFilePatterns)+len(extraFilePatterns))
	filePatterns = append(filePatterns, DefaultFilePatterns...)
	filePatterns = append(filePatterns, extraFilePatterns...)

	return New(globs, filePatterns)
}

// Denied reports whether the given root-relative, slash-separated path
// matches any deny rule. Either rule class alone is sufficient to deny.
func (p *Policy) Denied(rel string) bool {
	if rel == "" || rel == "." {
		return false
	}

	for _, g := range p.globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}

	base := path.Base(rel)
	for _, re := range p.fileRegs {
		if re.MatchString(base) {
			return true
		}
	}

	return false
}

// Rules returns the number of configured rules, for startup logging.
func (p *Policy) Rules() int {
	return len(p.globs) + len(p.fileRegs)
}
