package sandbox

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repoviewd/internal/deny"
)

// Bounds shared by the core and the tool layer. The tool layer validates
// caller input against these before an operation runs.
const (
	// DefaultMaxFileSize is the per-file byte cap for reads and search
	// candidates: 256 KiB.
	DefaultMaxFileSize = 256 * 1024

	// DefaultMaxTreeEntries is the hard cap on tree listing results.
	DefaultMaxTreeEntries = 2000

	// MinTreeDepth and MaxTreeDepth bound the tree operation.
	MinTreeDepth = 1
	MaxTreeDepth = 5

	// DefaultTreeDepth applies when the caller omits depth.
	DefaultTreeDepth = 2

	// MaxSearchMatches bounds maxMatches; DefaultSearchMatches applies when
	// the caller omits it.
	MaxSearchMatches     = 200
	DefaultSearchMatches = 50
)

// DefaultSearchGlob covers common source and text extensions. Callers may
// override it per search call.
const DefaultSearchGlob = "**/*.{go,ts,tsx,js,jsx,py,rs,java,c,h,cpp,hpp,cs,rb,php,sh,json,yaml,yml,toml,md,txt,html,css,sql}"

// Caps are the fixed upper bounds enforced by every operation. They are
// hard limits: results are truncated or rejected, never silently extended.
type Caps struct {
	// MaxFileSize is the per-file byte cap in bytes.
	MaxFileSize int64

	// MaxTreeEntries caps tree listing results.
	MaxTreeEntries int
}

// DefaultCaps returns the standard limits.
func DefaultCaps() Caps {
	return Caps{
		MaxFileSize:    DefaultMaxFileSize,
		MaxTreeEntries: DefaultMaxTreeEntries,
	}
}

// Service provides sandboxed read access to a single repository root.
//
// The root, caps, and deny policy are fixed at construction and never
// mutated, so a single Service is safe for concurrent use.
type Service struct {
	root   string
	policy *deny.Policy
	caps   Caps
	logger *zap.Logger
}

// NewService creates a sandboxed file-access service rooted at root.
//
// The root must be an absolute path to an existing directory; everything
// else the service does is relative to it.
func NewService(root string, policy *deny.Policy, caps Caps, logger *zap.Logger) (*Service, error) {
	if root == "" {
		return nil, fmt.Errorf("repository root cannot be empty")
	}
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("repository root must be absolute: %s", root)
	}

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("repository root does not exist: %s", root)
		}
		return nil, fmt.Errorf("stat repository root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository root must be a directory: %s", root)
	}

	if policy == nil {
		policy, err = deny.NewDefault(nil)
		if err != nil {
			return nil, fmt.Errorf("building default deny policy: %w", err)
		}
	}
	if caps.MaxFileSize <= 0 {
		caps.MaxFileSize = DefaultMaxFileSize
	}
	if caps.MaxTreeEntries <= 0 {
		caps.MaxTreeEntries = DefaultMaxTreeEntries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		root:   filepath.Clean(root),
		policy: policy,
		caps:   caps,
		logger: logger,
	}, nil
}

// Root returns the absolute repository root.
func (s *Service) Root() string {
	return s.root
}

// Caps returns the configured limits.
func (s *Service) Caps() Caps {
	return s.caps
}
