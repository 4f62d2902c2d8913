package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/repoviewd/internal/sandbox"
)

// registerTools registers the three repository tools with the server.
func (s *Server) registerTools() {
	s.registerTreeTool()
	s.registerReadTool()
	s.registerSearchTool()
}

// errorKind maps core sentinels to stable kind prefixes so clients can
// distinguish failure classes without string matching the details.
func errorKind(err error) string {
	switch {
	case errors.Is(err, sandbox.ErrPathEscape):
		return "path_escape"
	case errors.Is(err, sandbox.ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, sandbox.ErrNotFound):
		return "not_found"
	case errors.Is(err, sandbox.ErrTooLarge):
		return "too_large"
	case errors.Is(err, sandbox.ErrInvalidPattern):
		return "invalid_pattern"
	case errors.Is(err, sandbox.ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "internal"
	}
}

func toolError(err error) error {
	return fmt.Errorf("%s: %w", errorKind(err), err)
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("invalid_argument: "+format+": %w", append(args, sandbox.ErrInvalidArgument)...)
}

// ===== repo_tree =====

type treeInput struct {
	Depth         int  `json:"depth,omitempty" jsonschema:"Directory depth to list, 1-5 (default: 2)"`
	IncludeHidden bool `json:"include_hidden,omitempty" jsonschema:"Include dot-prefixed entries (default: false)"`
}

type treeOutput struct {
	Count     int      `json:"count" jsonschema:"Number of entries returned"`
	Truncated bool     `json:"truncated" jsonschema:"True when the entry cap stopped the listing early"`
	Entries   []string `json:"entries" jsonschema:"Paths relative to the repository root"`
}

func (s *Server) registerTreeTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "repo_tree",
		Description: "List the repository directory tree up to a bounded depth. Denied and (by default) hidden entries are excluded; results are capped.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args treeInput) (*mcp.CallToolResult, treeOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "repo_tree")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "repo_tree")
			s.metrics.RecordInvocation(ctx, "repo_tree", time.Since(start), toolErr)
		}()

		depth := args.Depth
		if depth == 0 {
			depth = sandbox.DefaultTreeDepth
		}
		if depth < sandbox.MinTreeDepth || depth > sandbox.MaxTreeDepth {
			toolErr = invalidArgument("depth must be between %d and %d, got %d",
				sandbox.MinTreeDepth, sandbox.MaxTreeDepth, depth)
			return nil, treeOutput{}, toolErr
		}

		result, err := s.sandbox.Tree(ctx, depth, args.IncludeHidden)
		if err != nil {
			toolErr = toolError(err)
			return nil, treeOutput{}, toolErr
		}

		return nil, treeOutput{
			Count:     len(result.Entries),
			Truncated: result.Truncated,
			Entries:   result.Entries,
		}, nil
	})
}

// ===== repo_read =====

type readInput struct {
	Path      string `json:"path,omitempty" jsonschema:"required,File path relative to the repository root"`
	StartLine int    `json:"start_line,omitempty" jsonschema:"First line to return, 1-indexed inclusive (default: 1)"`
	EndLine   int    `json:"end_line,omitempty" jsonschema:"Last line to return, 1-indexed inclusive (default: end of file)"`
}

type readOutput struct {
	Path       string `json:"path" jsonschema:"Path relative to the repository root"`
	Content    string `json:"content" jsonschema:"Requested line range joined with newlines"`
	TotalLines int    `json:"total_lines" jsonschema:"Total line count of the file"`
	StartLine  int    `json:"start_line" jsonschema:"Effective first line returned"`
	EndLine    int    `json:"end_line" jsonschema:"Effective last line returned"`
}

func (s *Server) registerReadTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "repo_read",
		Description: "Read a text file from the repository, optionally a 1-indexed inclusive line range. Files over the size cap are rejected.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args readInput) (*mcp.CallToolResult, readOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "repo_read")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "repo_read")
			s.metrics.RecordInvocation(ctx, "repo_read", time.Since(start), toolErr)
		}()

		if args.Path == "" {
			toolErr = invalidArgument("path is required")
			return nil, readOutput{}, toolErr
		}
		if args.StartLine < 0 {
			toolErr = invalidArgument("start_line must be >= 1, got %d", args.StartLine)
			return nil, readOutput{}, toolErr
		}
		if args.EndLine < 0 {
			toolErr = invalidArgument("end_line must be >= 1, got %d", args.EndLine)
			return nil, readOutput{}, toolErr
		}

		slice, err := s.sandbox.Read(ctx, args.Path, args.StartLine, args.EndLine)
		if err != nil {
			toolErr = toolError(err)
			return nil, readOutput{}, toolErr
		}

		return nil, readOutput{
			Path:       slice.Path,
			Content:    slice.Content,
			TotalLines: slice.TotalLines,
			StartLine:  slice.StartLine,
			EndLine:    slice.EndLine,
		}, nil
	})
}

// ===== repo_search =====

type searchInput struct {
	Query      string `json:"query,omitempty" jsonschema:"required,Regular expression to match per line, case-insensitive"`
	Glob       string `json:"glob,omitempty" jsonschema:"Doublestar glob selecting candidate files (default: common source/text extensions)"`
	MaxMatches int    `json:"max_matches,omitempty" jsonschema:"Maximum matches to return, 1-200 (default: 50)"`
}

type searchOutput struct {
	Count     int             `json:"count" jsonschema:"Number of matches returned"`
	Truncated bool            `json:"truncated" jsonschema:"True when the match cap stopped the scan early"`
	Matches   []sandbox.Match `json:"matches" jsonschema:"Matching lines with path, line number, and trimmed preview"`
}

func (s *Server) registerSearchTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "repo_search",
		Description: "Regex-search repository files matched by a glob. One match per matching line, capped; denied and oversized files are skipped.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args searchInput) (*mcp.CallToolResult, searchOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "repo_search")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "repo_search")
			s.metrics.RecordInvocation(ctx, "repo_search", time.Since(start), toolErr)
		}()

		if args.Query == "" {
			toolErr = invalidArgument("query is required")
			return nil, searchOutput{}, toolErr
		}

		maxMatches := args.MaxMatches
		if maxMatches == 0 {
			maxMatches = sandbox.DefaultSearchMatches
		}
		if maxMatches < 1 || maxMatches > sandbox.MaxSearchMatches {
			toolErr = invalidArgument("max_matches must be between 1 and %d, got %d",
				sandbox.MaxSearchMatches, maxMatches)
			return nil, searchOutput{}, toolErr
		}

		glob := args.Glob
		if glob == "" {
			glob = s.defaultGlob
		}

		result, err := s.sandbox.Search(ctx, args.Query, glob, maxMatches)
		if err != nil {
			toolErr = toolError(err)
			return nil, searchOutput{}, toolErr
		}

		matches := result.Matches
		if matches == nil {
			matches = []sandbox.Match{}
		}

		return nil, searchOutput{
			Count:     len(matches),
			Truncated: result.Truncated,
			Matches:   matches,
		}, nil
	})
}
