package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

// treeCmd lists the repository tree
var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "List the repository directory tree",
	Long: `List the repository directory tree up to a bounded depth.

Examples:
  # List two levels (the default)
  repoctl tree

  # List four levels including hidden entries
  repoctl tree --depth 4 --hidden`,
	Args: cobra.NoArgs,
	RunE: runTree,
}

// readCmd reads a file
var readCmd = &cobra.Command{
	Use:   "read PATH",
	Short: "Read a text file from the repository",
	Long: `Read a text file from the repository, optionally a line range.

Examples:
  # Read a whole file
  repoctl read src/main.go

  # Read lines 10-40
  repoctl read src/main.go --start 10 --end 40`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

// searchCmd searches file contents
var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Regex-search repository file contents",
	Long: `Search repository files for lines matching a regular expression.

Examples:
  # Find TODOs in Go files
  repoctl search TODO --glob '**/*.go'

  # Cap results at 10 matches
  repoctl search 'func \w+Handler' --max 10`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var (
	treeDepth  int
	treeHidden bool
	readStart  int
	readEnd    int
	searchGlob string
	searchMax  int
)

func init() {
	treeCmd.Flags().IntVar(&treeDepth, "depth", 0, "directory depth to list (1-5, server default 2)")
	treeCmd.Flags().BoolVar(&treeHidden, "hidden", false, "include dot-prefixed entries")
	readCmd.Flags().IntVar(&readStart, "start", 0, "first line to return (1-indexed)")
	readCmd.Flags().IntVar(&readEnd, "end", 0, "last line to return (1-indexed, inclusive)")
	searchCmd.Flags().StringVar(&searchGlob, "glob", "", "glob selecting candidate files (server default covers common extensions)")
	searchCmd.Flags().IntVar(&searchMax, "max", 0, "maximum matches to return (1-200, server default 50)")
}

func runTree(cmd *cobra.Command, args []string) error {
	call := map[string]any{}
	if treeDepth != 0 {
		call["depth"] = treeDepth
	}
	if treeHidden {
		call["include_hidden"] = true
	}
	return callTool(cmd, "repo_tree", call)
}

func runRead(cmd *cobra.Command, args []string) error {
	call := map[string]any{"path": args[0]}
	if readStart != 0 {
		call["start_line"] = readStart
	}
	if readEnd != 0 {
		call["end_line"] = readEnd
	}
	return callTool(cmd, "repo_read", call)
}

func runSearch(cmd *cobra.Command, args []string) error {
	call := map[string]any{"query": args[0]}
	if searchGlob != "" {
		call["glob"] = searchGlob
	}
	if searchMax != 0 {
		call["max_matches"] = searchMax
	}
	return callTool(cmd, "repo_search", call)
}

// bearerTransport adds the configured token to every request.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.base.RoundTrip(req)
}

// callTool connects an MCP session to the daemon's streamable HTTP
// endpoint, invokes one tool, and prints the structured result as JSON.
func callTool(cmd *cobra.Command, name string, args map[string]any) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	httpClient := &http.Client{
		Transport: &bearerTransport{token: authToken, base: http.DefaultTransport},
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "repoctl", Version: version}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   serverURL + "/mcp",
		HTTPClient: httpClient,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", serverURL, err)
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	if res.IsError {
		for _, content := range res.Content {
			if text, ok := content.(*mcp.TextContent); ok {
				return fmt.Errorf("%s failed: %s", name, text.Text)
			}
		}
		return fmt.Errorf("%s failed", name)
	}

	out := res.StructuredContent
	if out == nil {
		// Fall back to text blocks when the server returns no structure.
		for _, content := range res.Content {
			if text, ok := content.(*mcp.TextContent); ok {
				fmt.Fprintln(cmd.OutOrStdout(), text.Text)
			}
		}
		return nil
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
