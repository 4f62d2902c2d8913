// Package main implements the repoctl CLI for manual operations against a
// running repoviewd daemon.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the repoviewd HTTP server
	serverURL string
	// authToken is the optional bearer token for the /mcp endpoint
	authToken string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "repoctl",
	Short: "CLI for repoviewd repository-view operations",
	Long: `repoctl is a command-line interface for a running repoviewd daemon.
It provides commands for listing the repository tree, reading files,
searching file contents, and checking daemon health.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8917", "repoviewd server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "bearer token for the /mcp endpoint")
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(healthCmd)
}

// healthCmd checks daemon health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check repoviewd daemon health",
	Long: `Check the health status of the repoviewd daemon.

Examples:
  # Check health
  repoctl health

  # Check health on a different server
  repoctl health --server http://localhost:9090`,
	RunE: runHealth,
}

// HealthResponse matches pkg/server HealthResponse
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		return fmt.Errorf("failed to reach server at %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", health.Service, health.Status)
	return nil
}
