package deny

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Parser reads gitignore-style files from the repository root and converts
// their entries into deny glob patterns. Parsing happens once at startup;
// the resulting patterns become part of the immutable Policy.
type Parser struct {
	// IgnoreFiles is the list of ignore file names to look for.
	IgnoreFiles []string
}

// NewParser creates an ignore file parser for the given file names.
func NewParser(ignoreFiles []string) *Parser {
	return &Parser{IgnoreFiles: ignoreFiles}
}

// ParseRoot reads all configured ignore files directly under root and
// returns the combined patterns. Missing files are not an error.
func (p *Parser) ParseRoot(root string) ([]string, error) {
	var patterns []string

	for _, name := range p.IgnoreFiles {
		filePatterns, err := p.parseFile(filepath.Join(root, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		patterns = append(patterns, filePatterns...)
	}

	return deduplicate(patterns), nil
}

func (p *Parser) parseFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		patterns = append(patterns, parseLine(scanner.Text())...)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}

// parseLine parses a single ignore file line. Returns no patterns for
// comments, blank lines, and negation patterns (unsupported).
func parseLine(line string) []string {
	line = strings.TrimRight(line, " \t")

	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
		return nil
	}

	return toGlobPatterns(line)
}

// toGlobPatterns converts a gitignore entry to doublestar patterns. A bare
// directory name yields two patterns so that both the directory entry and
// its contents are denied.
func toGlobPatterns(pattern string) []string {
	// A leading slash anchors the entry to the root.
	anchored := strings.HasPrefix(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")

	// A trailing slash names a directory; deny it and everything beneath.
	if dir, ok := strings.CutSuffix(pattern, "/"); ok {
		pattern = dir
	}

	// Unanchored entries without a separator match at any depth.
	if !anchored && !strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "**/") {
		pattern = "**/" + pattern
	}

	// Plain names (no glob metacharacters, no extension) are treated as
	// directories: deny the entry itself and everything beneath it.
	base := pattern[strings.LastIndex(pattern, "/")+1:]
	if !strings.ContainsAny(base, "*?[{") && !strings.Contains(base, ".") {
		return []string{pattern, pattern + "/**"}
	}

	return []string{pattern}
}

// deduplicate removes duplicate patterns while preserving order.
func deduplicate(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))

	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}

	return result
}
