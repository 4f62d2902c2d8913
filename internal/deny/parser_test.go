package deny

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []string
	}{
		{"empty line", "", nil},
		{"whitespace only", "   ", nil},
		{"comment", "# this is a comment", nil},
		{"negation skipped", "!important.txt", nil},
		{"file glob", "*.log", []string{"**/*.log"}},
		{"bare directory", "logs", []string{"**/logs", "**/logs/**"}},
		{"directory with slash", "logs/", []string{"**/logs", "**/logs/**"}},
		{"anchored directory", "/dist", []string{"dist", "dist/**"}},
		{"nested path", "out/cache", []string{"out/cache", "out/cache/**"}},
		{"file with extension", "notes.txt", []string{"**/notes.txt"}},
		{"trailing whitespace trimmed", "logs \t", []string{"**/logs", "**/logs/**"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLine(tt.line))
		})
	}
}

func TestParseRoot(t *testing.T) {
	root := t.TempDir()

	gitignore := `# build outputs
dist/
*.log

# dependencies
node_modules/
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte(gitignore), 0o644))

	extraignore := `node_modules/
tmp/
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ".repoviewignore"), []byte(extraignore), 0o644))

	parser := NewParser([]string{".gitignore", ".repoviewignore", ".missing"})
	patterns, err := parser.ParseRoot(root)
	require.NoError(t, err)

	assert.Contains(t, patterns, "**/dist")
	assert.Contains(t, patterns, "**/dist/**")
	assert.Contains(t, patterns, "**/*.log")
	assert.Contains(t, patterns, "**/tmp/**")

	// Overlapping entries across files are deduplicated.
	count := 0
	for _, p := range patterns {
		if p == "**/node_modules/**" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestParseRoot_NoIgnoreFiles(t *testing.T) {
	parser := NewParser([]string{".gitignore"})
	patterns, err := parser.ParseRoot(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestParsedPatternsComposeWithPolicy(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("coverage/\n*.tmp\n"), 0o644))

	parser := NewParser([]string{".gitignore"})
	patterns, err := parser.ParseRoot(root)
	require.NoError(t, err)

	policy, err := NewDefault(patterns)
	require.NoError(t, err)

	assert.True(t, policy.Denied("coverage"))
	assert.True(t, policy.Denied("coverage/report.html"))
	assert.True(t, policy.Denied("work/scratch.tmp"))
	assert.False(t, policy.Denied("src/main.go"))
}
