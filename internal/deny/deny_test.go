package deny

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_Defaults(t *testing.T) {
	policy, err := NewDefault(nil)
	require.NoError(t, err)

	denied := []string{
		".git",
		".git/config",
		"sub/.git/HEAD",
		"node_modules",
		"node_modules/lodash/index.js",
		"pkg/vendor/dep/dep.go",
		"dist/bundle.js",
		"build",
		"assets/logo.png",
		"release/app.tar.gz",
		"lib/native.so",
		"package-lock.json",
		"frontend/yarn.lock",
		"web/app.min.js",
	}
	for _, path := range denied {
		assert.True(t, policy.Denied(path), "expected %q to be denied", path)
	}

	allowed := []string{
		"src/main.go",
		"docs/readme.md",
		"environments/prod.yaml",
		"building/plan.txt", // prefix of a denied name is not the name
		"src/distutil.go",
	}
	for _, path := range allowed {
		assert.False(t, policy.Denied(path), "expected %q to be allowed", path)
	}
}

func TestPolicy_EnvFiles(t *testing.T) {
	policy, err := NewDefault(nil)
	require.NoError(t, err)

	// The env rule applies to the base name at any depth, case-insensitively.
	denied := []string{
		".env",
		".env.local",
		".env.production",
		".ENV",
		"config/.env",
		"deep/nested/dir/.Env.staging",
	}
	for _, path := range denied {
		assert.True(t, policy.Denied(path), "expected %q to be denied", path)
	}

	assert.False(t, policy.Denied("src/environment.ts"))
	assert.False(t, policy.Denied("docs/env-setup.md"))
}

func TestPolicy_ExtraGlobs(t *testing.T) {
	policy, err := NewDefault([]string{"**/*.generated.go", "secrets", "secrets/**"})
	require.NoError(t, err)

	assert.True(t, policy.Denied("api/types.generated.go"))
	assert.True(t, policy.Denied("secrets"))
	assert.True(t, policy.Denied("secrets/prod.yaml"))
	assert.False(t, policy.Denied("api/types.go"))
}

func TestPolicy_ExtraFilePatterns(t *testing.T) {
	policy, err := NewDefaultWith(nil, []string{`(?i)^credentials\.json$`})
	require.NoError(t, err)

	assert.True(t, policy.Denied("credentials.json"))
	assert.True(t, policy.Denied("deploy/CREDENTIALS.JSON"))
	assert.False(t, policy.Denied("credentials.json.md"))
	// Built-in rules remain in force.
	assert.True(t, policy.Denied(".env"))
}

func TestPolicy_RootNeverDenied(t *testing.T) {
	policy, err := NewDefault(nil)
	require.NoError(t, err)

	assert.False(t, policy.Denied("."))
	assert.False(t, policy.Denied(""))
}

func TestNew_InvalidPatterns(t *testing.T) {
	_, err := New([]string{"a["}, nil)
	assert.Error(t, err, "invalid glob must fail construction")

	_, err = New(nil, []string{"(unclosed"})
	assert.Error(t, err, "invalid filename regexp must fail construction")
}
