package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/bakeplan/internal/cache"
	"github.com/vk/bakeplan/internal/config"
	"github.com/vk/bakeplan/internal/dag"
)

// loadFiles writes the given files into a temp dir and loads them.
func loadFiles(t *testing.T, overrides map[string]string, files map[string]string) (*config.Config, error) {
	t.Helper()
	tmpDir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0o644))
	}
	return NewLoader().Load(context.Background(), overrides, tmpDir)
}

func TestLoadBasic(t *testing.T) {
	cfg, err := loadFiles(t, nil, map[string]string{
		"bake.hcl": `
target "base" {
  context    = "./base"
  dockerfile = "Dockerfile.base"
  tags       = ["app/base:latest"]
}

target "api" {
  context    = "./api"
  tags       = ["app/api:latest"]
  args       = { NODE_ENV = "production" }
  depends_on = ["base"]
  platforms  = ["linux/amd64", "linux/arm64"]
  timeout    = "90s"
}

group "default" {
  targets = ["api"]
}
`,
	})
	require.NoError(t, err)

	require.Contains(t, cfg.Targets, "base")
	require.Contains(t, cfg.Targets, "api")

	api := cfg.Targets["api"]
	assert.Equal(t, "./api", api.Context)
	assert.Equal(t, "Dockerfile", api.Dockerfile, "dockerfile defaults when unset")
	assert.Equal(t, []string{"base"}, api.DependsOn)
	assert.Equal(t, map[string]string{"NODE_ENV": "production"}, api.Args)
	assert.Equal(t, []string{"linux/amd64", "linux/arm64"}, api.Platforms)
	assert.Equal(t, 90*time.Second, api.Timeout)

	require.Contains(t, cfg.Groups, "default")
	assert.Equal(t, []string{"api"}, cfg.Groups["default"].Targets)
}

func TestLoadVariables(t *testing.T) {
	files := map[string]string{
		"bake.hcl": `
variable "TAG" {
  default = "dev"
}

target "api" {
  tags = ["app/api:${var.TAG}"]
}
`,
	}

	t.Run("default is used", func(t *testing.T) {
		cfg, err := loadFiles(t, nil, files)
		require.NoError(t, err)
		assert.Equal(t, []string{"app/api:dev"}, cfg.Targets["api"].Tags)
	})

	t.Run("environment beats default", func(t *testing.T) {
		t.Setenv("TAG", "v1")
		cfg, err := loadFiles(t, nil, files)
		require.NoError(t, err)
		assert.Equal(t, []string{"app/api:v1"}, cfg.Targets["api"].Tags)
	})

	t.Run("override beats environment", func(t *testing.T) {
		t.Setenv("TAG", "v1")
		cfg, err := loadFiles(t, map[string]string{"TAG": "v2"}, files)
		require.NoError(t, err)
		assert.Equal(t, []string{"app/api:v2"}, cfg.Targets["api"].Tags)
	})

	t.Run("numeric default converts to string", func(t *testing.T) {
		cfg, err := loadFiles(t, nil, map[string]string{
			"bake.hcl": `
variable "PORT" {
  default = 8080
}

target "api" {
  args = { PORT = var.PORT }
}
`,
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"PORT": "8080"}, cfg.Targets["api"].Args)
	})
}

func TestLoadUnresolvedVariable(t *testing.T) {
	_, err := loadFiles(t, nil, map[string]string{
		"bake.hcl": `
target "api" {
  tags = ["app/api:${var.MISSING}"]
}
`,
	})
	var varErr *config.VariableResolutionError
	require.ErrorAs(t, err, &varErr)
}

func TestLoadOverrideForUndeclaredVariable(t *testing.T) {
	_, err := loadFiles(t, map[string]string{"NOPE": "x"}, map[string]string{
		"bake.hcl": `
target "api" {}
`,
	})
	var varErr *config.VariableResolutionError
	require.ErrorAs(t, err, &varErr)
	assert.ErrorContains(t, err, "NOPE")
}

func TestLoadInherits(t *testing.T) {
	t.Run("chain is flattened", func(t *testing.T) {
		cfg, err := loadFiles(t, nil, map[string]string{
			"bake.hcl": `
target "base" {
  context = "./base"
  args    = { NODE_ENV = "production", VERSION = "1" }
}

target "api" {
  inherits = ["base"]
  tags     = ["app/api:latest"]
  args     = { VERSION = "2" }
}
`,
		})
		require.NoError(t, err)

		api := cfg.Targets["api"]
		assert.Equal(t, "./base", api.Context)
		assert.Equal(t, map[string]string{"NODE_ENV": "production", "VERSION": "2"}, api.Args)
		assert.Equal(t, []string{"app/api:latest"}, api.Tags)
	})

	t.Run("later parents override earlier ones", func(t *testing.T) {
		cfg, err := loadFiles(t, nil, map[string]string{
			"bake.hcl": `
target "one" {
  context = "./one"
}

target "two" {
  context = "./two"
}

target "api" {
  inherits = ["one", "two"]
}
`,
		})
		require.NoError(t, err)
		assert.Equal(t, "./two", cfg.Targets["api"].Context)
	})

	t.Run("unknown parent", func(t *testing.T) {
		_, err := loadFiles(t, nil, map[string]string{
			"bake.hcl": `
target "api" {
  inherits = ["ghost"]
}
`,
		})
		var unknownErr *config.UnknownTargetError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "ghost", unknownErr.Name)
	})

	t.Run("inheritance cycle", func(t *testing.T) {
		_, err := loadFiles(t, nil, map[string]string{
			"bake.hcl": `
target "a" {
  inherits = ["b"]
}

target "b" {
  inherits = ["a"]
}
`,
		})
		var cycleErr *dag.CycleError
		require.ErrorAs(t, err, &cycleErr)
	})
}

func TestLoadCacheDescriptors(t *testing.T) {
	cfg, err := loadFiles(t, nil, map[string]string{
		"bake.hcl": `
target "api" {
  cache-from = ["type=registry,ref=example.com/app:cache"]
  cache-to   = ["inline"]
}
`,
	})
	require.NoError(t, err)

	api := cfg.Targets["api"]
	require.Len(t, api.CacheFrom, 1)
	assert.Equal(t, cache.KindRegistry, api.CacheFrom[0].Kind)
	require.Len(t, api.CacheTo, 1)
	assert.Equal(t, cache.KindInline, api.CacheTo[0].Kind)

	_, err = loadFiles(t, nil, map[string]string{
		"bake.hcl": `
target "api" {
  cache-from = ["type=floppy"]
}
`,
	})
	assert.ErrorContains(t, err, "unknown cache type")
}

func TestLoadDuplicatesRejected(t *testing.T) {
	_, err := loadFiles(t, nil, map[string]string{
		"a.hcl": `
target "api" {}
`,
		"b.hcl": `
target "api" {}
`,
	})
	assert.ErrorContains(t, err, `duplicate target "api"`)
}

func TestLoadGroupMemberValidation(t *testing.T) {
	_, err := loadFiles(t, nil, map[string]string{
		"bake.hcl": `
group "default" {
  targets = ["ghost"]
}
`,
	})
	var unknownErr *config.UnknownTargetError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "ghost", unknownErr.Name)
}

func TestLoadJSONSyntax(t *testing.T) {
	cfg, err := loadFiles(t, nil, map[string]string{
		"docker-bake.json": `{
  "variable": {
    "TAG": { "default": "latest" }
  },
  "target": {
    "api": {
      "context": "./api",
      "tags": ["app/api:${var.TAG}"]
    }
  },
  "group": {
    "default": { "targets": ["api"] }
  }
}`,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"app/api:latest"}, cfg.Targets["api"].Tags)
	assert.Equal(t, []string{"api"}, cfg.Groups["default"].Targets)
}

func TestLoadInvalidTimeout(t *testing.T) {
	_, err := loadFiles(t, nil, map[string]string{
		"bake.hcl": `
target "api" {
  timeout = "soon"
}
`,
	})
	assert.ErrorContains(t, err, "invalid timeout")
}
