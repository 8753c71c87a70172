package app_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/bakeplan/internal/app"
	"github.com/vk/bakeplan/internal/builder"
	"github.com/vk/bakeplan/internal/config"
	"github.com/vk/bakeplan/internal/hcl"
	"github.com/vk/bakeplan/internal/testutil"
)

const diamondBake = `
target "base" {
  context = "./base"
  tags    = ["app/base:latest"]
}

target "api" {
  context    = "./api"
  depends_on = ["base"]
}

target "worker" {
  context    = "./worker"
  depends_on = ["base"]
}

group "default" {
  targets = ["api", "worker"]
}
`

func TestRunBuildsDefaultGroup(t *testing.T) {
	result := testutil.RunBake(t, map[string]string{"docker-bake.hcl": diamondBake}, app.Config{}, nil)

	require.NoError(t, result.Err)
	assert.Contains(t, result.Output, "3 succeeded, 0 failed, 0 skipped")
	assert.Equal(t, "base", result.Runner.Started()[0])
	assert.Len(t, result.Runner.Started(), 3)
}

func TestRunFailureRendersSkips(t *testing.T) {
	runner := &testutil.FakeRunner{
		FailTargets: map[string]error{"base": errors.New("no such image")},
	}
	result := testutil.RunBake(t, map[string]string{"docker-bake.hcl": diamondBake}, app.Config{}, runner)

	require.Error(t, result.Err)
	assert.Contains(t, result.Output, "failed       base")
	assert.Contains(t, result.Output, "skipped      api")
	assert.Contains(t, result.Output, "skipped      worker")
	assert.Contains(t, result.Output, "0 succeeded, 1 failed, 2 skipped")
}

func TestRunDryRunPrintsPlan(t *testing.T) {
	result := testutil.RunBake(t, map[string]string{"docker-bake.hcl": diamondBake},
		app.Config{DryRun: true, Names: []string{"api"}}, nil)

	require.NoError(t, result.Err)
	assert.Empty(t, result.Runner.Started(), "dry-run never invokes the builder")

	var printed struct {
		Layers  [][]string                    `json:"layers"`
		Targets map[string]builder.Invocation `json:"target"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Output), &printed))
	assert.Equal(t, [][]string{{"base"}, {"api"}}, printed.Layers)
	assert.Equal(t, "./api", printed.Targets["api"].Context)
	assert.Equal(t, []string{"app/base:latest"}, printed.Targets["base"].Tags)
}

func TestRunVariableOverride(t *testing.T) {
	files := map[string]string{
		"docker-bake.hcl": `
variable "TAG" {
  default = "dev"
}

target "api" {
  context = "./api"
  tags    = ["app/api:${var.TAG}"]
}
`,
	}
	result := testutil.RunBake(t, files, app.Config{
		DryRun:    true,
		Names:     []string{"api"},
		Overrides: map[string]string{"TAG": "v9"},
	}, nil)

	require.NoError(t, result.Err)
	assert.Contains(t, result.Output, "app/api:v9")
}

func TestRunUnknownTarget(t *testing.T) {
	result := testutil.RunBake(t, map[string]string{"docker-bake.hcl": diamondBake},
		app.Config{Names: []string{"ghost"}}, nil)

	require.Error(t, result.Err)
	var unknownErr *config.UnknownTargetError
	assert.ErrorAs(t, result.Err, &unknownErr)
}

func TestNewAppLoadFailure(t *testing.T) {
	files := map[string]string{
		"docker-bake.hcl": `
target "api" {
  tags = ["app/api:${var.MISSING}"]
}
`,
	}
	result := testutil.RunBake(t, files, app.Config{}, nil)

	require.Error(t, result.Err)
	require.Nil(t, result.App)
	var varErr *config.VariableResolutionError
	assert.ErrorAs(t, result.Err, &varErr)
}

func TestRunPushFlagReachesBuilder(t *testing.T) {
	result := testutil.RunBake(t, map[string]string{"docker-bake.hcl": diamondBake},
		app.Config{DryRun: true, Push: true}, nil)

	require.NoError(t, result.Err)
	var printed struct {
		Targets map[string]builder.Invocation `json:"target"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Output), &printed))
	for name, inv := range printed.Targets {
		assert.True(t, inv.Push, name)
	}
}

func TestListTargets(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "docker-bake.hcl"), []byte(diamondBake), 0o644))

	cfg, err := app.NewConfig(app.Config{Files: []string{tmpDir}, LogLevel: "error", LogFormat: "text"})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	a, err := app.NewApp(out, io.Discard, cfg, hcl.NewLoader(), nil)
	require.NoError(t, err)

	a.ListTargets()
	assert.Contains(t, out.String(), "group  default")
	assert.Contains(t, out.String(), "target api")
	assert.Contains(t, out.String(), "depends on [base]")
}
