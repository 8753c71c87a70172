package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/bakeplan/internal/cache"
	"github.com/vk/bakeplan/internal/config"
	"github.com/vk/bakeplan/internal/dag"
)

func testConfig(targets ...*config.Target) *config.Config {
	cfg := config.NewConfig()
	for _, t := range targets {
		cfg.Targets[t.Name] = t
	}
	return cfg
}

func target(name string, deps ...string) *config.Target {
	return &config.Target{
		Name:       name,
		Context:    "./" + name,
		Dockerfile: "Dockerfile",
		DependsOn:  deps,
	}
}

func TestBuildDiamond(t *testing.T) {
	cfg := testConfig(
		target("base"),
		target("api", "base"),
		target("worker", "base"),
		target("frontend", "base"),
	)

	p, err := Build(context.Background(), cfg, []string{"api", "worker", "frontend"}, Options{})
	require.NoError(t, err)

	assert.Len(t, p.Nodes, 4, "transitive dependency is pulled in")
	assert.Equal(t, [][]string{
		{"base"},
		{"api", "frontend", "worker"},
	}, p.Layers)

	api := p.Nodes["api"]
	assert.Equal(t, []string{"base"}, api.Deps)
	base := p.Nodes["base"]
	assert.ElementsMatch(t, []string{"api", "frontend", "worker"}, base.Dependents)
}

func TestBuildSelectionPrunes(t *testing.T) {
	cfg := testConfig(
		target("base"),
		target("api", "base"),
		target("unrelated"),
	)

	p, err := Build(context.Background(), cfg, []string{"api"}, Options{})
	require.NoError(t, err)
	assert.Len(t, p.Nodes, 2)
	assert.NotContains(t, p.Nodes, "unrelated")
}

func TestBuildUnknownDependency(t *testing.T) {
	cfg := testConfig(target("api", "ghost"))

	_, err := Build(context.Background(), cfg, []string{"api"}, Options{})
	var unknownErr *config.UnknownTargetError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "ghost", unknownErr.Name)
}

func TestBuildUnknownSelection(t *testing.T) {
	cfg := testConfig(target("api"))

	_, err := Build(context.Background(), cfg, []string{"ghost"}, Options{})
	var unknownErr *config.UnknownTargetError
	require.ErrorAs(t, err, &unknownErr)
}

func TestBuildCycles(t *testing.T) {
	t.Run("self dependency", func(t *testing.T) {
		cfg := testConfig(target("api", "api"))
		_, err := Build(context.Background(), cfg, []string{"api"}, Options{})
		var cycleErr *dag.CycleError
		require.ErrorAs(t, err, &cycleErr)
	})

	t.Run("two-node cycle", func(t *testing.T) {
		cfg := testConfig(target("a", "b"), target("b", "a"))
		_, err := Build(context.Background(), cfg, []string{"a"}, Options{})
		var cycleErr *dag.CycleError
		require.ErrorAs(t, err, &cycleErr)
	})
}

func TestBuildGroups(t *testing.T) {
	cfg := testConfig(
		target("base"),
		target("api", "base"),
		target("worker", "base"),
	)
	cfg.Groups["services"] = &config.Group{Name: "services", Targets: []string{"api", "worker"}}
	cfg.Groups["default"] = &config.Group{Name: "default", Targets: []string{"services", "api"}}

	t.Run("group expands recursively and deduplicates", func(t *testing.T) {
		p, err := Build(context.Background(), cfg, []string{"default"}, Options{})
		require.NoError(t, err)
		assert.Len(t, p.Nodes, 3)
	})

	t.Run("empty selection falls back to default group", func(t *testing.T) {
		p, err := Build(context.Background(), cfg, nil, Options{})
		require.NoError(t, err)
		assert.Len(t, p.Nodes, 3)
	})

	t.Run("group invocation matches direct invocation", func(t *testing.T) {
		viaGroup, err := Build(context.Background(), cfg, []string{"services"}, Options{})
		require.NoError(t, err)
		direct, err := Build(context.Background(), cfg, []string{"api", "worker"}, Options{})
		require.NoError(t, err)
		assert.Equal(t, direct.Layers, viaGroup.Layers)
	})

	t.Run("no default group and no names", func(t *testing.T) {
		bare := testConfig(target("api"))
		_, err := Build(context.Background(), bare, nil, Options{})
		assert.ErrorContains(t, err, `no "default" group`)
	})
}

func TestBuildOptions(t *testing.T) {
	base := target("api")
	base.Platforms = []string{"linux/amd64"}
	base.CacheFrom = []cache.Descriptor{{Kind: cache.KindInline}}
	cfg := testConfig(base)

	t.Run("platform override applies to every invocation", func(t *testing.T) {
		p, err := Build(context.Background(), cfg, []string{"api"}, Options{Platforms: []string{"linux/arm64"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"linux/arm64"}, p.Nodes["api"].Invocation.Platforms)
	})

	t.Run("push and no-cache flow into the invocation", func(t *testing.T) {
		p, err := Build(context.Background(), cfg, []string{"api"}, Options{Push: true, NoCache: true})
		require.NoError(t, err)
		inv := p.Nodes["api"].Invocation
		assert.True(t, inv.Push)
		assert.True(t, inv.NoCache)
		assert.Empty(t, inv.CacheFrom)
	})

	t.Run("cache options never change plan shape", func(t *testing.T) {
		cached, err := Build(context.Background(), cfg, []string{"api"}, Options{})
		require.NoError(t, err)
		uncached, err := Build(context.Background(), cfg, []string{"api"}, Options{NoCache: true})
		require.NoError(t, err)
		assert.Equal(t, cached.Layers, uncached.Layers)
		assert.Equal(t, cached.Targets(), uncached.Targets())
	})
}
