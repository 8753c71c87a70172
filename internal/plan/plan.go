package plan

import (
	"context"
	"fmt"

	"github.com/vk/bakeplan/internal/builder"
	"github.com/vk/bakeplan/internal/cache"
	"github.com/vk/bakeplan/internal/config"
	"github.com/vk/bakeplan/internal/ctxlog"
	"github.com/vk/bakeplan/internal/dag"
)

// Options adjust how invocation descriptors are derived from targets.
type Options struct {
	// Push requests a registry push after each successful build.
	Push bool
	// NoCache disables cache sources on every invocation. It changes
	// invocation arguments only, never plan shape.
	NoCache bool
	// Platforms, when non-empty, overrides every target's platform list.
	Platforms []string
}

// Node is one schedulable unit of the plan.
type Node struct {
	Target     *config.Target
	Invocation builder.Invocation
	Deps       []string
	Dependents []string
}

// Plan is a validated, ready-to-execute build plan.
type Plan struct {
	Nodes map[string]*Node
	// Layers is the layered topological order: every node in layer i has
	// all of its dependencies in earlier layers.
	Layers [][]string
}

// Build constructs a complete, validated plan from a resolved config and the
// requested target or group names. The selection is expanded, closed over
// transitive dependencies, checked for unknown references and cycles, and
// annotated with one build invocation per target.
func Build(ctx context.Context, cfg *config.Config, names []string, opts Options) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Plan construction started.", "requested", names)

	selected, err := expandNames(cfg, names)
	if err != nil {
		return nil, err
	}
	logger.Debug("Selection expanded.", "targets", selected)

	// Close the selection over transitive dependencies.
	members := make(map[string]*config.Target)
	queue := append([]string(nil), selected...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, ok := members[name]; ok {
			continue
		}
		target := cfg.Targets[name]
		members[name] = target
		for _, dep := range target.DependsOn {
			if dep == name {
				return nil, &dag.CycleError{Node: name}
			}
			if _, ok := cfg.Targets[dep]; !ok {
				return nil, &config.UnknownTargetError{Name: dep, ReferencedBy: fmt.Sprintf("target %q", name)}
			}
			if _, ok := members[dep]; !ok {
				queue = append(queue, dep)
			}
		}
	}

	graph := dag.New()
	for name := range members {
		graph.AddNode(name)
	}
	for name, target := range members {
		for _, dep := range target.DependsOn {
			if err := graph.AddEdge(dep, name); err != nil {
				return nil, err
			}
		}
	}

	if err := graph.DetectCycles(); err != nil {
		return nil, err
	}

	layers, err := graph.Layers()
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Nodes:  make(map[string]*Node, len(members)),
		Layers: layers,
	}
	for name, target := range members {
		deps, err := graph.Dependencies(name)
		if err != nil {
			return nil, err
		}
		dependents, err := graph.Dependents(name)
		if err != nil {
			return nil, err
		}
		p.Nodes[name] = &Node{
			Target:     target,
			Invocation: invocation(target, opts),
			Deps:       deps,
			Dependents: dependents,
		}
	}

	logger.Debug("Plan construction successful.", "node_count", len(p.Nodes), "layer_count", len(p.Layers))
	return p, nil
}

// Targets returns all plan members in layered order.
func (p *Plan) Targets() []string {
	var out []string
	for _, layer := range p.Layers {
		out = append(out, layer...)
	}
	return out
}

// invocation derives the build descriptor for a single target.
func invocation(t *config.Target, opts Options) builder.Invocation {
	inv := builder.Invocation{
		Target:     t.Name,
		Context:    t.Context,
		Dockerfile: t.Dockerfile,
		Stage:      t.Stage,
		Tags:       t.Tags,
		Args:       t.Args,
		Labels:     t.Labels,
		Platforms:  t.Platforms,
		CacheFrom:  cache.Strings(t.CacheFrom),
		CacheTo:    cache.Strings(t.CacheTo),
		NoCache:    opts.NoCache,
		Push:       opts.Push,
	}
	if len(opts.Platforms) > 0 {
		inv.Platforms = opts.Platforms
	}
	if opts.NoCache {
		inv.CacheFrom = nil
	}
	return inv
}
