package hcl

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/bakeplan/internal/cache"
	"github.com/vk/bakeplan/internal/config"
	"github.com/vk/bakeplan/internal/dag"
	"github.com/vk/bakeplan/internal/schema"
)

// rawTarget is a decoded target block whose `inherits` chain has not yet
// been flattened.
type rawTarget struct {
	target   *config.Target
	inherits []string
}

// decodeTarget decodes a single `target` block body and translates it into
// the agnostic model.
func (l *Loader) decodeTarget(block labeledBlock, evalCtx *hcl.EvalContext) (*rawTarget, error) {
	subject := fmt.Sprintf("target %q", block.name)

	var body schema.Target
	if err := decodeBody(subject, block.body, evalCtx, &body); err != nil {
		return nil, err
	}

	cacheFrom, err := cache.ParseSpecs(body.CacheFrom)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", subject, err)
	}
	cacheTo, err := cache.ParseSpecs(body.CacheTo)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", subject, err)
	}

	var timeout time.Duration
	if body.Timeout != "" {
		timeout, err = time.ParseDuration(body.Timeout)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid timeout: %w", subject, err)
		}
	}

	return &rawTarget{
		target: &config.Target{
			Name:       block.name,
			Context:    body.Context,
			Dockerfile: body.Dockerfile,
			Stage:      body.Stage,
			Tags:       body.Tags,
			Args:       body.Args,
			Labels:     body.Labels,
			DependsOn:  body.DependsOn,
			Platforms:  body.Platforms,
			CacheFrom:  cacheFrom,
			CacheTo:    cacheTo,
			Timeout:    timeout,
		},
		inherits: body.Inherits,
	}, nil
}

// flattenInherits resolves every target's `inherits` chain into a flat
// Target with no runtime linkage to its sources. Later parents override
// earlier ones, and the child's own fields always win. Inheritance cycles
// are reported as dag.CycleError, unknown parents as
// config.UnknownTargetError.
func flattenInherits(raw map[string]*rawTarget, order []string) (map[string]*config.Target, error) {
	const (
		unvisited = iota
		visiting
		done
	)

	resolved := make(map[string]*config.Target, len(raw))
	state := make(map[string]int, len(raw))

	var resolve func(name string) (*config.Target, error)
	resolve = func(name string) (*config.Target, error) {
		if state[name] == done {
			return resolved[name], nil
		}
		if state[name] == visiting {
			return nil, &dag.CycleError{Node: name}
		}
		state[name] = visiting

		rt := raw[name]
		result := rt.target
		if len(rt.inherits) > 0 {
			acc := &config.Target{}
			for _, parentName := range rt.inherits {
				if _, ok := raw[parentName]; !ok {
					return nil, &config.UnknownTargetError{
						Name:         parentName,
						ReferencedBy: fmt.Sprintf("target %q", name),
					}
				}
				parent, err := resolve(parentName)
				if err != nil {
					return nil, err
				}
				acc = config.Merge(acc, parent)
			}
			result = config.Merge(acc, rt.target)
		}

		state[name] = done
		resolved[name] = result
		return result, nil
	}

	for _, name := range order {
		if _, err := resolve(name); err != nil {
			return nil, err
		}
	}

	// Fill in builder defaults only after the whole chain is flattened, so
	// an empty field still means "inherit" during the merge above.
	for _, t := range resolved {
		if t.Context == "" {
			t.Context = "."
		}
		if t.Dockerfile == "" {
			t.Dockerfile = "Dockerfile"
		}
	}

	return resolved, nil
}
