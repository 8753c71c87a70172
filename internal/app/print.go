package app

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/bakeplan/internal/builder"
	"github.com/vk/bakeplan/internal/plan"
)

// printedPlan is the JSON shape of a dry-run.
type printedPlan struct {
	// Layers is the dispatch order: targets within a layer are independent
	// and eligible to build concurrently.
	Layers  [][]string                    `json:"layers"`
	Targets map[string]builder.Invocation `json:"target"`
}

// printPlan emits the fully resolved plan as indented JSON without invoking
// the builder.
func (a *App) printPlan(p *plan.Plan) error {
	out := printedPlan{
		Layers:  p.Layers,
		Targets: make(map[string]builder.Invocation, len(p.Nodes)),
	}
	for name, node := range p.Nodes {
		out.Targets[name] = node.Invocation
	}

	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// ListTargets writes the declared groups and targets, sorted by name.
func (a *App) ListTargets() {
	groups := make([]string, 0, len(a.registry.Groups))
	for name := range a.registry.Groups {
		groups = append(groups, name)
	}
	sort.Strings(groups)
	for _, name := range groups {
		fmt.Fprintf(a.outW, "group  %-20s [%s]\n", name, strings.Join(a.registry.Groups[name].Targets, ", "))
	}

	targets := make([]string, 0, len(a.registry.Targets))
	for name := range a.registry.Targets {
		targets = append(targets, name)
	}
	sort.Strings(targets)
	for _, name := range targets {
		t := a.registry.Targets[name]
		if len(t.DependsOn) > 0 {
			fmt.Fprintf(a.outW, "target %-20s depends on [%s]\n", name, strings.Join(t.DependsOn, ", "))
			continue
		}
		fmt.Fprintf(a.outW, "target %s\n", name)
	}
}
