// Package schema defines the HCL shapes of a bake file: `variable`,
// `target`, and `group` blocks. These structs are decoding vessels only;
// the format-agnostic model lives in internal/config.
package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// FileSchema is the top-level body schema of a bake file. Block labels are
// carried by the blocks themselves, so the structs below have no label
// fields.
var FileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "variable", LabelNames: []string{"name"}},
		{Type: "group", LabelNames: []string{"name"}},
		{Type: "target", LabelNames: []string{"name"}},
	},
}

// Variable is the body of a `variable` block. The default may be any
// primitive value; it is rendered to a string before substitution.
type Variable struct {
	Default     *cty.Value `hcl:"default,optional"`
	Description string     `hcl:"description,optional"`
}

// Target is the body of a `target` block.
type Target struct {
	Context    string            `hcl:"context,optional"`
	Dockerfile string            `hcl:"dockerfile,optional"`
	Stage      string            `hcl:"target,optional"`
	Inherits   []string          `hcl:"inherits,optional"`
	Tags       []string          `hcl:"tags,optional"`
	Args       map[string]string `hcl:"args,optional"`
	Labels     map[string]string `hcl:"labels,optional"`
	DependsOn  []string          `hcl:"depends_on,optional"`
	Platforms  []string          `hcl:"platforms,optional"`
	CacheFrom  []string          `hcl:"cache-from,optional"`
	CacheTo    []string          `hcl:"cache-to,optional"`
	Timeout    string            `hcl:"timeout,optional"`
}

// Group is the body of a `group` block. Members may name targets or other
// groups.
type Group struct {
	Targets     []string `hcl:"targets"`
	Description string   `hcl:"description,optional"`
}
