package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/bakeplan/internal/config"
	"github.com/vk/bakeplan/internal/ctxlog"
	"github.com/vk/bakeplan/internal/schema"
)

// resolveVariables decodes all `variable` blocks and produces the evaluation
// context used to decode target and group bodies. Value precedence per
// variable: explicit override, then process environment, then block default.
func (l *Loader) resolveVariables(ctx context.Context, blocks []labeledBlock, overrides map[string]string) (*hcl.EvalContext, error) {
	logger := ctxlog.FromContext(ctx)

	declared := make(map[string]cty.Value, len(blocks))
	for _, block := range blocks {
		if _, exists := declared[block.name]; exists {
			return nil, fmt.Errorf("duplicate variable %q (redefined in %s)", block.name, block.file)
		}

		var body schema.Variable
		if diags := gohcl.DecodeBody(block.body, nil, &body); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode variable %q: %w", block.name, diags)
		}

		value := ""
		if body.Default != nil {
			str, err := convert.Convert(*body.Default, cty.String)
			if err != nil || str.IsNull() {
				return nil, &config.VariableResolutionError{
					Subject: fmt.Sprintf("variable %q", block.name),
					Detail:  "default value is not convertible to a string",
				}
			}
			value = str.AsString()
		}
		if env, ok := os.LookupEnv(block.name); ok {
			value = env
		}
		if override, ok := overrides[block.name]; ok {
			value = override
		}

		declared[block.name] = cty.StringVal(value)
	}

	for name := range overrides {
		if _, ok := declared[name]; !ok {
			return nil, &config.VariableResolutionError{
				Detail: fmt.Sprintf("override for undeclared variable %q", name),
			}
		}
	}

	logger.Debug("Variables resolved.", "count", len(declared))

	vars := map[string]cty.Value{}
	if len(declared) > 0 {
		vars["var"] = cty.ObjectVal(declared)
	} else {
		vars["var"] = cty.EmptyObjectVal
	}
	return &hcl.EvalContext{Variables: vars}, nil
}

// decodeBody decodes an HCL body against the evaluation context, classifying
// unresolved-reference diagnostics as VariableResolutionError so callers can
// abort before any graph construction.
func decodeBody(subject string, body hcl.Body, evalCtx *hcl.EvalContext, target any) error {
	diags := gohcl.DecodeBody(body, evalCtx, target)
	if !diags.HasErrors() {
		return nil
	}
	for _, diag := range diags {
		switch diag.Summary {
		case "Unknown variable", "Unsupported attribute", "Variables not allowed":
			return &config.VariableResolutionError{Subject: subject, Detail: diag.Detail}
		}
	}
	return fmt.Errorf("failed to decode %s: %w", subject, diags)
}
