package hcl

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	pkgerrors "github.com/pkg/errors"

	"github.com/vk/bakeplan/internal/config"
	"github.com/vk/bakeplan/internal/ctxlog"
	"github.com/vk/bakeplan/internal/fsutil"
	"github.com/vk/bakeplan/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// labeledBlock pairs a block body with its single name label.
type labeledBlock struct {
	name string
	body hcl.Body
	file string
}

// Load orchestrates the entire configuration loading process.
func (l *Loader) Load(ctx context.Context, overrides map[string]string, paths ...string) (*config.Config, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Config loader started.", "path_count", len(paths))

	files, err := fsutil.FindConfigFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered configuration files.", "count", len(files), "files", files)

	parser := hclparse.NewParser()
	var variables, groups, targets []labeledBlock

	for _, file := range files {
		var hclFile *hcl.File
		var diags hcl.Diagnostics
		if filepath.Ext(file) == ".json" {
			hclFile, diags = parser.ParseJSONFile(file)
		} else {
			hclFile, diags = parser.ParseHCLFile(file)
		}
		if diags.HasErrors() {
			return nil, pkgerrors.Wrapf(diags, "failed to parse %s", file)
		}

		content, diags := hclFile.Body.Content(schema.FileSchema)
		if diags.HasErrors() {
			return nil, pkgerrors.Wrapf(diags, "invalid configuration in %s", file)
		}

		for _, block := range content.Blocks {
			lb := labeledBlock{name: block.Labels[0], body: block.Body, file: file}
			switch block.Type {
			case "variable":
				variables = append(variables, lb)
			case "group":
				groups = append(groups, lb)
			case "target":
				targets = append(targets, lb)
			}
		}
	}

	evalCtx, err := l.resolveVariables(ctx, variables, overrides)
	if err != nil {
		return nil, err
	}

	cfg := config.NewConfig()

	for _, block := range groups {
		if _, exists := cfg.Groups[block.name]; exists {
			return nil, fmt.Errorf("duplicate group %q (redefined in %s)", block.name, block.file)
		}
		group, err := l.decodeGroup(block, evalCtx)
		if err != nil {
			return nil, err
		}
		cfg.Groups[block.name] = group
	}

	raw := make(map[string]*rawTarget, len(targets))
	order := make([]string, 0, len(targets))
	for _, block := range targets {
		if _, exists := raw[block.name]; exists {
			return nil, fmt.Errorf("duplicate target %q (redefined in %s)", block.name, block.file)
		}
		rt, err := l.decodeTarget(block, evalCtx)
		if err != nil {
			return nil, err
		}
		raw[block.name] = rt
		order = append(order, block.name)
	}

	for name, group := range cfg.Groups {
		for _, member := range group.Targets {
			_, isTarget := raw[member]
			_, isGroup := cfg.Groups[member]
			if !isTarget && !isGroup {
				return nil, &config.UnknownTargetError{Name: member, ReferencedBy: fmt.Sprintf("group %q", name)}
			}
		}
	}

	flattened, err := flattenInherits(raw, order)
	if err != nil {
		return nil, err
	}
	cfg.Targets = flattened

	logger.Debug("Configuration loading complete.",
		"variables", len(variables), "targets", len(cfg.Targets), "groups", len(cfg.Groups))
	return cfg, nil
}

// decodeGroup decodes a single `group` block body.
func (l *Loader) decodeGroup(block labeledBlock, evalCtx *hcl.EvalContext) (*config.Group, error) {
	var body schema.Group
	if err := decodeBody(fmt.Sprintf("group %q", block.name), block.body, evalCtx, &body); err != nil {
		return nil, err
	}
	return &config.Group{Name: block.name, Targets: body.Targets}, nil
}
