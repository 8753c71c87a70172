// Package hcl implements the config.Loader interface for bake files written
// in HCL or its JSON syntax. Loading is a strict pipeline: parse files,
// resolve variables into an evaluation context, decode target and group
// blocks against that context, flatten inheritance, and hand back an
// immutable config.Config. Unresolved interpolations surface as
// config.VariableResolutionError before any graph logic runs.
package hcl
