// Package cache models build-cache descriptors and their translation to the
// argument form the external image builder consumes. It is a pure data
// transform: the builder owns all cache failure handling.
package cache

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies a cache backend.
type Kind string

const (
	// KindLocal reads or writes cache layers under a local directory.
	KindLocal Kind = "local"
	// KindRegistry uses a dedicated image reference in a registry.
	KindRegistry Kind = "registry"
	// KindInline embeds the cache metadata in the image itself.
	KindInline Kind = "inline"
	// KindGHA uses the GitHub Actions cache service.
	KindGHA Kind = "gha"
	// KindS3 uses an S3 bucket as a remote cache service.
	KindS3 Kind = "s3"
)

// Descriptor describes where intermediate build layers are read from or
// written to.
type Descriptor struct {
	Kind  Kind
	Attrs map[string]string
}

// ParseSpec parses the textual `type=kind,key=value,...` form of a cache
// descriptor. The bare shorthand `inline` is accepted. The kind must be one
// of the known backends; attribute semantics are left to the builder.
func ParseSpec(spec string) (Descriptor, error) {
	spec = strings.TrimSpace(spec)
	if spec == string(KindInline) {
		return Descriptor{Kind: KindInline}, nil
	}

	d := Descriptor{Attrs: make(map[string]string)}
	for _, field := range strings.Split(spec, ",") {
		key, value, found := strings.Cut(field, "=")
		if !found {
			return Descriptor{}, fmt.Errorf("invalid cache field %q in %q: expected key=value", field, spec)
		}
		if key == "type" {
			d.Kind = Kind(value)
			continue
		}
		d.Attrs[key] = value
	}

	switch d.Kind {
	case KindLocal, KindRegistry, KindInline, KindGHA, KindS3:
		return d, nil
	case "":
		return Descriptor{}, fmt.Errorf("cache descriptor %q is missing a type", spec)
	default:
		return Descriptor{}, fmt.Errorf("unknown cache type %q in %q", d.Kind, spec)
	}
}

// ParseSpecs parses a list of descriptor strings, failing on the first
// invalid entry.
func ParseSpecs(specs []string) ([]Descriptor, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make([]Descriptor, 0, len(specs))
	for _, spec := range specs {
		d, err := ParseSpec(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// String renders the descriptor back into the builder's argument form with
// deterministic attribute ordering.
func (d Descriptor) String() string {
	var b strings.Builder
	b.WriteString("type=")
	b.WriteString(string(d.Kind))

	keys := make([]string, 0, len(d.Attrs))
	for k := range d.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(",")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(d.Attrs[k])
	}
	return b.String()
}

// Strings renders a slice of descriptors.
func Strings(ds []Descriptor) []string {
	if len(ds) == 0 {
		return nil
	}
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.String())
	}
	return out
}
