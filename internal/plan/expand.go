package plan

import (
	"fmt"

	"github.com/vk/bakeplan/internal/config"
)

// DefaultGroup is the group consulted when no names are requested.
const DefaultGroup = "default"

// expandNames resolves the requested names into a deduplicated, ordered list
// of target names. Group members may themselves be groups; expansion is
// recursive with a guard against group cycles. An empty request falls back
// to the default group.
func expandNames(cfg *config.Config, names []string) ([]string, error) {
	if len(names) == 0 {
		if _, ok := cfg.Groups[DefaultGroup]; !ok {
			return nil, fmt.Errorf("no targets requested and no %q group declared", DefaultGroup)
		}
		names = []string{DefaultGroup}
	}

	var out []string
	seen := make(map[string]bool)
	expanding := make(map[string]bool)

	var expand func(name, referencedBy string) error
	expand = func(name, referencedBy string) error {
		if group, ok := cfg.Groups[name]; ok {
			if expanding[name] {
				// A group that reaches itself expands to nothing new.
				return nil
			}
			expanding[name] = true
			defer delete(expanding, name)
			for _, member := range group.Targets {
				if err := expand(member, fmt.Sprintf("group %q", name)); err != nil {
					return err
				}
			}
			return nil
		}

		if _, ok := cfg.Targets[name]; !ok {
			return &config.UnknownTargetError{Name: name, ReferencedBy: referencedBy}
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
		return nil
	}

	for _, name := range names {
		if err := expand(name, ""); err != nil {
			return nil, err
		}
	}
	return out, nil
}
