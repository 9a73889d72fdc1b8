package knowledge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/resolvd-io/resolvd/pkg/protocol"
)

// LoadFile merges a YAML catalogue file into the base. The file maps
// category names to entry lists:
//
//	technical:
//	  - content: "VPN clients must be on version 4.2 or later."
//	    source: vpn_requirements.md
//	    keywords: [vpn, version, client]
//
// Unknown category names and entries without content are rejected so a
// typo'd file fails loudly at startup rather than silently never matching.
func (b *Base) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("knowledge: read %s: %w", path, err)
	}

	var raw map[string][]Entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("knowledge: parse %s: %w", path, err)
	}

	for name, entries := range raw {
		cat, ok := protocol.ParseCategory(name)
		if !ok {
			return fmt.Errorf("knowledge: %s: unknown category %q", path, name)
		}
		for i, e := range entries {
			if e.Content == "" {
				return fmt.Errorf("knowledge: %s: %s[%d]: content is required", path, name, i)
			}
			if len(e.Keywords) == 0 {
				return fmt.Errorf("knowledge: %s: %s[%d]: at least one keyword is required", path, name, i)
			}
		}
		b.Add(cat, entries...)
	}
	return nil
}
