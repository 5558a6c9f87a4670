package regression

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeferEntry is a reference-backed exemption for a known, pre-existing
// failure. Deferral is explicit: an entry must carry a tracking reference or
// the whole list is rejected at load time.
type DeferEntry struct {
	ID          string `yaml:"id" json:"id"`
	Reason      string `yaml:"reason" json:"reason"`
	TrackingRef string `yaml:"tracking_ref" json:"tracking_ref"`
}

type deferFile struct {
	Defers []DeferEntry `yaml:"defers"`
}

// LoadDefers reads a human-maintained defer list from disk.
func LoadDefers(path string) ([]DeferEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read defer list %s: %w", path, err)
	}
	return ParseDefers(b)
}

// ParseDefers parses and validates defer entries. Entries without an id or
// tracking reference are invalid; duplicates are too.
func ParseDefers(data []byte) ([]DeferEntry, error) {
	var f deferFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse defer list: %w", err)
	}
	seen := map[string]bool{}
	for _, d := range f.Defers {
		if d.ID == "" {
			return nil, fmt.Errorf("defer entry with empty id")
		}
		if d.TrackingRef == "" {
			return nil, fmt.Errorf("defer entry %s: tracking reference is required", d.ID)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("duplicate defer entry %s", d.ID)
		}
		seen[d.ID] = true
	}
	return f.Defers, nil
}
