package deck

import (
	"encoding/json"
	"fmt"
	"os"
)

// ManifestEntry describes one preset deck shipped with the server.
// Path is relative to the deck directory.
type ManifestEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// LoadManifest reads the list of preset decks from a JSON file.
func LoadManifest(path string) ([]ManifestEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	valid := entries[:0]
	for _, e := range entries {
		if e.Name == "" || e.Path == "" {
			continue
		}
		valid = append(valid, e)
	}
	return valid, nil
}
