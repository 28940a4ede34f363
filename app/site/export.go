package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"placesync/app/listing"
)

// Export writes the machine-readable listing data: a pretty-printed
// JSON array of all canonical listings, written byte-identical to the
// internal data directory and the public API path, plus a YAML tag
// index for site navigation.
type Export struct {
	dataDir      string
	publicAPIDir string
}

func NewExport(dataDir, publicAPIDir string) *Export {
	return &Export{dataDir: dataDir, publicAPIDir: publicAPIDir}
}

func (e *Export) Run(listings []listing.Listing) error {
	if listings == nil {
		listings = []listing.Listing{}
	}

	// Marshal once so both copies stay byte-identical within a run.
	data, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode listing export: %w", err)
	}
	data = append(data, '\n')

	for _, dir := range []string{e.dataDir, e.publicAPIDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		path := filepath.Join(dir, "places.json")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	return e.writeTagIndex(listings)
}

// writeTagIndex emits the distinct tags across all listings, ordered by
// numeric group id with ungrouped tags last.
func (e *Export) writeTagIndex(listings []listing.Listing) error {
	seen := make(map[string]bool)
	var tags []listing.Tag

	for _, item := range listings {
		for _, tag := range item.Tags {
			if tag.Slug == "" || seen[tag.Slug] {
				continue
			}
			seen[tag.Slug] = true
			tags = append(tags, tag)
		}
	}

	listing.SortTags(tags)

	data, err := yaml.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tag index: %w", err)
	}

	path := filepath.Join(e.dataDir, "tags.yml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
