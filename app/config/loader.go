package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of the site configuration
type Loader struct {
	path string
}

// NewLoader creates a new site configuration loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads and validates the site configuration file
func (l *Loader) Load() (*SiteConfig, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var siteConfig SiteConfig
	if err := yaml.Unmarshal(data, &siteConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&siteConfig)

	if err := l.validate(&siteConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", l.path, err)
	}

	slog.Debug("Site configuration loaded",
		"path", l.path,
		"taxonomies", len(siteConfig.Taxonomies),
		"tag_groups", len(siteConfig.TagGroups))

	return &siteConfig, nil
}

// setDefaults applies default values to configuration
func (l *Loader) setDefaults(siteConfig *SiteConfig) {
	if siteConfig.PlacesRoot == "" {
		siteConfig.PlacesRoot = "places"
	}
	if siteConfig.ShortLinkRoot == "" {
		siteConfig.ShortLinkRoot = "go"
	}
	for i := range siteConfig.Taxonomies {
		if siteConfig.Taxonomies[i].Root == "" {
			siteConfig.Taxonomies[i].Root = siteConfig.Taxonomies[i].Field
		}
	}
}

// validate validates the configuration
func (l *Loader) validate(siteConfig *SiteConfig) error {
	seenRoots := map[string]bool{siteConfig.PlacesRoot: true}

	for i, taxonomy := range siteConfig.Taxonomies {
		if taxonomy.Field == "" {
			return fmt.Errorf("taxonomy at index %d is missing a field name", i)
		}
		if seenRoots[taxonomy.Root] {
			return fmt.Errorf("taxonomy at index %d reuses folder root '%s'", i, taxonomy.Root)
		}
		seenRoots[taxonomy.Root] = true
	}

	for id := range siteConfig.TagGroups {
		if id < 0 {
			return fmt.Errorf("tag group id must be non-negative, got %d", id)
		}
	}

	return nil
}
