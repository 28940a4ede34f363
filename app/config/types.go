package config

// Site configuration types

type SiteConfig struct {
	// PlacesRoot is the canonical folder for listing pages, e.g. "places".
	PlacesRoot string `yaml:"places_root"`

	// ShortLinkRoot is the URL prefix for short-link redirects, e.g. "go".
	ShortLinkRoot string `yaml:"short_link_root"`

	// Taxonomies are the grouping fields fanned out into duplicate pages.
	Taxonomies []Taxonomy `yaml:"taxonomies"`

	// TagGroups maps a numeric tag group id to its display name.
	TagGroups map[int]string `yaml:"tag_groups"`
}

type Taxonomy struct {
	Field string `yaml:"field"`
	Root  string `yaml:"root"`
	Title string `yaml:"title"`
}
