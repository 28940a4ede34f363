package site

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"placesync/app/config"
	"placesync/app/listing"
)

// Front matter keys are emitted in a fixed order by logical group:
// Content, Location & Category, Practical Info, Media & Highlights,
// Tags, System & Metadata. Section structs rely on yaml.v3 preserving
// struct field order.

type contentSection struct {
	Title            string `yaml:"title"`
	Description      string `yaml:"description,omitempty"`
	ShortDescription string `yaml:"short_description,omitempty"`
	EditorsNote      string `yaml:"editors_note,omitempty"`
}

type locationSection struct {
	Address string   `yaml:"address,omitempty"`
	Lat     *float64 `yaml:"lat,omitempty"`
	Lng     *float64 `yaml:"lng,omitempty"`
}

type practicalSection struct {
	Website   string `yaml:"website,omitempty"`
	Instagram string `yaml:"instagram,omitempty"`
	Price     string `yaml:"price,omitempty"`
}

type mediaSection struct {
	Gallery []string `yaml:"gallery,omitempty"`
}

type tagsSection struct {
	Tags []listing.Tag `yaml:"tags,omitempty"`
}

type systemSection struct {
	Slug         string            `yaml:"slug"`
	Permalink    string            `yaml:"permalink"`
	CanonicalURL string            `yaml:"canonical_url"`
	ShortLink    listing.ShortLink `yaml:"short_link"`
	Created      listing.Timestamp `yaml:"created"`
	Published    listing.Timestamp `yaml:"published"`
	Updated      listing.Timestamp `yaml:"updated"`
}

// Generator renders a listing into a Markdown page with YAML front
// matter. Taxonomy duplicates reuse the same content with a different
// permalink while canonical_url keeps pointing at the canonical page.
type Generator struct {
	taxonomies []config.Taxonomy
}

func NewGenerator(taxonomies []config.Taxonomy) *Generator {
	return &Generator{taxonomies: taxonomies}
}

func (g *Generator) Run(item listing.Listing, permalink, canonicalURL string) (string, error) {
	var buf bytes.Buffer

	buf.WriteString("---\n")

	if err := writeSection(&buf, contentSection{
		Title:            item.Title,
		Description:      item.Description,
		ShortDescription: item.ShortDescription,
		EditorsNote:      item.EditorsNote,
	}); err != nil {
		return "", err
	}

	location := locationSection{Address: item.Address}
	if item.Geo != nil {
		location.Lat = &item.Geo.Lat
		location.Lng = &item.Geo.Lng
	}
	if err := writeSection(&buf, location); err != nil {
		return "", err
	}

	// Taxonomy fields follow the configured order.
	for _, taxonomy := range g.taxonomies {
		value, ok := item.Taxonomies[taxonomy.Field]
		if !ok {
			continue
		}
		if err := writeSection(&buf, map[string]listing.TaxonomyValue{taxonomy.Field: value}); err != nil {
			return "", err
		}
	}

	if err := writeSection(&buf, practicalSection{
		Website:   item.Website,
		Instagram: item.Instagram,
		Price:     item.Price,
	}); err != nil {
		return "", err
	}

	if err := writeSection(&buf, mediaSection{Gallery: item.Gallery}); err != nil {
		return "", err
	}

	if err := writeSection(&buf, tagsSection{Tags: item.Tags}); err != nil {
		return "", err
	}

	if err := writeSection(&buf, systemSection{
		Slug:         item.Slug,
		Permalink:    permalink,
		CanonicalURL: canonicalURL,
		ShortLink:    item.ShortLink,
		Created:      item.Created,
		Published:    item.Published,
		Updated:      item.Updated,
	}); err != nil {
		return "", err
	}

	buf.WriteString("---\n\n")

	if item.Description != "" {
		buf.WriteString(item.Description)
		buf.WriteString("\n")
	}

	return buf.String(), nil
}

// writeSection marshals one front-matter group, skipping groups where
// every field is empty.
func writeSection(buf *bytes.Buffer, section any) error {
	data, err := yaml.Marshal(section)
	if err != nil {
		return fmt.Errorf("failed to render front matter: %w", err)
	}
	if string(data) == "{}\n" {
		return nil
	}
	buf.Write(data)
	return nil
}

// ParseFrontMatter splits a generated page back into its front matter
// mapping and body.
func ParseFrontMatter(content string) (map[string]any, string, error) {
	if !strings.HasPrefix(content, "---\n") {
		return nil, "", fmt.Errorf("missing front matter delimiter")
	}

	rest := content[len("---\n"):]
	parts := strings.SplitN(rest, "\n---\n", 2)
	if len(parts) != 2 {
		return nil, "", fmt.Errorf("unterminated front matter")
	}

	fields := make(map[string]any)
	if err := yaml.Unmarshal([]byte(parts[0]), &fields); err != nil {
		return nil, "", fmt.Errorf("failed to parse front matter: %w", err)
	}

	body := strings.TrimLeft(parts[1], "\n")
	return fields, body, nil
}
