package site

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"placesync/app/config"
	"placesync/app/listing"
)

// WriteCounts reports how many files a run produced. It is threaded
// back to the caller instead of being accumulated in shared state.
type WriteCounts struct {
	Canonical  int
	Duplicates int
	Indexes    int
}

type indexFrontMatter struct {
	Title     string `yaml:"title"`
	Permalink string `yaml:"permalink"`
	Taxonomy  string `yaml:"taxonomy"`
}

// Writer lays out the generated content tree: one canonical page per
// listing plus one duplicate page per (taxonomy value, listing) pair
// and one index page per distinct taxonomy value. Each run deletes and
// regenerates the target directories from scratch.
type Writer struct {
	outputDir  string
	siteConfig *config.SiteConfig
	generator  *Generator
}

func NewWriter(outputDir string, siteConfig *config.SiteConfig) *Writer {
	return &Writer{
		outputDir:  outputDir,
		siteConfig: siteConfig,
		generator:  NewGenerator(siteConfig.Taxonomies),
	}
}

func (w *Writer) Run(listings []listing.Listing) (WriteCounts, error) {
	var counts WriteCounts

	if err := w.resetRoots(); err != nil {
		return counts, err
	}

	for _, item := range listings {
		canonicalURL := "/" + w.siteConfig.PlacesRoot + "/" + item.Slug + "/"

		content, err := w.generator.Run(item, canonicalURL, canonicalURL)
		if err != nil {
			return counts, err
		}
		if err := w.writeFile(filepath.Join(w.siteConfig.PlacesRoot, item.Slug, "index.md"), content); err != nil {
			return counts, err
		}
		counts.Canonical++

		for _, taxonomy := range w.siteConfig.Taxonomies {
			for _, value := range item.Taxonomies[taxonomy.Field].Values {
				valueSlug := listing.Slugify(value)
				if valueSlug == "" {
					continue
				}

				permalink := "/" + taxonomy.Root + "/" + valueSlug + "/" + item.Slug + "/"
				content, err := w.generator.Run(item, permalink, canonicalURL)
				if err != nil {
					return counts, err
				}
				if err := w.writeFile(filepath.Join(taxonomy.Root, valueSlug, item.Slug, "index.md"), content); err != nil {
					return counts, err
				}
				counts.Duplicates++
			}
		}
	}

	indexes, err := w.writeIndexes(listings)
	if err != nil {
		return counts, err
	}
	counts.Indexes = indexes

	slog.Info("Content tree written",
		"canonical", counts.Canonical,
		"duplicates", counts.Duplicates,
		"indexes", counts.Indexes)

	return counts, nil
}

// resetRoots clears and recreates every generated directory
// (full-rebuild semantics, not incremental sync).
func (w *Writer) resetRoots() error {
	roots := []string{w.siteConfig.PlacesRoot}
	for _, taxonomy := range w.siteConfig.Taxonomies {
		roots = append(roots, taxonomy.Root)
	}

	for _, root := range roots {
		dir := filepath.Join(w.outputDir, root)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to clear %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	return nil
}

// writeIndexes writes exactly one index page per distinct taxonomy
// value; values are deduplicated before iteration.
func (w *Writer) writeIndexes(listings []listing.Listing) (int, error) {
	written := 0

	for _, taxonomy := range w.siteConfig.Taxonomies {
		values := make(map[string]string)
		for _, item := range listings {
			for _, value := range item.Taxonomies[taxonomy.Field].Values {
				if valueSlug := listing.Slugify(value); valueSlug != "" {
					values[valueSlug] = value
				}
			}
		}

		slugs := make([]string, 0, len(values))
		for valueSlug := range values {
			slugs = append(slugs, valueSlug)
		}
		sort.Strings(slugs)

		for _, valueSlug := range slugs {
			front := indexFrontMatter{
				Title:     values[valueSlug],
				Permalink: "/" + taxonomy.Root + "/" + valueSlug + "/",
				Taxonomy:  taxonomy.Field,
			}

			data, err := yaml.Marshal(front)
			if err != nil {
				return written, fmt.Errorf("failed to render index front matter: %w", err)
			}

			content := "---\n" + string(data) + "---\n"
			if err := w.writeFile(filepath.Join(taxonomy.Root, valueSlug, "index.md"), content); err != nil {
				return written, err
			}
			written++
		}
	}

	return written, nil
}

func (w *Writer) writeFile(relPath, content string) error {
	fullPath := filepath.Join(w.outputDir, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(fullPath), err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", fullPath, err)
	}

	return nil
}
