package site

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"placesync/app/config"
	"placesync/app/listing"
)

// Redirects emits the flat short-link redirect table: one
// "<from> <to> <status>" triple per line, space-separated.
type Redirects struct {
	path       string
	siteConfig *config.SiteConfig
}

func NewRedirects(path string, siteConfig *config.SiteConfig) *Redirects {
	return &Redirects{path: path, siteConfig: siteConfig}
}

func (r *Redirects) Run(listings []listing.Listing) (int, error) {
	var buf bytes.Buffer

	shortRoot := "/" + r.siteConfig.ShortLinkRoot
	placesRoot := "/" + r.siteConfig.PlacesRoot

	// Short-link root falls through to the places index.
	fmt.Fprintf(&buf, "%s/ %s/ 301\n", shortRoot, placesRoot)

	for _, item := range listings {
		fmt.Fprintf(&buf, "%s/%s %s/%s/ 301\n", shortRoot, item.ShortLink.Code, placesRoot, item.Slug)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", filepath.Dir(r.path), err)
	}
	if err := os.WriteFile(r.path, buf.Bytes(), 0644); err != nil {
		return 0, fmt.Errorf("failed to write redirect table: %w", err)
	}

	return len(listings) + 1, nil
}
