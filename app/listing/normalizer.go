package listing

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"placesync/app/config"
	"placesync/app/source"
)

// Normalizer maps raw CMS records into canonical listings. Per-field
// problems are recovered locally: the field resolves to an empty value
// and a warning is recorded.
type Normalizer struct {
	siteConfig *config.SiteConfig
}

func NewNormalizer(siteConfig *config.SiteConfig) *Normalizer {
	return &Normalizer{siteConfig: siteConfig}
}

// Run normalizes all records for one sync run. Slug collisions across
// distinct records are resolved with a deterministic numeric suffix so
// no listing silently overwrites another.
func (n *Normalizer) Run(records []source.SourceRecord) ([]Listing, []Warning) {
	listings := make([]Listing, 0, len(records))
	var warnings []Warning
	seenSlugs := make(map[string]int)

	for _, record := range records {
		item, itemWarnings := n.normalize(record)

		if count := seenSlugs[item.Slug]; count > 0 {
			resolved := fmt.Sprintf("%s-%d", item.Slug, count+1)
			slog.Warn("Slug collision", "slug", item.Slug, "resolved", resolved, "source_id", record.ID)
			warnings = append(warnings, Warning{
				SourceID: record.ID,
				Field:    "slug",
				Reason:   fmt.Sprintf("collides with an earlier record, renamed to %q", resolved),
			})
			seenSlugs[item.Slug] = count + 1
			item.Slug = resolved
			item.ShortLink = n.shortLink(resolved)
		} else {
			seenSlugs[item.Slug] = 1
		}

		listings = append(listings, item)
		warnings = append(warnings, itemWarnings...)
	}

	return listings, warnings
}

func (n *Normalizer) normalize(record source.SourceRecord) (Listing, []Warning) {
	var warnings []Warning

	warn := func(field, reason string) {
		slog.Warn("Field normalization problem", "source_id", record.ID, "field", field, "reason", reason)
		warnings = append(warnings, Warning{SourceID: record.ID, Field: field, Reason: reason})
	}

	// String fields resolve to "" when absent; malformed shapes warn.
	str := func(field string) string {
		value, state := stringAt(record.Content, field)
		if state == FieldMalformed {
			warn(field, "value is not a string")
		}
		return value
	}

	slug := DeriveSlug(record.Slug, record.Name, record.ID)

	item := Listing{
		SourceID:         record.ID,
		Slug:             slug,
		Title:            record.Name,
		Description:      str("description"),
		ShortDescription: str("short_description"),
		EditorsNote:      str("editors_note"),
		Address:          str("address"),
		Website:          extractLink(record.Content, "website", warn),
		Instagram:        extractLink(record.Content, "instagram", warn),
		Price:            str("price"),
		ShortLink:        n.shortLink(slug),
	}

	item.Taxonomies = n.extractTaxonomies(record, warn)
	item.Gallery = extractGallery(record.Content, warn)
	item.Geo = extractGeo(record.Content, warn)

	item.Created = parseTimestamp(record.CreatedAt, "created_at", warn)
	item.Published = parseTimestamp(record.PublishedAt, "published_at", warn)
	item.Updated = parseTimestamp(record.UpdatedAt, "updated_at", warn)

	for _, raw := range record.TagList {
		item.Tags = append(item.Tags, ParseTag(raw, n.siteConfig.TagGroups))
	}

	return item, warnings
}

func (n *Normalizer) shortLink(slug string) ShortLink {
	code := ShortCode(slug)
	return ShortLink{
		Code: code,
		URL:  "/" + n.siteConfig.ShortLinkRoot + "/" + code,
	}
}

func (n *Normalizer) extractTaxonomies(record source.SourceRecord, warn func(field, reason string)) map[string]TaxonomyValue {
	taxonomies := make(map[string]TaxonomyValue)

	for _, taxonomy := range n.siteConfig.Taxonomies {
		values, single, state := listAt(record.Content, taxonomy.Field)
		switch state {
		case FieldAbsent:
			continue
		case FieldMalformed:
			warn(taxonomy.Field, "expected a string or list of strings")
			continue
		}
		taxonomies[taxonomy.Field] = TaxonomyValue{Values: values, Single: single}
	}

	if len(taxonomies) == 0 {
		return nil
	}
	return taxonomies
}

// extractLink accepts both bare URL strings and CMS link objects with a
// url (or cached_url) key.
func extractLink(content map[string]any, field string, warn func(field, reason string)) string {
	value, state := valueAt(content, field)
	if state != FieldPresent {
		return ""
	}

	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		url, urlState := stringAt(v, "url")
		if urlState == FieldMalformed {
			warn(field, "link url is not a string")
			return ""
		}
		if url == "" {
			if cached, cachedState := stringAt(v, "cached_url"); cachedState == FieldPresent {
				return cached
			}
		}
		return url
	default:
		warn(field, "unsupported link shape")
		return ""
	}
}

// extractGallery accepts both bare URL strings and CMS asset objects
// with a filename key.
func extractGallery(content map[string]any, warn func(field, reason string)) []string {
	value, state := valueAt(content, "gallery")
	if state == FieldAbsent {
		return nil
	}
	if state == FieldMalformed {
		warn("gallery", "expected a list of assets")
		return nil
	}

	entries, ok := value.([]any)
	if !ok {
		warn("gallery", "expected a list of assets")
		return nil
	}

	var gallery []string
	for i, entry := range entries {
		switch v := entry.(type) {
		case string:
			if v != "" {
				gallery = append(gallery, v)
			}
		case map[string]any:
			filename, filenameState := stringAt(v, "filename")
			if filenameState != FieldPresent || filename == "" {
				warn("gallery", fmt.Sprintf("entry %d has no filename", i))
				continue
			}
			gallery = append(gallery, filename)
		default:
			warn("gallery", fmt.Sprintf("entry %d has an unsupported shape", i))
		}
	}

	return gallery
}

func extractGeo(content map[string]any, warn func(field, reason string)) *Geo {
	lat, latState := floatAt(content, "lat")
	lng, lngState := floatAt(content, "lng")

	if latState == FieldMalformed || lngState == FieldMalformed {
		warn("geo", "coordinates are not numeric")
		return nil
	}
	if latState != FieldPresent || lngState != FieldPresent {
		return nil
	}

	return &Geo{Lat: lat, Lng: lng}
}

// parseTimestamp parses a source date permissively into the dual
// ISO/epoch representation. Absent dates resolve to nil silently;
// unparseable ones warn.
func parseTimestamp(raw, field string, warn func(field, reason string)) Timestamp {
	if raw == "" {
		return Timestamp{}
	}

	parsed, err := dateparse.ParseAny(raw)
	if err != nil {
		warn(field, fmt.Sprintf("unparseable date %q", raw))
		return Timestamp{}
	}

	iso := parsed.UTC().Format(time.RFC3339)
	epoch := parsed.Unix()
	return Timestamp{ISO: &iso, Epoch: &epoch}
}
