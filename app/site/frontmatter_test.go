package site

import (
	"strings"
	"testing"

	"placesync/app/config"
	"placesync/app/listing"
)

func testListing() listing.Listing {
	group := 2
	groupName := "Downtown"
	iso := "2023-04-01T10:00:00Z"
	epoch := int64(1680343200)

	return listing.Listing{
		SourceID:    "101",
		Slug:        "blue-door",
		Title:       "The Blue Door",
		Description: "A quiet bar behind a blue door.",
		Address:     "12 Harbour St",
		Website:     "https://bluedoor.example",
		Price:       "$$",
		Geo:         &listing.Geo{Lat: 59.437, Lng: 24.7536},
		Taxonomies: map[string]listing.TaxonomyValue{
			"category":      {Values: []string{"Bars"}, Single: true},
			"neighbourhood": {Values: []string{"Old Town", "Riverside"}},
		},
		Tags: []listing.Tag{
			{Name: "Central", Slug: "central", Group: &group, GroupName: &groupName},
		},
		Gallery:   []string{"https://res.example/front.jpg"},
		Created:   listing.Timestamp{ISO: &iso, Epoch: &epoch},
		ShortLink: listing.ShortLink{Code: "abcd1234", URL: "/go/abcd1234"},
	}
}

func testTaxonomies() []config.Taxonomy {
	return []config.Taxonomy{
		{Field: "category", Root: "categories"},
		{Field: "neighbourhood", Root: "neighbourhoods"},
	}
}

func TestGeneratorRoundTrip(t *testing.T) {
	generator := NewGenerator(testTaxonomies())
	item := testListing()

	content, err := generator.Run(item, "/places/blue-door/", "/places/blue-door/")
	if err != nil {
		t.Fatal(err)
	}

	fields, body, err := ParseFrontMatter(content)
	if err != nil {
		t.Fatal(err)
	}

	if fields["title"] != "The Blue Door" {
		t.Errorf("Expected title 'The Blue Door', got %v", fields["title"])
	}
	if fields["slug"] != "blue-door" {
		t.Errorf("Expected slug 'blue-door', got %v", fields["slug"])
	}
	if fields["permalink"] != "/places/blue-door/" {
		t.Errorf("Expected permalink '/places/blue-door/', got %v", fields["permalink"])
	}
	if fields["canonical_url"] != "/places/blue-door/" {
		t.Errorf("Expected canonical_url '/places/blue-door/', got %v", fields["canonical_url"])
	}

	tags, ok := fields["tags"].([]any)
	if !ok || len(tags) != 1 {
		t.Fatalf("Expected 1 parsed tag, got %v", fields["tags"])
	}
	tag, ok := tags[0].(map[string]any)
	if !ok {
		t.Fatalf("Unexpected tag shape %v", tags[0])
	}
	if tag["name"] != "Central" || tag["slug"] != "central" {
		t.Errorf("Unexpected tag %v", tag)
	}
	if tag["group"] != 2 {
		t.Errorf("Expected group 2, got %v", tag["group"])
	}
	if tag["group_name"] != "Downtown" {
		t.Errorf("Expected group name 'Downtown', got %v", tag["group_name"])
	}

	if body != item.Description+"\n" {
		t.Errorf("Unexpected body %q", body)
	}
}

func TestGeneratorTaxonomyCardinality(t *testing.T) {
	generator := NewGenerator(testTaxonomies())

	content, err := generator.Run(testListing(), "/places/blue-door/", "/places/blue-door/")
	if err != nil {
		t.Fatal(err)
	}

	fields, _, err := ParseFrontMatter(content)
	if err != nil {
		t.Fatal(err)
	}

	// Single-valued source fields stay bare strings.
	if fields["category"] != "Bars" {
		t.Errorf("Expected bare string category, got %v", fields["category"])
	}

	// List-valued source fields stay lists.
	neighbourhoods, ok := fields["neighbourhood"].([]any)
	if !ok || len(neighbourhoods) != 2 {
		t.Errorf("Expected neighbourhood list of 2, got %v", fields["neighbourhood"])
	}
}

func TestGeneratorKeyOrder(t *testing.T) {
	generator := NewGenerator(testTaxonomies())

	content, err := generator.Run(testListing(), "/places/blue-door/", "/places/blue-door/")
	if err != nil {
		t.Fatal(err)
	}

	// Logical groups keep their fixed order: content, location,
	// taxonomies, practical info, media, tags, system.
	keys := []string{"title:", "address:", "category:", "neighbourhood:", "website:", "gallery:", "tags:", "slug:"}
	last := -1
	for _, key := range keys {
		idx := strings.Index(content, "\n"+key)
		if idx < 0 {
			idx = strings.Index(content, key)
		}
		if idx < 0 {
			t.Fatalf("Key %q missing from front matter:\n%s", key, content)
		}
		if idx < last {
			t.Errorf("Key %q appears out of order:\n%s", key, content)
		}
		last = idx
	}
}

func TestGeneratorPermalinkOverride(t *testing.T) {
	generator := NewGenerator(testTaxonomies())

	content, err := generator.Run(testListing(), "/categories/bars/blue-door/", "/places/blue-door/")
	if err != nil {
		t.Fatal(err)
	}

	fields, _, err := ParseFrontMatter(content)
	if err != nil {
		t.Fatal(err)
	}

	if fields["permalink"] != "/categories/bars/blue-door/" {
		t.Errorf("Expected overridden permalink, got %v", fields["permalink"])
	}
	if fields["canonical_url"] != "/places/blue-door/" {
		t.Errorf("Duplicates must keep the canonical URL, got %v", fields["canonical_url"])
	}
}

func TestParseFrontMatterRejectsMissingDelimiter(t *testing.T) {
	if _, _, err := ParseFrontMatter("no front matter here"); err == nil {
		t.Error("Expected error for content without front matter")
	}
	if _, _, err := ParseFrontMatter("---\ntitle: x\n"); err == nil {
		t.Error("Expected error for unterminated front matter")
	}
}
