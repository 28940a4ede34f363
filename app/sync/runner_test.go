package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"placesync/app/assets"
	"placesync/app/config"
	"placesync/app/source"
)

func testSiteConfig() *config.SiteConfig {
	return &config.SiteConfig{
		PlacesRoot:    "places",
		ShortLinkRoot: "go",
		Taxonomies: []config.Taxonomy{
			{Field: "category", Root: "category", Title: "Category"},
		},
		TagGroups: map[int]string{2: "Downtown"},
	}
}

type testDirs struct {
	output        string
	redirectsFile string
	data          string
	publicAPI     string
}

func newTestDirs(t *testing.T) testDirs {
	t.Helper()
	base := t.TempDir()
	return testDirs{
		output:        filepath.Join(base, "content"),
		redirectsFile: filepath.Join(base, "static", "_redirects"),
		data:          filepath.Join(base, "data"),
		publicAPI:     filepath.Join(base, "api"),
	}
}

func newTestRunner(siteConfig *config.SiteConfig, cmsURL string, dirs testDirs,
	cache *assets.Cache, cdn *assets.CDN, resolver *assets.Resolver) *Runner {
	client := source.NewClient(cmsURL, "test-token", "place", "published", 100, 5, "placesync test")
	return NewRunner(siteConfig, client, cache, cdn, resolver,
		dirs.output, dirs.redirectsFile, dirs.data, dirs.publicAPI)
}

func TestRunnerFullRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"stories": [
				{
					"id": 17,
					"slug": "blue-door",
					"name": "Blue Door",
					"content": {
						"description": "A quiet bar behind a blue door.",
						"category": "Bars",
						"address": "12 Canal St",
						"lat": 52.37,
						"lng": 4.9
					},
					"tag_list": ["2-central"],
					"published_at": "2023-04-01T10:00:00Z"
				},
				{
					"id": 18,
					"slug": "",
					"name": "Night Cafe",
					"content": {"description": "Open late.", "category": ["Bars", "Cafes"]},
					"tag_list": []
				}
			],
			"total": 2
		}`)
	}))
	defer server.Close()

	dirs := newTestDirs(t)
	runner := newTestRunner(testSiteConfig(), server.URL, dirs, nil, nil, nil)

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if report.RunID == "" {
		t.Error("Expected a run id")
	}
	if report.Fetched != 2 {
		t.Errorf("Expected 2 fetched, got %d", report.Fetched)
	}
	if report.Listings != 2 {
		t.Errorf("Expected 2 listings, got %d", report.Listings)
	}
	if report.Files.Canonical != 2 {
		t.Errorf("Expected 2 canonical pages, got %d", report.Files.Canonical)
	}
	if report.Redirects != 3 {
		t.Errorf("Expected 3 redirect lines, got %d", report.Redirects)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", report.Warnings)
	}

	for _, path := range []string{
		filepath.Join(dirs.output, "places", "blue-door", "index.md"),
		filepath.Join(dirs.output, "places", "night-cafe", "index.md"),
		filepath.Join(dirs.output, "category", "bars", "blue-door", "index.md"),
		filepath.Join(dirs.output, "category", "cafes", "night-cafe", "index.md"),
		dirs.redirectsFile,
		filepath.Join(dirs.data, "places.json"),
		filepath.Join(dirs.publicAPI, "places.json"),
		filepath.Join(dirs.data, "tags.yml"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected %s to exist: %v", path, err)
		}
	}

	redirects, err := os.ReadFile(dirs.redirectsFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(redirects), "/go/ /places/ 301\n") {
		t.Errorf("Expected static root redirect first, got %q", string(redirects))
	}

	summary := report.Summary()
	if !strings.Contains(summary, "records fetched:   2") {
		t.Errorf("Expected fetch count in summary, got %q", summary)
	}
}

func TestRunnerFatalFetchWritesNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	defer server.Close()

	dirs := newTestDirs(t)
	runner := newTestRunner(testSiteConfig(), server.URL, dirs, nil, nil, nil)

	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("Expected error, got nil")
	}

	for _, path := range []string{dirs.output, dirs.redirectsFile, dirs.data, dirs.publicAPI} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("Expected %s to be absent after fatal fetch", path)
		}
	}
}

func TestRunnerRedirectExhaustionWritesNothing(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/moved", http.StatusFound)
	}))
	defer server.Close()

	dirs := newTestDirs(t)
	runner := newTestRunner(testSiteConfig(), server.URL, dirs, nil, nil, nil)

	_, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var redirectErr *source.TooManyRedirectsError
	if !errors.As(err, &redirectErr) {
		t.Fatalf("Expected TooManyRedirectsError, got %v", err)
	}

	if _, err := os.Stat(dirs.output); !os.IsNotExist(err) {
		t.Errorf("Expected no output after redirect exhaustion")
	}
}

func TestRunnerResolvesGalleryFromCache(t *testing.T) {
	cms := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"stories": [
				{
					"id": 17,
					"slug": "blue-door",
					"name": "Blue Door",
					"content": {
						"description": "A quiet bar.",
						"gallery": ["https://img.example.com/photos/front.jpg"]
					},
					"tag_list": []
				}
			],
			"total": 1
		}`)
	}))
	defer cms.Close()

	cdnServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("Unexpected CDN request %s for a cached asset", r.URL.Path)
	}))
	defer cdnServer.Close()

	dirs := newTestDirs(t)
	cachePath := filepath.Join(t.TempDir(), "assets.json")
	hosted := "https://res.example.com/blue-door-front.jpg"
	seed, _ := json.Marshal(map[string]string{"blue-door-front": hosted})
	if err := os.WriteFile(cachePath, seed, 0644); err != nil {
		t.Fatal(err)
	}

	cache := assets.NewCache(cachePath)
	cdn := assets.NewCDN(cdnServer.URL, "demo", "key", "secret", "placesync test")
	resolver := assets.NewResolver(cache, cdn, "placesync test")

	runner := newTestRunner(testSiteConfig(), cms.URL, dirs, cache, cdn, resolver)

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if report.AssetStats.CacheHits != 1 {
		t.Errorf("Expected 1 cache hit, got %+v", report.AssetStats)
	}
	if len(report.AssetFailures) != 0 {
		t.Errorf("Expected no asset failures, got %v", report.AssetFailures)
	}

	data, err := os.ReadFile(filepath.Join(dirs.data, "places.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), hosted) {
		t.Errorf("Expected hosted URL in export, got %s", data)
	}
	if strings.Contains(string(data), "img.example.com") {
		t.Errorf("Expected upstream URL to be rewritten, got %s", data)
	}
}

func TestRunnerDropsFailedAssets(t *testing.T) {
	cms := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"stories": [
				{
					"id": 17,
					"slug": "blue-door",
					"name": "Blue Door",
					"content": {"gallery": ["https://img.example.com/photos/front.jpg"]},
					"tag_list": []
				}
			],
			"total": 1
		}`)
	}))
	defer cms.Close()

	// Existence checks fail outright, so every asset resolution fails.
	cdnServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "cdn down", http.StatusInternalServerError)
	}))
	defer cdnServer.Close()

	dirs := newTestDirs(t)
	cachePath := filepath.Join(t.TempDir(), "assets.json")
	if err := os.WriteFile(cachePath, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	cache := assets.NewCache(cachePath)
	cdn := assets.NewCDN(cdnServer.URL, "demo", "key", "secret", "placesync test")
	resolver := assets.NewResolver(cache, cdn, "placesync test")

	runner := newTestRunner(testSiteConfig(), cms.URL, dirs, cache, cdn, resolver)

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if report.AssetStats.Failed != 1 {
		t.Errorf("Expected 1 failed asset, got %+v", report.AssetStats)
	}
	if len(report.AssetFailures) != 1 {
		t.Fatalf("Expected 1 failure record, got %d", len(report.AssetFailures))
	}
	if report.AssetFailures[0].Slug != "blue-door" {
		t.Errorf("Expected failure for blue-door, got %+v", report.AssetFailures[0])
	}

	summary := report.Summary()
	if !strings.Contains(summary, "Failed assets:") {
		t.Errorf("Expected failed-asset section in summary, got %q", summary)
	}
	if !strings.Contains(summary, "https://img.example.com/photos/front.jpg") {
		t.Errorf("Expected failed URL in summary, got %q", summary)
	}

	data, err := os.ReadFile(filepath.Join(dirs.data, "places.json"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "img.example.com") {
		t.Errorf("Expected failed asset to be dropped from export, got %s", data)
	}
}
