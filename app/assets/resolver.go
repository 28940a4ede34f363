package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// Failure records one gallery image that could not be resolved. The
// entry is dropped from output; the run continues.
type Failure struct {
	Slug   string
	URL    string
	Reason string
}

// Stats counts how each asset was resolved during a run.
type Stats struct {
	CacheHits int
	CDNHits   int
	Uploads   int
	Failed    int
}

// Resolver turns a remote source image URL into a stable CDN-hosted
// URL. Resolution order: persisted cache, CDN existence check by
// deterministic public id, then download-and-upload. Per-asset failures
// are never fatal.
type Resolver struct {
	cache      *Cache
	cdn        *CDN
	httpClient *http.Client
	userAgent  string

	failures []Failure
	stats    Stats
}

func NewResolver(cache *Cache, cdn *CDN, userAgent string) *Resolver {
	return &Resolver{
		cache:      cache,
		cdn:        cdn,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		userAgent:  userAgent,
	}
}

// PublicID derives the deterministic asset identifier from the listing
// slug and the basename of the source path without its extension, so
// re-runs map the same source image to the same target.
func PublicID(slug, sourceURL string) string {
	name := sourceURL
	if parsed, err := url.Parse(sourceURL); err == nil && parsed.Path != "" {
		name = parsed.Path
	}
	base := path.Base(name)
	base = strings.TrimSuffix(base, path.Ext(base))
	return slug + "-" + base
}

// Resolve returns the hosted URL for a source image, or ok=false when
// the asset failed to resolve and the gallery entry should be dropped.
func (r *Resolver) Resolve(ctx context.Context, slug, sourceURL string) (string, bool) {
	publicID := PublicID(slug, sourceURL)

	if hosted, ok := r.cache.Get(publicID); ok {
		r.stats.CacheHits++
		return hosted, true
	}

	hosted, exists, err := r.cdn.Exists(ctx, publicID)
	if err != nil {
		r.fail(slug, sourceURL, fmt.Sprintf("existence check failed: %v", err))
		return "", false
	}
	if exists {
		r.stats.CDNHits++
		r.cache.Set(publicID, hosted)
		return hosted, true
	}

	data, err := r.download(ctx, sourceURL)
	if err != nil {
		r.fail(slug, sourceURL, fmt.Sprintf("download failed: %v", err))
		return "", false
	}

	hosted, err = r.cdn.Upload(ctx, publicID, data)
	if err != nil {
		r.fail(slug, sourceURL, fmt.Sprintf("upload failed: %v", err))
		return "", false
	}

	r.stats.Uploads++
	r.cache.Set(publicID, hosted)
	slog.Info("Asset uploaded", "public_id", publicID, "url", hosted)

	return hosted, true
}

func (r *Resolver) Failures() []Failure {
	return r.failures
}

func (r *Resolver) Stats() Stats {
	return r.stats
}

func (r *Resolver) fail(slug, sourceURL, reason string) {
	slog.Warn("Asset resolution failed", "slug", slug, "url", sourceURL, "reason", reason)
	r.stats.Failed++
	r.failures = append(r.failures, Failure{Slug: slug, URL: sourceURL, Reason: reason})
}

func (r *Resolver) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
