package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"placesync/app/assets"
	"placesync/app/config"
	"placesync/app/listing"
	"placesync/app/site"
	"placesync/app/source"
)

// Runner wires the full pipeline together: fetch, normalize, resolve
// gallery assets, write the site tree, redirects and exports. A run is
// all-or-nothing up to the write phase: any fatal error aborts before
// output directories are touched.
type Runner struct {
	client     *source.Client
	normalizer *listing.Normalizer
	cache      *assets.Cache
	cdn        *assets.CDN
	resolver   *assets.Resolver
	writer     *site.Writer
	redirects  *site.Redirects
	export     *site.Export
}

func NewRunner(siteConfig *config.SiteConfig, client *source.Client, cache *assets.Cache,
	cdn *assets.CDN, resolver *assets.Resolver, outputDir, redirectsFile, dataDir, publicAPIDir string) *Runner {
	return &Runner{
		client:     client,
		normalizer: listing.NewNormalizer(siteConfig),
		cache:      cache,
		cdn:        cdn,
		resolver:   resolver,
		writer:     site.NewWriter(outputDir, siteConfig),
		redirects:  site.NewRedirects(redirectsFile, siteConfig),
		export:     site.NewExport(dataDir, publicAPIDir),
	}
}

func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := NewReport()

	records, err := r.client.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	report.Fetched = len(records)
	slog.Info("Records fetched", "count", len(records))

	listings, warnings := r.normalizer.Run(records)
	report.Listings = len(listings)
	report.Warnings = warnings

	if r.resolver != nil {
		if err := r.prepareCache(ctx); err != nil {
			return nil, err
		}
		r.resolveGalleries(ctx, listings)
		report.AssetStats = r.resolver.Stats()
		report.AssetFailures = r.resolver.Failures()
	}

	counts, err := r.writer.Run(listings)
	if err != nil {
		return nil, fmt.Errorf("write site tree: %w", err)
	}
	report.Files = counts

	redirectCount, err := r.redirects.Run(listings)
	if err != nil {
		return nil, fmt.Errorf("write redirects: %w", err)
	}
	report.Redirects = redirectCount

	if err := r.export.Run(listings); err != nil {
		return nil, fmt.Errorf("write exports: %w", err)
	}

	if r.resolver != nil {
		if err := r.cache.Save(); err != nil {
			slog.Warn("Asset cache not saved", "error", err)
		}
	}

	report.FinishedAt = time.Now()
	return report, nil
}

// prepareCache loads the asset cache from disk, rebuilding it from the
// CDN inventory when the file is missing or unreadable.
func (r *Runner) prepareCache(ctx context.Context) error {
	if r.cache.Load() {
		slog.Debug("Asset cache loaded", "entries", r.cache.Len())
		return nil
	}

	slog.Info("Rebuilding asset cache from CDN")
	entries, err := r.cdn.List(ctx)
	if err != nil {
		return fmt.Errorf("rebuild asset cache: %w", err)
	}
	r.cache.Replace(entries)
	slog.Info("Asset cache rebuilt", "entries", len(entries))
	return nil
}

// resolveGalleries rewrites every gallery URL to its re-hosted
// counterpart. Failed assets are dropped from the gallery; the failure
// is carried on the report instead.
func (r *Runner) resolveGalleries(ctx context.Context, listings []listing.Listing) {
	for i := range listings {
		resolved := listings[i].Gallery[:0]
		for _, sourceURL := range listings[i].Gallery {
			if hosted, ok := r.resolver.Resolve(ctx, listings[i].Slug, sourceURL); ok {
				resolved = append(resolved, hosted)
			}
		}
		if len(resolved) == 0 {
			resolved = nil
		}
		listings[i].Gallery = resolved
	}
}
