package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"placesync/app/assets"
	"placesync/app/listing"
	"placesync/app/site"
)

// Report is the single result value threaded through a run. All
// counters live here, accumulated by the runner and returned to the
// caller; nothing is tracked in ambient state.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Fetched   int
	Listings  int
	Files     site.WriteCounts
	Redirects int

	Warnings      []listing.Warning
	AssetStats    assets.Stats
	AssetFailures []assets.Failure
}

func NewReport() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
}

func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary renders the end-of-run console report, listing every failed
// asset with its reason.
func (r *Report) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Sync complete (run %s) in %s\n", r.RunID, r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "  records fetched:   %d\n", r.Fetched)
	fmt.Fprintf(&b, "  listings written:  %d\n", r.Listings)
	fmt.Fprintf(&b, "  canonical pages:   %d\n", r.Files.Canonical)
	fmt.Fprintf(&b, "  taxonomy copies:   %d\n", r.Files.Duplicates)
	fmt.Fprintf(&b, "  index pages:       %d\n", r.Files.Indexes)
	fmt.Fprintf(&b, "  redirects:         %d\n", r.Redirects)
	fmt.Fprintf(&b, "  field warnings:    %d\n", len(r.Warnings))
	fmt.Fprintf(&b, "  assets: %d cached, %d found on CDN, %d uploaded, %d failed\n",
		r.AssetStats.CacheHits, r.AssetStats.CDNHits, r.AssetStats.Uploads, r.AssetStats.Failed)

	if len(r.AssetFailures) > 0 {
		b.WriteString("Failed assets:\n")
		for _, failure := range r.AssetFailures {
			fmt.Fprintf(&b, "  %s %s: %s\n", failure.Slug, failure.URL, failure.Reason)
		}
	}

	return b.String()
}
