// Package ingestion defines the capability contract every external novel
// source must implement. Each source fetches its own wire format (live HTML
// or a structured API) and maps it into the canonical models before returning.
package ingestion

import (
	"context"
	"errors"

	"novelhub/internal/models"
)

// ErrUpstreamUnavailable covers network errors, timeouts and non-success
// responses from an upstream.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// ErrUpstreamEmpty means the upstream answered but zero usable records came
// out of extraction. Kept distinct from ErrUpstreamUnavailable because it may
// indicate legitimate end-of-pagination rather than an outage; both trigger
// the next fallback tier.
var ErrUpstreamEmpty = errors.New("upstream returned no records")

// Source is implemented by each external data source.
type Source interface {
	Name() string

	// FetchListing returns one catalog page for a category code. Unknown
	// category codes fall back to the source's unfiltered listing.
	FetchListing(ctx context.Context, page int, category string) ([]models.Listing, error)

	// FetchDetail returns a novel's metadata and chapter index.
	FetchDetail(ctx context.Context, externalID string) (*models.Detail, error)

	// FetchChapter returns a chapter body by its retrieval key.
	FetchChapter(ctx context.Context, sourceURL string) (*models.ChapterText, error)
}
