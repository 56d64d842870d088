// Package resolver implements the tiered resolution engine. For each request
// class it walks an explicit ordered list of tiers (cache, primary source,
// secondary source) and falls through on failure or emptiness; successful
// live fetches are written back to the cache without blocking the caller.
package resolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"novelhub/internal/ingestion"
	"novelhub/internal/models"
)

// PageSize is the catalog page size used when serving listings from the
// cache tier.
const PageSize = 20

// writeBackTimeout bounds the detached persistence calls spawned after a
// live fetch.
const writeBackTimeout = 10 * time.Second

// Store is the persistence facade the resolver consults and writes back to.
// Implemented by repository.NovelRepo.
type Store interface {
	ReadListingPage(ctx context.Context, offset, limit int) ([]models.Listing, error)
	ReadDetail(ctx context.Context, externalID string) (*models.Novel, error)
	ReadChapterContent(ctx context.Context, sourceURL string) (*models.Chapter, error)
	UpsertListings(ctx context.Context, listings []models.Listing) error
	UpsertDetail(ctx context.Context, externalID string, detail *models.Detail) (*models.Novel, error)
	AppendChaptersIfAbsent(ctx context.Context, novelID uuid.UUID, refs []models.ChapterRef) error
	WriteChapterContent(ctx context.Context, sourceURL, content string) error
}

// Searcher forwards free-text queries; only the secondary source implements
// it (searching the scraped site is not worth the fragility).
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Listing, error)
}

// ListingCache is the optional hot cache for fallback listing batches.
// Implemented by cache.ListingCache; may be nil.
type ListingCache interface {
	Get(ctx context.Context, source models.SourceTag, page int, category string) ([]models.Listing, bool)
	Set(ctx context.Context, source models.SourceTag, page int, category string, listings []models.Listing)
}

// Resolver owns the fallback chains. It holds no per-request state; every
// resolution is a fresh traversal of its tiers.
type Resolver struct {
	store     Store
	primary   ingestion.Source
	secondary ingestion.Source
	searcher  Searcher
	hot       ListingCache
	logger    *slog.Logger
}

func New(store Store, primary, secondary ingestion.Source, searcher Searcher, hot ListingCache, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:     store,
		primary:   primary,
		secondary: secondary,
		searcher:  searcher,
		hot:       hot,
		logger:    logger,
	}
}

// listingTier is one step of the listing fallback chain. Keeping the chain
// as a slice makes the order inspectable and testable on its own instead of
// being buried in nested error handling.
type listingTier struct {
	name string
	run  func(ctx context.Context) ([]models.Listing, error)
}

// ResolveListing returns one catalog page. It is total: every failure
// degrades to the next tier and total exhaustion yields an empty page,
// because an empty catalog is always a valid, if unhelpful, response.
func (r *Resolver) ResolveListing(ctx context.Context, page int, category string) []models.Listing {
	if page < 1 {
		page = 1
	}

	tiers := []listingTier{
		{name: r.primary.Name(), run: func(ctx context.Context) ([]models.Listing, error) {
			batch, err := r.primary.FetchListing(ctx, page, category)
			if err != nil {
				return nil, err
			}
			r.goWriteBack(func(ctx context.Context) error {
				return r.store.UpsertListings(ctx, batch)
			})
			return batch, nil
		}},
		{name: r.secondary.Name(), run: func(ctx context.Context) ([]models.Listing, error) {
			if cached, ok := r.hotGet(ctx, page, category); ok {
				return cached, nil
			}
			batch, err := r.secondary.FetchListing(ctx, page, category)
			if err != nil {
				return nil, err
			}
			// not cache-of-record: goes into the hot cache, not the novels table
			r.hotSet(ctx, page, category, batch)
			return batch, nil
		}},
		{name: "cache", run: func(ctx context.Context) ([]models.Listing, error) {
			return r.store.ReadListingPage(ctx, (page-1)*PageSize, PageSize)
		}},
	}

	for _, tier := range tiers {
		batch, err := tier.run(ctx)
		if err != nil {
			r.logger.Warn("listing tier failed", "tier", tier.name, "page", page, "category", category, "error", err)
			continue
		}
		if len(batch) == 0 {
			continue
		}
		return batch
	}

	return []models.Listing{}
}

// ResolveDetail returns a novel's metadata and chapter index. Cache first: a
// stored detail with a known chapter index is served without any upstream
// call, so every successful live fetch permanently raises the hit rate for
// its identifier. Total: exhaustion yields a minimal empty detail.
func (r *Resolver) ResolveDetail(ctx context.Context, externalID string) *models.Detail {
	if stored, err := r.store.ReadDetail(ctx, externalID); err == nil && stored.TotalChapters > 0 {
		return storedDetail(stored)
	}

	if models.IsPrimaryID(externalID) {
		detail, err := r.primary.FetchDetail(ctx, externalID)
		if err == nil {
			r.goWriteBack(func(ctx context.Context) error {
				return r.persistDetail(ctx, externalID, detail)
			})
			return detail
		}
		r.logger.Warn("primary detail fetch failed", "id", externalID, "error", err)
	} else {
		detail, err := r.secondary.FetchDetail(ctx, externalID)
		if err == nil {
			return detail
		}
		r.logger.Warn("secondary detail fetch failed", "id", externalID, "error", err)
	}

	// exhausted: empty description, no chapters, never an error
	return &models.Detail{
		Listing: models.Listing{
			ExternalID: externalID,
			Author:     models.UnknownAuthor,
			RatingText: models.DefaultRating,
			Source:     sourceOf(externalID),
		},
	}
}

// ResolveChapter returns a chapter body, cache first. Unlike the other two
// request classes this one surfaces the real failure: the boundary layer
// decides how to present it (it substitutes a fixed human-readable
// placeholder so the reading surface never renders blank).
func (r *Resolver) ResolveChapter(ctx context.Context, sourceURL string) (*models.ChapterText, error) {
	if row, err := r.store.ReadChapterContent(ctx, sourceURL); err == nil && row.HasContent() {
		return &models.ChapterText{Title: row.Title, Content: *row.Content}, nil
	}

	src := r.primary
	if !models.IsPrimaryID(sourceURL) {
		src = r.secondary
	}

	text, err := src.FetchChapter(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	content := text.Content
	r.goWriteBack(func(ctx context.Context) error {
		return r.store.WriteChapterContent(ctx, sourceURL, content)
	})
	return text, nil
}

// Search forwards a query to the secondary source. Total: failures degrade
// to an empty result set.
func (r *Resolver) Search(ctx context.Context, query string) []models.Listing {
	if r.searcher == nil {
		return []models.Listing{}
	}
	batch, err := r.searcher.Search(ctx, query)
	if err != nil {
		r.logger.Warn("search failed", "query", query, "error", err)
		return []models.Listing{}
	}
	return batch
}

// persistDetail runs the two-step write-back for a primary detail fetch:
// upsert the novel row, then append any chapters not yet known. Appends
// never touch existing rows, so previously fetched chapter text survives
// every re-sync.
func (r *Resolver) persistDetail(ctx context.Context, externalID string, detail *models.Detail) error {
	stored, err := r.store.UpsertDetail(ctx, externalID, detail)
	if err != nil {
		return err
	}
	return r.store.AppendChaptersIfAbsent(ctx, stored.ID, detail.Chapters)
}

// goWriteBack runs a cache write detached from the request. The caller's
// context is deliberately not inherited: the caller may be gone before the
// write lands, and a half-applied write-back is safe because every write is
// an upsert. Failures are logged and swallowed; the cache is an
// optimization, not a source of truth.
func (r *Resolver) goWriteBack(write func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeBackTimeout)
		defer cancel()
		if err := write(ctx); err != nil {
			r.logger.Warn("cache write-back failed", "error", err)
		}
	}()
}

func (r *Resolver) hotGet(ctx context.Context, page int, category string) ([]models.Listing, bool) {
	if r.hot == nil {
		return nil, false
	}
	return r.hot.Get(ctx, models.SourceSecondary, page, category)
}

func (r *Resolver) hotSet(ctx context.Context, page int, category string, batch []models.Listing) {
	if r.hot == nil {
		return
	}
	r.hot.Set(ctx, models.SourceSecondary, page, category, batch)
}

func storedDetail(n *models.Novel) *models.Detail {
	refs := make([]models.ChapterRef, 0, len(n.Chapters))
	for _, c := range n.Chapters {
		refs = append(refs, models.ChapterRef{
			Ordinal: c.Ordinal,
			Title:   c.Title,
			URL:     c.SourceURL,
		})
	}
	return &models.Detail{
		Listing:     n.ToListing(),
		Description: n.Description,
		Chapters:    refs,
	}
}

func sourceOf(externalID string) models.SourceTag {
	if models.IsPrimaryID(externalID) {
		return models.SourcePrimary
	}
	return models.SourceSecondary
}
