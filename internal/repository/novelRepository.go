package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"novelhub/internal/models"
)

// ErrNotFound is returned by the read operations on a cache miss.
var ErrNotFound = errors.New("not found in cache")

// NovelRepo is the persistence facade over the novels/chapters schema. All
// writes are idempotent upserts keyed by natural keys, safe under concurrent
// unordered application; no transaction spans more than one statement group.
type NovelRepo struct {
	db *gorm.DB
}

func NewNovelRepo(db *gorm.DB) *NovelRepo {
	return &NovelRepo{db: db}
}

// ReadListingPage returns cached novels as catalog listings, most recently
// synced first.
func (r *NovelRepo) ReadListingPage(ctx context.Context, offset, limit int) ([]models.Listing, error) {
	var rows []models.Novel
	if err := r.db.WithContext(ctx).
		Order("synced_at desc").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read listing page: %w", err)
	}

	listings := make([]models.Listing, 0, len(rows))
	for _, n := range rows {
		listings = append(listings, n.ToListing())
	}
	return listings, nil
}

// ReadDetail loads a novel and its chapter index by upstream identifier.
func (r *NovelRepo) ReadDetail(ctx context.Context, externalID string) (*models.Novel, error) {
	var n models.Novel
	err := r.db.WithContext(ctx).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Order("chapter_number asc")
		}).
		Where("source_id = ?", externalID).
		First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read detail: %w", err)
	}
	return &n, nil
}

// ReadChapterContent returns a chapter row by its retrieval key. A row with
// NULL content is still a miss for the caller's purposes, but the row is
// returned so the title survives.
func (r *NovelRepo) ReadChapterContent(ctx context.Context, sourceURL string) (*models.Chapter, error) {
	var c models.Chapter
	err := r.db.WithContext(ctx).Where("url = ?", sourceURL).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read chapter content: %w", err)
	}
	return &c, nil
}

// UpsertListings projects a listing batch into the novels table. On conflict
// with an existing source_id the mutable display fields are overwritten; a
// row is never duplicated, so applying the same batch twice is a no-op for
// the row count. Invalid listings are skipped, never stored.
func (r *NovelRepo) UpsertListings(ctx context.Context, listings []models.Listing) error {
	rows := make([]models.Novel, 0, len(listings))
	now := time.Now()
	for _, l := range listings {
		if !l.Valid() {
			continue
		}
		rows = append(rows, listingRow(l, now))
	}
	if len(rows) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "source_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "author", "cover_url", "rating", "synced_at",
			}),
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("upsert listings: %w", err)
	}
	return nil
}

// UpsertDetail merges a freshly fetched detail into the novels table, keyed
// by externalID, and returns the stored row so chapter writes can attach to
// its id.
func (r *NovelRepo) UpsertDetail(ctx context.Context, externalID string, detail *models.Detail) (*models.Novel, error) {
	l := detail.Listing
	l.ExternalID = externalID
	if !l.Valid() {
		return nil, fmt.Errorf("upsert detail: refusing invalid record for %q", externalID)
	}

	now := time.Now()
	row := listingRow(detail.Listing, now)
	row.SourceID = externalID
	row.Description = detail.Description
	row.TotalChapters = len(detail.Chapters)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "source_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "author", "cover_url", "rating",
				"description", "total_chapters", "synced_at",
			}),
		}).
		Create(&row).Error
	if err != nil && !isUniqueViolation(err) {
		return nil, fmt.Errorf("upsert detail: %w", err)
	}

	// Re-read to get the canonical row id: on conflict the returning id is
	// not populated by every driver path, and a concurrent request may have
	// won the insert race.
	var stored models.Novel
	if err := r.db.WithContext(ctx).Where("source_id = ?", externalID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("upsert detail: reload: %w", err)
	}
	return &stored, nil
}

// AppendChaptersIfAbsent inserts index entries keyed by (novel, url). On
// conflict the existing row is left completely untouched: a re-sync of the
// index must never discard chapter text that was already fetched.
func (r *NovelRepo) AppendChaptersIfAbsent(ctx context.Context, novelID uuid.UUID, refs []models.ChapterRef) error {
	if len(refs) == 0 {
		return nil
	}
	rows := make([]models.Chapter, 0, len(refs))
	for _, ref := range refs {
		if ref.URL == "" {
			continue
		}
		rows = append(rows, models.Chapter{
			NovelID:   novelID,
			Ordinal:   ref.Ordinal,
			Title:     ref.Title,
			SourceURL: ref.URL,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "url"}},
			DoNothing: true,
		}).
		Create(&rows).Error
	if err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("append chapters: %w", err)
	}
	return nil
}

// WriteChapterContent fills in a chapter body by retrieval key. Only the
// content column mutates; ordinals and titles set at index time stay fixed.
func (r *NovelRepo) WriteChapterContent(ctx context.Context, sourceURL, content string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Chapter{}).
		Where("url = ?", sourceURL).
		Updates(map[string]any{"content": content, "synced_at": time.Now()}).Error
	if err != nil {
		return fmt.Errorf("write chapter content: %w", err)
	}
	return nil
}

func listingRow(l models.Listing, now time.Time) models.Novel {
	n := models.Novel{
		SourceID: l.ExternalID,
		Source:   l.Source,
		Title:    l.Title,
		Rating:   l.RatingText,
		SyncedAt: now,
	}
	if l.Author != "" {
		author := l.Author
		n.Author = &author
	}
	if l.CoverURL != "" {
		cover := l.CoverURL
		n.CoverURL = &cover
	}
	return n
}

// isUniqueViolation detects a Postgres duplicate-key error. Concurrent
// identical requests may race their write-backs; losing the race is fine
// because both sides derive the same row from the same upstream truth.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
