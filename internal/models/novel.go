package models

import (
	"time"

	"github.com/google/uuid"
)

// Novel is a cached novel row. SourceID is the upstream identifier and the
// natural key for upserts: a novel is created on first detail request and
// updated in place on every later sync, never duplicated.
type Novel struct {
	ID            uuid.UUID `json:"novel_id" gorm:"column:novel_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	SourceID      string    `json:"source_id" gorm:"uniqueIndex;size:255;not null"`
	Source        SourceTag `json:"source" gorm:"size:20;not null;default:royalroad"`
	Title         string    `json:"title" gorm:"size:500;not null"`
	Author        *string   `json:"author,omitempty" gorm:"size:255"`
	CoverURL      *string   `json:"cover_url,omitempty" gorm:"type:text"`
	Rating        string    `json:"rating" gorm:"size:10"`
	Description   string    `json:"description" gorm:"type:text"`
	TotalChapters int       `json:"total_chapters" gorm:"default:0"`
	SyncedAt      time.Time `json:"synced_at" gorm:"autoUpdateTime"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`

	// association; rows cascade on novel delete (schema rule, not core logic)
	Chapters []Chapter `json:"chapters,omitempty" gorm:"foreignKey:NovelID;constraint:OnDelete:CASCADE"`
}

func (Novel) TableName() string {
	return "novels"
}

// ToListing projects a cached row back into the canonical catalog shape.
func (n Novel) ToListing() Listing {
	author := UnknownAuthor
	if n.Author != nil && *n.Author != "" {
		author = *n.Author
	}
	cover := ""
	if n.CoverURL != nil {
		cover = *n.CoverURL
	}
	rating := n.Rating
	if rating == "" {
		rating = DefaultRating
	}
	return Listing{
		ExternalID: n.SourceID,
		Title:      n.Title,
		CoverURL:   cover,
		Author:     author,
		RatingText: rating,
		Source:     n.Source,
	}
}

// Chapter is one entry of a novel's index. Ordinal is the 1-based position
// in document order assigned at extraction time; upstream chapter numbering
// is unreliable or absent, so it is never trusted. Content stays NULL until
// the body is fetched for the first time.
type Chapter struct {
	ID        uuid.UUID `json:"chapter_id" gorm:"column:chapter_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	NovelID   uuid.UUID `json:"novel_id" gorm:"type:uuid;not null;index"`
	Ordinal   int       `json:"ordinal" gorm:"column:chapter_number;not null"`
	Title     string    `json:"title" gorm:"size:500"`
	SourceURL string    `json:"url" gorm:"column:url;size:500;uniqueIndex"`
	Content   *string   `json:"content,omitempty" gorm:"type:text"`
	SyncedAt  time.Time `json:"synced_at" gorm:"autoUpdateTime"`
}

func (Chapter) TableName() string {
	return "chapters"
}

// HasContent reports whether the chapter body has already been fetched.
func (c Chapter) HasContent() bool {
	return c.Content != nil && *c.Content != ""
}

// ChapterRef is an index entry as adapters report it, before it is attached
// to a stored novel.
type ChapterRef struct {
	Ordinal int    `json:"ordinal"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}

// Detail bundles a novel's metadata with its chapter index, the unit
// returned by a detail resolution.
type Detail struct {
	Listing     Listing      `json:"listing"`
	Description string       `json:"description"`
	Chapters    []ChapterRef `json:"chapters"`
}

// ChapterText is a fetched chapter body.
type ChapterText struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
