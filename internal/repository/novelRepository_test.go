package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novelhub/internal/models"
)

// The validity guard must reject the record before any statement is built;
// a nil gorm handle proves no database work happens for invalid input.

func TestUpsertDetailRejectsEmptyTitle(t *testing.T) {
	repo := NewNovelRepo(nil)

	_, err := repo.UpsertDetail(context.Background(), "/fiction/1/x", &models.Detail{
		Listing:  models.Listing{ExternalID: "/fiction/1/x", Title: "   "},
		Chapters: []models.ChapterRef{{Ordinal: 1, Title: "Ch 1", URL: "/fiction/1/x/chapter/1"}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid record")
}

func TestUpsertDetailRejectsEmptyIdentifier(t *testing.T) {
	repo := NewNovelRepo(nil)

	_, err := repo.UpsertDetail(context.Background(), "  ", &models.Detail{
		Listing: models.Listing{Title: "Named"},
	})

	require.Error(t, err)
}
