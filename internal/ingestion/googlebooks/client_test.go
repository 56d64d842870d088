package googlebooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novelhub/internal/ingestion"
	"novelhub/internal/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL, 0)
}

func TestFetchListingMapsVolumes(t *testing.T) {
	var gotQuery map[string][]string

	srv, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]any{
			"totalItems": 2,
			"items": []map[string]any{
				{
					"id": "abc123",
					"volumeInfo": map[string]any{
						"title":         "Dungeon Crawler Carl",
						"authors":       []string{"Matt Dinniman", "Someone Else"},
						"averageRating": 4.6789,
						"imageLinks":    map[string]any{"thumbnail": "http://books.google.com/cover.jpg"},
						"description":   "<p>The apocalypse<br>begins.</p>",
					},
				},
				{
					// no title: must be dropped, not errored
					"id":         "def456",
					"volumeInfo": map[string]any{"authors": []string{"Nobody"}},
				},
			},
		})
	})
	_ = srv

	listings, err := client.FetchListing(context.Background(), 2, "fantasy")
	require.NoError(t, err)
	require.Len(t, listings, 1)

	// fixed external paging contract
	assert.Equal(t, "subject:fantasy", gotQuery["q"][0])
	assert.Equal(t, "20", gotQuery["maxResults"][0])
	assert.Equal(t, "20", gotQuery["startIndex"][0], "page 2 starts at index 20")
	assert.Equal(t, "en", gotQuery["langRestrict"][0])

	l := listings[0]
	assert.Equal(t, "abc123", l.ExternalID)
	assert.Equal(t, "Matt Dinniman", l.Author, "first author wins")
	assert.Equal(t, "4.6", l.RatingText)
	assert.Equal(t, "https://books.google.com/cover.jpg", l.CoverURL)
	assert.Equal(t, "The apocalypsebegins.", l.Summary, "tags stripped from preview text")
	assert.Equal(t, models.SourceSecondary, l.Source)
}

func TestFetchListingUnknownCategoryFallsBack(t *testing.T) {
	var q1, q2 string
	srv, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if q1 == "" {
			q1 = r.URL.Query().Get("q")
		} else {
			q2 = r.URL.Query().Get("q")
		}
		json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{
			{"id": "x", "volumeInfo": map[string]any{"title": "T"}},
		}})
	})
	_ = srv

	_, err := client.FetchListing(context.Background(), 1, "all")
	require.NoError(t, err)
	_, err = client.FetchListing(context.Background(), 1, "unknown-code")
	require.NoError(t, err)

	assert.Equal(t, q1, q2, "unknown categories query the same subject as all")
}

func TestFetchListingEmpty(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"totalItems": 0})
	})

	_, err := client.FetchListing(context.Background(), 1, "all")
	assert.ErrorIs(t, err, ingestion.ErrUpstreamEmpty)
}

func TestFetchListingServerError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.FetchListing(context.Background(), 1, "all")
	assert.ErrorIs(t, err, ingestion.ErrUpstreamUnavailable)
}

func TestFetchDetailSynthesizesPseudoChapter(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes/abc123", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"id": "abc123",
			"volumeInfo": map[string]any{
				"title":       "Dungeon Crawler Carl",
				"description": "<b>Carl</b> survives.",
			},
		})
	})

	detail, err := client.FetchDetail(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, "Carl survives.", detail.Description)
	require.Len(t, detail.Chapters, 1, "secondary details carry exactly one pseudo-chapter")
	assert.Equal(t, 1, detail.Chapters[0].Ordinal)
	assert.Equal(t, PseudoChapterTitle, detail.Chapters[0].Title)
	assert.Equal(t, "abc123", detail.Chapters[0].URL)
}

func TestFetchChapterUsesDescription(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":         "abc123",
			"volumeInfo": map[string]any{"title": "T", "description": "Preview text."},
		})
	})

	text, err := client.FetchChapter(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Overview", text.Title)
	assert.Equal(t, "Preview text.", text.Content)
}

func TestFetchChapterNoDescription(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":         "abc123",
			"volumeInfo": map[string]any{"title": "T"},
		})
	})

	text, err := client.FetchChapter(context.Background(), "abc123")
	require.NoError(t, err)
	assert.NotEmpty(t, text.Content, "copyright notice stands in for missing preview")
}
