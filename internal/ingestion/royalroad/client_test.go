package royalroad

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novelhub/internal/ingestion"
	"novelhub/internal/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL})
}

func TestFetchDetail(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fiction/123/mol", r.URL.Path)
		w.Write([]byte(detailFixture))
	})

	detail, err := client.FetchDetail(context.Background(), "/fiction/123/mol")
	require.NoError(t, err)

	assert.Equal(t, "/fiction/123/mol", detail.Listing.ExternalID)
	assert.Equal(t, models.SourcePrimary, detail.Listing.Source)
	assert.Len(t, detail.Chapters, 2)
}

func TestFetchDetailTitlelessPageIsEmpty(t *testing.T) {
	// drifted markup: description and chapter rows survive, the h1 is gone
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
<div class="description">Still here.</div>
<table id="chapters"><tbody>
<tr><td><a href="/fiction/123/mol/chapter/1/one">Ch 1</a></td></tr>
</tbody></table>
</body></html>`))
	})

	_, err := client.FetchDetail(context.Background(), "/fiction/123/mol")

	assert.ErrorIs(t, err, ingestion.ErrUpstreamEmpty,
		"a record without a title must never reach the write-back path")
}

func TestFetchDetailServerError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.FetchDetail(context.Background(), "/fiction/123/mol")
	assert.ErrorIs(t, err, ingestion.ErrUpstreamUnavailable)
}
