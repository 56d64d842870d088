// Package googlebooks implements the secondary source adapter against the
// Google Books volumes API. It is fallback-only: the API is stable but has no
// chapter text, so details synthesize a single pseudo-chapter.
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"novelhub/internal/ingestion"
	"novelhub/internal/models"
)

const defaultBaseURL = "https://www.googleapis.com/books/v1"

// maxResults per listing page. Part of the fixed external query contract
// (startIndex/maxResults paging), do not rename.
const maxResults = 20

// PseudoChapterTitle names the synthetic single chapter attached to
// secondary-source details.
const PseudoChapterTitle = "Read the full book"

// subjects maps category codes to Google Books subject tokens. Unknown codes
// fall back to the general fiction subject rather than erroring.
var subjects = map[string]string{
	"all":       "fantasy+litrpg",
	"action":    "action",
	"adventure": "adventure",
	"comedy":    "humor",
	"drama":     "drama",
	"fantasy":   "fantasy",
	"horror":    "horror",
	"mystery":   "mystery",
	"romance":   "romance",
	"scifi":     "science fiction",
	"litrpg":    "litrpg",
}

// Client calls the Google Books volumes API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Google Books client. baseURL is overridable for tests.
func NewClient(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: base,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Name() string { return string(models.SourceSecondary) }

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ingestion.ErrUpstreamUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("googlebooks: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ingestion.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", ingestion.ErrUpstreamUnavailable, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ingestion.ErrUpstreamUnavailable, err)
	}
	return nil
}

// FetchListing queries volumes by subject. Paging uses the API's
// startIndex/maxResults parameters.
func (c *Client) FetchListing(ctx context.Context, page int, category string) ([]models.Listing, error) {
	subject, ok := subjects[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		subject = subjects["all"]
	}
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	q.Set("q", "subject:"+subject)
	q.Set("orderBy", "newest")
	q.Set("maxResults", strconv.Itoa(maxResults))
	q.Set("startIndex", strconv.Itoa((page-1)*maxResults))
	q.Set("langRestrict", "en")

	var resp volumesResponse
	if err := c.getJSON(ctx, c.baseURL+"/volumes?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	listings := mapVolumes(resp.Items)
	if len(listings) == 0 {
		return nil, ingestion.ErrUpstreamEmpty
	}
	return listings, nil
}

// Search forwards a free-text query. No ranking of our own; the API's order
// is returned as-is.
func (c *Client) Search(ctx context.Context, query string) ([]models.Listing, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("maxResults", "15")
	q.Set("langRestrict", "en")

	var resp volumesResponse
	if err := c.getJSON(ctx, c.baseURL+"/volumes?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	listings := mapVolumes(resp.Items)
	if len(listings) == 0 {
		return nil, ingestion.ErrUpstreamEmpty
	}
	return listings, nil
}

// FetchDetail looks a volume up by id. The API never exposes a chapter
// index, so the detail carries exactly one pseudo-chapter pointing back at
// the volume id; its content is the description.
func (c *Client) FetchDetail(ctx context.Context, externalID string) (*models.Detail, error) {
	var v volume
	if err := c.getJSON(ctx, c.baseURL+"/volumes/"+url.PathEscape(externalID), &v); err != nil {
		return nil, err
	}

	l := mapVolume(v)
	if !l.Valid() {
		return nil, ingestion.ErrUpstreamEmpty
	}

	return &models.Detail{
		Listing:     l,
		Description: stripHTML(v.VolumeInfo.Description),
		Chapters: []models.ChapterRef{
			{Ordinal: 1, Title: PseudoChapterTitle, URL: v.ID},
		},
	}, nil
}

// FetchChapter serves the pseudo-chapter: the volume description stands in
// for the text, since the API carries no chapter bodies.
func (c *Client) FetchChapter(ctx context.Context, sourceURL string) (*models.ChapterText, error) {
	var v volume
	if err := c.getJSON(ctx, c.baseURL+"/volumes/"+url.PathEscape(sourceURL), &v); err != nil {
		return nil, err
	}

	content := stripHTML(v.VolumeInfo.Description)
	if content == "" {
		content = "The full text of this book is not available for direct reading due to copyright."
	}
	return &models.ChapterText{Title: "Overview", Content: content}, nil
}

// mapVolumes converts API items 1:1 into canonical listings, dropping
// entries that fail validation.
func mapVolumes(items []volume) []models.Listing {
	listings := make([]models.Listing, 0, len(items))
	for _, item := range items {
		l := mapVolume(item)
		if !l.Valid() {
			continue
		}
		listings = append(listings, l)
	}
	return listings
}

func mapVolume(item volume) models.Listing {
	info := item.VolumeInfo

	author := models.UnknownAuthor
	if len(info.Authors) > 0 && info.Authors[0] != "" {
		author = info.Authors[0]
	}

	rating := models.DefaultRating
	if info.AverageRating > 0 {
		rating = models.TruncateRating(strconv.FormatFloat(info.AverageRating, 'f', -1, 64))
	}

	return models.Listing{
		ExternalID: item.ID,
		Title:      info.Title,
		CoverURL:   models.SecureURL(info.ImageLinks.Thumbnail),
		Author:     author,
		RatingText: rating,
		Summary:    summaryOf(info.Description),
		Source:     models.SourceSecondary,
	}
}

func summaryOf(description string) string {
	if description == "" {
		return "No description available."
	}
	return stripHTML(description)
}

// stripHTML removes markup from description text; the API interleaves <p>
// and <br> tags in volume descriptions.
func stripHTML(s string) string {
	out := make([]rune, 0, len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			out = append(out, r)
		}
	}
	return strings.TrimSpace(string(out))
}
