// Package royalroad implements the primary source adapter. Royal Road has no
// public API, so everything comes from live markup; the extraction rules in
// extract.go are deliberately defensive about drift.
package royalroad

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"novelhub/internal/ingestion"
	"novelhub/internal/models"
)

const defaultBaseURL = "https://www.royalroad.com"

// genreRoutes maps our fixed category codes onto Royal Road's own taxonomy.
// Unknown codes fall through to the unfiltered weekly-popular listing rather
// than erroring.
var genreRoutes = map[string]string{
	"action":    "action",
	"adventure": "adventure",
	"comedy":    "comedy",
	"drama":     "drama",
	"fantasy":   "fantasy",
	"horror":    "horror",
	"mystery":   "mystery",
	"romance":   "romance",
	"scifi":     "sci_fi",
	"litrpg":    "litrpg",
}

// Client fetches and extracts Royal Road pages.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Config carries the explicit settings a Client needs. There is no package
// level mutable state; everything is passed in at construction.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RatePerSec limits outbound requests to stay under the site's radar.
	RatePerSec float64
}

// NewClient creates a Royal Road client with a bounded per-call timeout.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 8 * time.Second
	}
	rps := cfg.RatePerSec
	if rps == 0 {
		rps = 2
	}
	return &Client{
		baseURL: base,
		limiter: rate.NewLimiter(rate.Limit(rps), 4),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) Name() string { return string(models.SourcePrimary) }

// browserHeaders presents a browser-like identity. This is a resilience
// tactic against bot blocking, not a security feature.
func browserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Referer", "https://www.google.com/")
}

// get performs one rate-limited GET and returns the body. Network errors,
// timeouts and non-2xx responses all collapse into ErrUpstreamUnavailable so
// the orchestrator treats them uniformly.
func (c *Client) get(ctx context.Context, pageURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ingestion.ErrUpstreamUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("royalroad: build request: %w", err)
	}
	browserHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ingestion.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ingestion.ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ingestion.ErrUpstreamUnavailable, err)
	}
	return body, nil
}

// FetchListing retrieves one catalog page. Zero extracted records is reported
// as ErrUpstreamEmpty: it usually means markup drift or end-of-pagination,
// and either way the next tier should take over.
func (c *Client) FetchListing(ctx context.Context, page int, category string) ([]models.Listing, error) {
	listURL := c.listingURL(page, category)

	body, err := c.get(ctx, listURL)
	if err != nil {
		return nil, err
	}

	listings, err := ExtractListings(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ingestion.ErrUpstreamUnavailable, err)
	}
	if len(listings) == 0 {
		return nil, ingestion.ErrUpstreamEmpty
	}
	return listings, nil
}

func (c *Client) listingURL(page int, category string) string {
	if page < 1 {
		page = 1
	}
	if token, ok := genreRoutes[strings.ToLower(strings.TrimSpace(category))]; ok {
		return fmt.Sprintf("%s/fictions/search?genre=%s&page=%d", c.baseURL, url.QueryEscape(token), page)
	}
	// "all" and anything unrecognized
	return fmt.Sprintf("%s/fictions/weekly-popular?page=%d", c.baseURL, page)
}

// FetchDetail retrieves a fiction page and extracts its description plus the
// chapter index in document order.
func (c *Client) FetchDetail(ctx context.Context, externalID string) (*models.Detail, error) {
	body, err := c.get(ctx, c.baseURL+externalID)
	if err != nil {
		return nil, err
	}

	detail, err := ExtractDetail(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ingestion.ErrUpstreamUnavailable, err)
	}
	detail.Listing.ExternalID = externalID
	detail.Listing.Source = models.SourcePrimary
	// drifted markup can yield a page with chapters but no usable title;
	// such a record must not reach the write-back path
	if !detail.Listing.Valid() {
		return nil, ingestion.ErrUpstreamEmpty
	}
	return detail, nil
}

// FetchChapter retrieves one chapter page and extracts its normalized body.
func (c *Client) FetchChapter(ctx context.Context, sourceURL string) (*models.ChapterText, error) {
	body, err := c.get(ctx, c.baseURL+sourceURL)
	if err != nil {
		return nil, err
	}

	text, err := ExtractChapter(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ingestion.ErrUpstreamUnavailable, err)
	}
	if text.Content == "" {
		return nil, ingestion.ErrUpstreamEmpty
	}
	return text, nil
}
