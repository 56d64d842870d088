package royalroad

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"novelhub/internal/models"
)

// Extraction is split from fetching so these stay pure functions over a byte
// slice: no network, no clock, trivially testable against fixture HTML.

// ExtractListings pulls catalog entries out of a listing page. Candidates
// missing a title or link are dropped silently; one mangled card must not
// fail the batch.
func ExtractListings(html []byte) ([]models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	var listings []models.Listing
	doc.Find(".fiction-list-item").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find(".fiction-title").Text())
		urlPath, _ := s.Find(".fiction-title a").Attr("href")
		image, _ := s.Find("img").First().Attr("src")
		author := strings.TrimSpace(s.Find(".author").Text())
		author = strings.TrimPrefix(author, "by ")
		if author == "" {
			author = models.UnknownAuthor
		}
		rating, _ := s.Find(".star").First().Attr("title")

		l := models.Listing{
			ExternalID: strings.TrimSpace(urlPath),
			Title:      title,
			CoverURL:   models.SecureURL(image),
			Author:     author,
			RatingText: models.TruncateRating(rating),
			Summary:    "Tap to read...",
			Source:     models.SourcePrimary,
		}
		if !l.Valid() {
			return
		}
		listings = append(listings, l)
	})

	return listings, nil
}

// ExtractDetail pulls the description and the chapter index from a fiction
// page. Chapter ordinals are the 1-based encounter order in the document;
// upstream chapter numbers are ignored.
func ExtractDetail(html []byte) (*models.Detail, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	detail := &models.Detail{
		Description: strings.TrimSpace(doc.Find(".description").Text()),
	}
	detail.Listing.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	detail.Listing.Author = strings.TrimPrefix(strings.TrimSpace(doc.Find(".fic-title h4 a").First().Text()), "by ")
	if detail.Listing.Author == "" {
		detail.Listing.Author = models.UnknownAuthor
	}
	if cover, ok := doc.Find(".fic-header img").First().Attr("src"); ok {
		detail.Listing.CoverURL = models.SecureURL(cover)
	}
	detail.Listing.RatingText = models.DefaultRating

	ordinal := 0
	doc.Find("#chapters tbody tr").Each(func(_ int, s *goquery.Selection) {
		link, ok := s.Find("a").First().Attr("href")
		if !ok || strings.TrimSpace(link) == "" {
			return
		}
		ordinal++
		detail.Chapters = append(detail.Chapters, models.ChapterRef{
			Ordinal: ordinal,
			Title:   strings.TrimSpace(s.Find("a").First().Text()),
			URL:     strings.TrimSpace(link),
		})
	})

	return detail, nil
}

var blankLines = regexp.MustCompile(`\n\s*\n`)

// ExtractChapter pulls the title and body out of a chapter page. Runs of
// blank lines collapse to exactly one blank line; upstream formatting is
// wildly inconsistent between authors.
func ExtractChapter(html []byte) (*models.ChapterText, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(doc.Find(".chapter-content").Text())
	content = blankLines.ReplaceAllString(content, "\n\n")

	return &models.ChapterText{
		Title:   strings.TrimSpace(doc.Find("h1").First().Text()),
		Content: content,
	}, nil
}
