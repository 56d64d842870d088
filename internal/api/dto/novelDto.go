package dto

import (
	"novelhub/internal/models"
)

// ChapterRefResponse is one chapter index entry in a details response.
type ChapterRefResponse struct {
	Ordinal int    `json:"ordinal"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}

// DetailResponse is the payload of GET /details.
type DetailResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Author      string               `json:"author"`
	Image       string               `json:"image,omitempty"`
	Rating      string               `json:"rating"`
	Source      models.SourceTag     `json:"source"`
	Description string               `json:"description"`
	Chapters    []ChapterRefResponse `json:"chapters"`
}

// ReadResponse is the payload of GET /read.
type ReadResponse struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Converters

func FromDetail(d models.Detail) DetailResponse {
	chapters := make([]ChapterRefResponse, 0, len(d.Chapters))
	for _, c := range d.Chapters {
		chapters = append(chapters, ChapterRefResponse(c))
	}
	return DetailResponse{
		ID:          d.Listing.ExternalID,
		Title:       d.Listing.Title,
		Author:      d.Listing.Author,
		Image:       d.Listing.CoverURL,
		Rating:      d.Listing.RatingText,
		Source:      d.Listing.Source,
		Description: d.Description,
		Chapters:    chapters,
	}
}

func FromChapterText(t models.ChapterText) ReadResponse {
	return ReadResponse{Title: t.Title, Content: t.Content}
}
