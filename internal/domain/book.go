package domain

import "strings"

// Book is a cleaned catalog record keyed by ISBN.
// Records are immutable once indexed; a rebuild replaces the whole corpus.
type Book struct {
	ISBN        string `json:"isbn"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Authors     string `json:"authors,omitempty"`
	Genres      string `json:"genres,omitempty"`
	PublishDate string `json:"publish_date,omitempty"`
}

// HasDescription reports whether the book carries descriptive text.
// Books without it cannot be meaningfully embedded and are excluded
// from the searchable corpus.
func (b *Book) HasDescription() bool {
	return strings.TrimSpace(b.Description) != ""
}

// IndexText concatenates title, truncated description, and genres into
// the single blob that gets vectorized. truncation bounds the description
// in runes; <= 0 means no cap.
func (b *Book) IndexText(truncation int) string {
	parts := make([]string, 0, 3)
	if b.Title != "" {
		parts = append(parts, "Title: "+b.Title)
	}
	if b.Description != "" {
		desc := b.Description
		if truncation > 0 {
			if r := []rune(desc); len(r) > truncation {
				desc = string(r[:truncation])
			}
		}
		parts = append(parts, desc)
	}
	if b.Genres != "" {
		parts = append(parts, "Genres: "+b.Genres)
	}
	return strings.Join(parts, " ")
}

// MatchesGenres reports whether the book's genre text contains at least
// one of the given terms as a case-insensitive substring. An empty term
// list matches everything.
func (b *Book) MatchesGenres(terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	genres := strings.ToLower(b.Genres)
	for _, t := range terms {
		if t == "" {
			continue
		}
		if strings.Contains(genres, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
