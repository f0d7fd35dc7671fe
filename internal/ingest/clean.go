package ingest

import (
	"html"
	"regexp"
	"strings"

	"github.com/bookfinder-io/bookfinder/internal/domain"
)

// Cleaning bounds.
const (
	minDescriptionLen = 20
	maxDescriptionLen = 5000
	maxTitleLen       = 500
	maxGenres         = 5
)

// invalidDescriptions are placeholder phrases that disqualify a description.
var invalidDescriptions = []string{
	"description not available",
	"no description",
	"coming soon",
	"n/a",
	"tbd",
	"[no description]",
}

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	isoDateRegex    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	bareYearRegex   = regexp.MustCompile(`^\d{4}$`)
	embeddedYearRe  = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	digitsRegex     = regexp.MustCompile(`^\d+$`)
)

// CleanText strips HTML tags, decodes entities, and collapses whitespace.
// Returns "" when nothing readable remains.
func CleanText(text string) string {
	text = htmlTagRegex.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

// CleanDescription cleans and validates a description. Placeholder
// phrases and descriptions under 20 characters are rejected; overly long
// ones are truncated.
func CleanDescription(description string) string {
	cleaned := CleanText(description)
	if cleaned == "" {
		return ""
	}

	lower := strings.ToLower(cleaned)
	for _, invalid := range invalidDescriptions {
		if strings.Contains(lower, invalid) {
			return ""
		}
	}

	if len(cleaned) < minDescriptionLen {
		return ""
	}
	if r := []rune(cleaned); len(r) > maxDescriptionLen {
		cleaned = string(r[:maxDescriptionLen])
	}
	return cleaned
}

// NormalizeISBN strips separators and validates the 10/13 shape
// (a trailing X is allowed on ISBN-10). Returns "" when invalid.
func NormalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.ToUpper(strings.TrimSpace(isbn))

	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	if digitsRegex.MatchString(isbn) {
		return isbn
	}
	if len(isbn) == 10 && strings.HasSuffix(isbn, "X") && digitsRegex.MatchString(isbn[:9]) {
		return isbn
	}
	return ""
}

// NormalizeDate normalizes to YYYY-MM-DD; a bare or embedded year maps to
// January 1st. Returns "" when no plausible date is found.
func NormalizeDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return ""
	}
	if isoDateRegex.MatchString(date) {
		return date
	}
	if bareYearRegex.MatchString(date) {
		return date + "-01-01"
	}
	if m := embeddedYearRe.FindString(date); m != "" {
		return m + "-01-01"
	}
	return ""
}

// cleanGenres keeps at most maxGenres comma-separated entries, trimmed
// and rejoined. Empty entries are dropped.
func cleanGenres(raw string) string {
	cleaned := CleanText(raw)
	if cleaned == "" {
		return ""
	}
	var genres []string
	for _, g := range strings.Split(cleaned, ",") {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
		if len(genres) == maxGenres {
			break
		}
	}
	return strings.Join(genres, ", ")
}

// CleanBook validates and normalizes one raw row. ISBN and title are
// required; everything else degrades to empty. Returns ok=false when the
// record is unusable.
func CleanBook(raw RawBook) (domain.Book, bool) {
	isbn := NormalizeISBN(raw.ISBN)
	if isbn == "" {
		return domain.Book{}, false
	}

	title := CleanText(raw.Title)
	if title == "" {
		return domain.Book{}, false
	}
	if r := []rune(title); len(r) > maxTitleLen {
		title = string(r[:maxTitleLen])
	}

	return domain.Book{
		ISBN:        isbn,
		Title:       title,
		Description: CleanDescription(raw.Description),
		Authors:     CleanText(raw.Authors),
		Genres:      cleanGenres(raw.Genres),
		PublishDate: NormalizeDate(raw.PublishDate),
	}, true
}
