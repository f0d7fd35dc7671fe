// Package ingest reads raw book rows from CSV files, cleans them, and
// loads them into the catalog store.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RawBook is an uncleaned row assembled from whichever columns a CSV
// happens to carry.
type RawBook struct {
	ISBN        string
	Title       string
	Authors     string
	Description string
	Genres      string
	PublishDate string
}

// Column priority lists, first match wins. Covers both the simple export
// schema and the enriched OpenLibrary/OpenAlex master files.
var (
	isbnColumns        = []string{"isbn", "isbn13", "isbn10"}
	titleColumns       = []string{"title", "book_title", "book_name"}
	authorColumns      = []string{"author/editor", "ol_authors", "authors", "author"}
	descriptionColumns = []string{"final_description", "ol_description", "oa_abstract", "description"}
	genreColumns       = []string{"final_subjects", "ol_subjects", "subjects", "genres", "genre", "categories"}
	dateColumns        = []string{"year", "ol_publish_date", "oa_year", "publish_date", "published"}
)

// ReadFile reads one CSV, guessing which columns hold which fields from
// the header row (case-insensitive).
func ReadFile(path string) ([]RawBook, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows happen in hand-edited exports

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", filepath.Base(path), err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows of %s: %w", filepath.Base(path), err)
	}

	books := make([]RawBook, 0, len(rows))
	for _, row := range rows {
		books = append(books, RawBook{
			ISBN:        pick(row, columns, isbnColumns),
			Title:       pick(row, columns, titleColumns),
			Authors:     pick(row, columns, authorColumns),
			Description: pick(row, columns, descriptionColumns),
			Genres:      pick(row, columns, genreColumns),
			PublishDate: pick(row, columns, dateColumns),
		})
	}
	return books, nil
}

// ScanDir reads every top-level *.csv in dir, in filename order.
func ScanDir(dir string) (books []RawBook, files []string, err error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(matches)

	for _, path := range matches {
		rows, readErr := ReadFile(path)
		if readErr != nil {
			return nil, nil, readErr
		}
		books = append(books, rows...)
		files = append(files, path)
	}
	return books, files, nil
}

// pick returns the first non-empty value from the row for the given
// column priority list. Spreadsheet null spellings count as empty.
func pick(row []string, columns map[string]int, priority []string) string {
	for _, name := range priority {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			continue
		}
		val := strings.TrimSpace(row[i])
		switch val {
		case "", "nan", "NaN", "None", "null", "NULL":
			continue
		}
		return val
	}
	return ""
}
