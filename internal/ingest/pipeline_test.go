package ingest

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/bookfinder-io/bookfinder/internal/domain"
)

// --- Mocks ---

type mockInserter struct {
	books      []domain.Book
	duplicates int
	err        error
}

func (m *mockInserter) InsertBatch(_ context.Context, books []domain.Book) (int, int, error) {
	if m.err != nil {
		return 0, 0, m.err
	}
	m.books = append(m.books, books...)
	return len(books) - m.duplicates, m.duplicates, nil
}

// --- Tests ---

func TestPipeline_Run(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "books.csv",
		"isbn,title,description\n"+
			"9780439708180,Wizard School,A young wizard discovers a school of magic.\n"+
			"978-0-7432-7356-5,Gatsby Redux,A jazz-age tragedy of wealth and longing retold.\n"+
			"badisbn,Broken Row,whatever\n")

	store := &mockInserter{}
	p := NewPipeline(store, dir, zap.NewNop())

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Files != 1 || report.RowsRead != 3 {
		t.Errorf("report = %+v, want 1 file / 3 rows", report)
	}
	if report.Cleaned != 2 || report.Skipped != 1 {
		t.Errorf("report = %+v, want 2 cleaned / 1 skipped", report)
	}
	if report.Inserted != 2 {
		t.Errorf("inserted = %d, want 2", report.Inserted)
	}
	if len(store.books) != 2 {
		t.Fatalf("stored %d books, want 2", len(store.books))
	}
	if store.books[1].ISBN != "9780743273565" {
		t.Errorf("isbn not normalized before storage: %q", store.books[1].ISBN)
	}
}

func TestPipeline_EmptyDirIsNotAnError(t *testing.T) {
	store := &mockInserter{}
	p := NewPipeline(store, t.TempDir(), zap.NewNop())

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.RowsRead != 0 || len(store.books) != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
}

func TestPipeline_StoreErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "books.csv",
		"isbn,title\n9780439708180,Wizard School\n")

	storeErr := errors.New("disk full")
	p := NewPipeline(&mockInserter{err: storeErr}, dir, zap.NewNop())

	if _, err := p.Run(context.Background()); !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
}
