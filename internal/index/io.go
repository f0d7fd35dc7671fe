package index

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bookfinder-io/bookfinder/internal/domain"
	"github.com/bookfinder-io/bookfinder/internal/vectorizer/tfidf"
)

// Cache file names under the index directory. The pair is one logical
// unit: vectors on one side, records plus the fitted keyword space on the
// other. Loading anything less than a consistent pair fails closed.
const (
	vectorsFileName = "vectors.gob"
	recordsFileName = "records.gob"
)

type vectorsFile struct {
	Precision  string
	Dimensions int
	Half       [][]uint16  // set when Precision == float16
	Full       [][]float32 // set when Precision == float32
	Keywords   []map[string]float64
}

type recordsFile struct {
	Books      []domain.Book
	Model      string
	Dimensions int
	Space      tfidf.Snapshot
}

// Save persists the corpus to dir as the two-file cache. Each file is
// written to a temp file and renamed into place.
func Save(c *Corpus, dir, precision string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	vf := vectorsFile{
		Precision:  precision,
		Dimensions: c.Dimensions(),
		Keywords:   c.keywords,
	}
	if precision == PrecisionFloat16 {
		vf.Half = make([][]uint16, len(c.embeddings))
		for i, emb := range c.embeddings {
			vf.Half[i] = vectorToHalf(emb)
		}
	} else {
		vf.Full = c.embeddings
	}

	rf := recordsFile{
		Books:      c.books,
		Model:      c.model,
		Dimensions: c.Dimensions(),
		Space:      c.space.Snapshot(),
	}

	if err := writeGob(filepath.Join(dir, vectorsFileName), vf); err != nil {
		return fmt.Errorf("save vectors: %w", err)
	}
	if err := writeGob(filepath.Join(dir, recordsFileName), rf); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	return nil
}

// Load restores a corpus from the two-file cache in dir. A missing,
// partial, or mismatched pair returns an error and no corpus; callers
// leave the holder empty in that case.
func Load(dir string) (*Corpus, error) {
	var vf vectorsFile
	if err := readGob(filepath.Join(dir, vectorsFileName), &vf); err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}

	var rf recordsFile
	if err := readGob(filepath.Join(dir, recordsFileName), &rf); err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	if vf.Dimensions != rf.Dimensions {
		return nil, fmt.Errorf(
			"%w: vector file has %d dimensions, record file %d",
			domain.ErrInconsistentIndex, vf.Dimensions, rf.Dimensions,
		)
	}

	var embeddings [][]float32
	switch {
	case vf.Half != nil:
		embeddings = make([][]float32, len(vf.Half))
		for i, h := range vf.Half {
			embeddings[i] = vectorFromHalf(h)
		}
	case vf.Full != nil:
		embeddings = vf.Full
	default:
		return nil, fmt.Errorf("%w: vector file holds no embeddings", domain.ErrInconsistentIndex)
	}

	space := tfidf.Restore(rf.Space)

	corpus, err := NewCorpus(rf.Books, embeddings, vf.Keywords, space, rf.Model, rf.Dimensions)
	if err != nil {
		return nil, err
	}
	return corpus, nil
}

func writeGob(path string, v any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func readGob(path string, v any) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
