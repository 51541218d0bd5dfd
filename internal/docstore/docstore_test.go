package docstore

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// sampleDoc builds a document for tests.
func sampleDoc(path string, page int, text string) Document {
	return Document{
		ID:   DocumentID(path, page),
		Text: text,
		Metadata: Metadata{
			PageNumber: page,
			FileName:   filepath.Base(path),
			Title:      "Sample",
			Author:     "Unknown",
		},
	}
}

func Test_DocumentID_Deterministic(t *testing.T) {
	t.Parallel()
	a := DocumentID("reports/bert.pdf", 3)
	b := DocumentID("reports/bert.pdf", 3)
	c := DocumentID("reports/bert.pdf", 4)
	if a != b {
		t.Errorf("same inputs produced different ids: %s vs %s", a, b)
	}
	if a == c {
		t.Errorf("different pages produced the same id: %s", a)
	}
}

func Test_Store_AddReplacesById(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.Add(sampleDoc("a.pdf", 0, "first extraction"))
	s.Add(sampleDoc("a.pdf", 0, "second extraction"))

	if s.Len() != 1 {
		t.Fatalf("want 1 document after re-add, got %d", s.Len())
	}
	doc, ok := s.Get(DocumentID("a.pdf", 0))
	if !ok {
		t.Fatal("document missing")
	}
	if doc.Text != "second extraction" {
		t.Errorf("want replaced text, got %q", doc.Text)
	}
}

func Test_Store_AllSortedById(t *testing.T) {
	t.Parallel()
	s := NewStore()
	for page := range 5 {
		s.Add(sampleDoc("a.pdf", page, "text"))
	}

	docs := s.All()
	for i := 1; i < len(docs); i++ {
		if docs[i-1].ID >= docs[i].ID {
			t.Fatalf("documents not sorted by id: %s >= %s", docs[i-1].ID, docs[i].ID)
		}
	}
}

func Test_Store_PersistLoadRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "persist", "docstore.json")

	s := NewStore()
	s.Add(sampleDoc("bert.pdf", 0, "BERT is a bidirectional encoder."))
	s.Add(sampleDoc("bert.pdf", 1, "Pre-training uses masked tokens.\nWith a newline."))
	s.Add(sampleDoc("gpt2.pdf", 0, "Language models are unsupervised learners — with unicode: é."))

	if err := s.Persist(path); err != nil {
		t.Fatalf("persist: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(s.All(), loaded.All()) {
		t.Errorf("round trip mismatch:\n persisted %+v\n loaded    %+v", s.All(), loaded.All())
	}
}

func Test_Store_PersistOverwritesPriorSnapshot(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "docstore.json")

	s := NewStore()
	s.Add(sampleDoc("a.pdf", 0, "v1"))
	if err := s.Persist(path); err != nil {
		t.Fatalf("first persist: %v", err)
	}

	s.Add(sampleDoc("a.pdf", 0, "v2"))
	s.Add(sampleDoc("a.pdf", 1, "new page"))
	if err := s.Persist(path); err != nil {
		t.Fatalf("second persist: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("want 2 documents, got %d", loaded.Len())
	}
	doc, _ := loaded.Get(DocumentID("a.pdf", 0))
	if doc.Text != "v2" {
		t.Errorf("want latest snapshot contents, got %q", doc.Text)
	}
}

func Test_Store_PersistLeavesNoStagingFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "docstore.json")

	s := NewStore()
	s.Add(sampleDoc("a.pdf", 0, "text"))
	if err := s.Persist(path); err != nil {
		t.Fatalf("persist: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "docstore.json" {
		t.Errorf("staging files left behind: %v", entries)
	}
}

func Test_Load_NotFound(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("want *Error, got %v", err)
	}
	if perr.Kind != KindNotFound {
		t.Errorf("want kind %s, got %s", KindNotFound, perr.Kind)
	}
}

func Test_Load_Corrupt(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "docstore.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := Load(path)
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("want *Error, got %v", err)
	}
	if perr.Kind != KindCorrupt {
		t.Errorf("want kind %s, got %s", KindCorrupt, perr.Kind)
	}
}

func Test_Load_UnsupportedVersion(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "docstore.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "documents": {}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := Load(path)
	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindCorrupt {
		t.Fatalf("want corrupt error, got %v", err)
	}
}
