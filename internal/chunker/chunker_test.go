package chunker

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/docq-ai/docq-go/internal/docstore"
)

// testDoc wraps text in a Document with fixed metadata.
func testDoc(text string) docstore.Document {
	return docstore.Document{
		ID:   docstore.DocumentID("bert.pdf", 0),
		Text: text,
		Metadata: docstore.Metadata{
			PageNumber: 0,
			FileName:   "bert.pdf",
			Title:      "BERT",
			Author:     "Unknown",
		},
	}
}

func Test_Split_ShortTextSingleChunk(t *testing.T) {
	t.Parallel()
	doc := testDoc("a short page")
	chunks, err := Split(doc, 500, 50)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("want 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Text != "a short page" || c.Ordinal != 0 || c.ParentID != doc.ID {
		t.Errorf("unexpected chunk: %+v", c)
	}
	if c.ID != ChunkID(doc.ID, 0) {
		t.Errorf("chunk id not derived from parent+ordinal")
	}
	if c.Meta != doc.Metadata {
		t.Errorf("metadata not inherited: %+v", c.Meta)
	}
}

func Test_Split_RespectsMaxSize(t *testing.T) {
	t.Parallel()
	doc := testDoc(strings.Repeat("The model improves results on benchmarks. ", 60))
	chunks, err := Split(doc, 200, 20)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("want multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if n := len([]rune(c.Text)); n > 200 {
			t.Errorf("chunk %d exceeds max size: %d runes", c.Ordinal, n)
		}
	}
}

func Test_Split_PrefersSentenceBoundaries(t *testing.T) {
	t.Parallel()
	doc := testDoc(strings.Repeat("One sentence here. ", 40))
	chunks, err := Split(doc, 100, 0)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	for _, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c.Text, ".") {
			t.Errorf("chunk %d does not end on a sentence boundary: %q", c.Ordinal, c.Text)
		}
	}
}

func Test_Split_NeverCutsMidWord(t *testing.T) {
	t.Parallel()
	doc := testDoc(strings.Repeat("alpha beta gamma delta epsilon ", 30))
	chunks, err := Split(doc, 64, 8)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	words := map[string]bool{"alpha": true, "beta": true, "gamma": true, "delta": true, "epsilon": true}
	for _, c := range chunks {
		for _, w := range strings.Fields(c.Text) {
			if !words[w] {
				t.Errorf("chunk %d contains a cut word: %q", c.Ordinal, w)
			}
		}
	}
}

func Test_Split_OrdinalsStrictlyIncreasing(t *testing.T) {
	t.Parallel()
	doc := testDoc(strings.Repeat("word ", 500))
	chunks, err := Split(doc, 120, 30)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	for i, c := range chunks {
		if c.Ordinal != i {
			t.Errorf("chunk %d has ordinal %d", i, c.Ordinal)
		}
	}
}

func Test_Split_OverlapSharesContext(t *testing.T) {
	t.Parallel()
	doc := testDoc(strings.Repeat("shared context words flow onward ", 40))
	chunks, err := Split(doc, 100, 30)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("want multiple chunks, got %d", len(chunks))
	}
	// The tail of each chunk must reappear at the head of the next.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		tail := prev[len(prev)-10:]
		if !strings.Contains(chunks[i].Text[:min(40, len(chunks[i].Text))], strings.TrimSpace(tail)) {
			t.Errorf("chunk %d does not share trailing context of chunk %d", i, i-1)
		}
	}
}

func Test_Split_Deterministic(t *testing.T) {
	t.Parallel()
	doc := testDoc(strings.Repeat("Deterministic chunking matters for idempotent ingestion. ", 50))

	first, err := Split(doc, 500, 50)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	second, err := Split(doc, 500, 50)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs produced different chunk boundaries")
	}
}

func Test_Split_InvalidConfig(t *testing.T) {
	t.Parallel()
	doc := testDoc("text")
	tests := []struct {
		name    string
		max     int
		overlap int
	}{
		{"overlap equals max", 100, 100},
		{"overlap exceeds max", 100, 150},
		{"zero max", 0, 0},
		{"negative overlap", 100, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Split(doc, tt.max, tt.overlap)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("want ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func Test_Split_EmptyDocument(t *testing.T) {
	t.Parallel()
	chunks, err := Split(testDoc("   \n  "), 100, 10)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("want no chunks for empty text, got %d", len(chunks))
	}
}
