package textclean

import (
	"strings"
	"testing"
)

func Test_Clean_CollapseWhitespace(t *testing.T) {
	t.Parallel()
	got := Clean("a \t b\n\n  c", Options{CollapseWhitespace: true})
	if got != "a b c" {
		t.Errorf("want %q, got %q", "a b c", got)
	}
}

func Test_Clean_MergeBrokenParagraphs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"soft wrap merged", "the quick\nbrown fox", "the quick brown fox"},
		{"hard break kept", "Sentence one.\nSentence two.", "Sentence one.\nSentence two."},
		{"question mark kept", "Really?\nYes.", "Really?\nYes."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Clean(tt.in, Options{MergeBrokenParagraphs: true})
			if got != tt.want {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func Test_Clean_StripBullets(t *testing.T) {
	t.Parallel()
	in := "• first item\n◦ second item\n* third item"
	got := Clean(in, Options{StripBullets: true})
	want := "first item\nsecond item\nthird item"
	if got != want {
		t.Errorf("want %q, got %q", want, got)
	}
}

func Test_Clean_MergeSplitWords(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase continuation merged", "trans-\nformer", "transformer"},
		{"uppercase continuation keeps hyphen", "A-\nB", "A-B"},
		{"post-collapse form merged", "trans- former", "transformer"},
		{"inline hyphen untouched", "state-of-the-art", "state-of-the-art"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Clean(tt.in, Options{MergeSplitWords: true})
			if got != tt.want {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func Test_Clean_StripCitations(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single bracket", "attention is all you need [3] indeed", "attention is all you need indeed"},
		{"comma list", "as shown [1, 2] earlier", "as shown earlier"},
		{"range", "studies [4-6] agree", "studies agree"},
		{"parenthetical", "reported previously (12)", "reported previously"},
		{"non-numeric kept", "the model (BERT) improves", "the model (BERT) improves"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Clean(tt.in, Options{StripCitations: true})
			if got != tt.want {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func Test_Clean_FoldASCII(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"diacritics stripped", "naïve café résumé", "naive cafe resume"},
		{"smart quotes", "“quoted” and ‘single’", `"quoted" and 'single'`},
		{"dashes and ellipsis", "2018–2019 — wait…", "2018-2019 - wait..."},
		{"ligature expanded", "eﬃcient", "efficient"},
		{"unmappable dropped", "model☃name", "modelname"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Clean(tt.in, Options{FoldASCII: true})
			if got != tt.want {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func Test_Clean_LowercaseAppliedLast(t *testing.T) {
	t.Parallel()
	opts := DefaultOptions()
	opts.Lowercase = true
	got := Clean("BERT Improves NLP", opts)
	if got != "bert improves nlp" {
		t.Errorf("want %q, got %q", "bert improves nlp", got)
	}
}

// Hyphenated line wrap through the full default pipeline: whitespace collapse
// runs first, the split-word stage then absorbs the hyphen before a lowercase
// continuation and keeps it before an uppercase one.
func Test_Clean_SplitWordEndToEnd(t *testing.T) {
	t.Parallel()
	opts := DefaultOptions()

	if got := Clean("A-\nb", opts); got != "Ab" {
		t.Errorf("lowercase continuation: want %q, got %q", "Ab", got)
	}
	got := Clean("A-\nB", opts)
	if !strings.Contains(got, "-") {
		t.Errorf("uppercase continuation: hyphen should be preserved, got %q", got)
	}
}

// A citation marker wedged between a hyphenated line wrap and its lowercase
// continuation: the citation strip exposes the split word, and a single Clean
// call must still reach the fully merged form.
func Test_Clean_CitationInsideSplitWord(t *testing.T) {
	t.Parallel()
	in := "results improve signifi-\n[12] cantly over baselines"
	want := "results improve significantly over baselines"
	if got := Clean(in, DefaultOptions()); got != want {
		t.Errorf("want %q, got %q", want, got)
	}
}

func Test_Clean_Idempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"",
		"plain text already clean",
		"runs   of\t\twhitespace\n\nand lines",
		"hyphen-\nated words and citations [1, 2] in “quotes”",
		"results improve signifi-\n[12] cantly over baselines",
		"• bullets\n• more bullets\nbroken\nparagraph here.",
		"naïve ﬁne-tuning — results (3) improve",
	}
	profiles := []Options{
		DefaultOptions(),
		{CollapseWhitespace: true},
		{MergeBrokenParagraphs: true, StripBullets: true},
		func() Options { o := DefaultOptions(); o.Lowercase = true; return o }(),
	}

	for _, in := range inputs {
		for _, opts := range profiles {
			once := Clean(in, opts)
			twice := Clean(once, opts)
			if once != twice {
				t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
			}
		}
	}
}

func Test_Clean_ZeroOptionsOnlyTrims(t *testing.T) {
	t.Parallel()
	got := Clean("  raw\ntext [1] é  ", Options{})
	if got != "raw\ntext [1] é" {
		t.Errorf("want inner text untouched, got %q", got)
	}
}
