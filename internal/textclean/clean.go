// Package textclean implements the deterministic text-normalisation pipeline
// applied to extracted page text before it is stored and chunked.
//
// Each stage is independently toggleable but the application order is fixed:
// whitespace collapse, broken-paragraph merge, bullet strip, split-word
// merge, citation strip, ASCII fold, lowercase. Every stage is a pure
// function of its input, and the chain reruns until the text is stable, so
// the pipeline as a whole is idempotent:
// Clean(Clean(s, o), o) == Clean(s, o) for any s and fixed o.
package textclean

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Options selects which normalisation stages run. The zero value disables
// everything; use [DefaultOptions] for the standard ingestion profile.
type Options struct {
	// CollapseWhitespace reduces runs of whitespace (including newlines)
	// to a single space.
	CollapseWhitespace bool

	// MergeBrokenParagraphs joins a line onto the next when the break is
	// not preceded by terminal punctuation (a soft layout wrap).
	MergeBrokenParagraphs bool

	// StripBullets removes leading bullet glyphs and markers from line
	// starts.
	StripBullets bool

	// MergeSplitWords removes a hyphen that breaks a word across a layout
	// boundary (hyphen at end of line, lowercase letter following).
	MergeSplitWords bool

	// StripCitations removes bracketed or parenthetical numeric citation
	// markers such as "[12]", "[3, 4]" or "(7)".
	StripCitations bool

	// FoldASCII transliterates or drops non-ASCII characters to their
	// closest ASCII equivalent.
	FoldASCII bool

	// Lowercase lowercases the final text. Applied last.
	Lowercase bool
}

// DefaultOptions is the ingestion profile: everything on except lowercasing,
// which would destroy acronyms and proper nouns the synthesis stage quotes.
func DefaultOptions() Options {
	return Options{
		CollapseWhitespace:    true,
		MergeBrokenParagraphs: true,
		StripBullets:          true,
		MergeSplitWords:       true,
		StripCitations:        true,
		FoldASCII:             true,
	}
}

// maxCleanPasses bounds the fixpoint loop in Clean. Stages only remove or
// substitute characters, so the text stabilises after very few passes; the
// bound guards against a pathological regexp interaction, not an expected
// case.
const maxCleanPasses = 4

// Clean runs the enabled stages over text in the fixed pipeline order and
// returns the normalised result with surrounding whitespace trimmed.
//
// A stage can expose a pattern for an earlier stage: stripping a citation
// marker that sits inside a hyphenated line wrap leaves a split word the
// merge stage has already passed over. The chain therefore reruns until the
// text is stable, which keeps Clean idempotent.
func Clean(text string, opts Options) string {
	for i := 0; i < maxCleanPasses; i++ {
		next := cleanPass(text, opts)
		if next == text {
			break
		}
		text = next
	}
	return text
}

// cleanPass applies each enabled stage once, in the fixed order.
func cleanPass(text string, opts Options) string {
	if opts.CollapseWhitespace {
		text = CollapseWhitespace(text)
	}
	if opts.MergeBrokenParagraphs {
		text = MergeBrokenParagraphs(text)
	}
	if opts.StripBullets {
		text = StripBullets(text)
	}
	if opts.MergeSplitWords {
		text = MergeSplitWords(text)
	}
	if opts.StripCitations {
		text = StripCitations(text)
	}
	if opts.FoldASCII {
		text = FoldASCII(text)
	}
	if opts.Lowercase {
		text = strings.ToLower(text)
	}
	return strings.TrimSpace(text)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CollapseWhitespace reduces every run of whitespace characters, newlines
// included, to a single space.
func CollapseWhitespace(text string) string {
	return whitespaceRun.ReplaceAllString(text, " ")
}

// brokenParagraph matches a line break whose preceding non-space character is
// not terminal punctuation. Such a break is a soft wrap introduced by page
// layout, not a paragraph boundary.
var brokenParagraph = regexp.MustCompile(`([^.!?:\s])[ \t]*\r?\n[ \t]*(\S)`)

// MergeBrokenParagraphs replaces soft line wraps with a single space, leaving
// breaks that follow terminal punctuation untouched.
func MergeBrokenParagraphs(text string) string {
	return brokenParagraph.ReplaceAllString(text, "$1 $2")
}

// bulletPrefix matches bullet glyphs and list markers at the start of a line.
var bulletPrefix = regexp.MustCompile(`(?m)^[ \t]*[•◦▪‣·∙●○*]+[ \t]*`)

// StripBullets removes leading bullet glyphs and markers from line starts.
func StripBullets(text string) string {
	return bulletPrefix.ReplaceAllString(text, "")
}

// splitWordNewline matches a word fragment hyphenated at the end of a line
// and continued with a lowercase letter on the next line.
var splitWordNewline = regexp.MustCompile(`(\p{L})-[ \t]*\r?\n[ \t]*(\p{L})`)

// splitWordSpace matches the same artefact after whitespace collapse has
// already turned the line break into a single space.
var splitWordSpace = regexp.MustCompile(`(\p{L})- (\p{L})`)

// MergeSplitWords rejoins words hyphenated across a layout boundary. The
// hyphen is removed only when the continuation starts with a lowercase
// letter; otherwise the hyphen is kept as an ordinary word separator and only
// the break itself is absorbed.
func MergeSplitWords(text string) string {
	join := func(re *regexp.Regexp, s string) string {
		return re.ReplaceAllStringFunc(s, func(m string) string {
			parts := re.FindStringSubmatch(m)
			head, tail := parts[1], parts[2]
			if r := []rune(tail)[0]; unicode.IsLower(r) {
				return head + tail
			}
			return head + "-" + tail
		})
	}
	text = join(splitWordNewline, text)
	text = join(splitWordSpace, text)
	return text
}

// citationMarker matches reference-style numeric citation markers: one or
// more numbers (optionally ranged or comma-separated) in square brackets or
// parentheses, e.g. "[3]", "[1, 2]", "[4-6]", "(12)".
var citationMarker = regexp.MustCompile(`\s?[\[(]\s*\d+(?:\s*[,–-]\s*\d+)*\s*[\])]`)

// StripCitations removes numeric citation markers from the text.
func StripCitations(text string) string {
	return citationMarker.ReplaceAllString(text, "")
}

// asciiReplacements transliterates common typographic characters that survive
// Unicode decomposition. Anything still non-ASCII afterwards is dropped.
var asciiReplacements = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'",
	"“", `"`, "”", `"`, "„", `"`,
	"–", "-", "—", "-", "−", "-",
	"…", "...",
	" ", " ",
	"«", `"`, "»", `"`,
	"×", "x",
)

// foldTransformer decomposes characters (NFKD also expands ligatures such as
// ﬁ) and removes the combining marks, turning "é" into "e".
var foldTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// FoldASCII transliterates non-ASCII characters to their closest ASCII
// equivalent and drops the ones with no reasonable mapping.
func FoldASCII(text string) string {
	text = asciiReplacements.Replace(text)
	if folded, _, err := transform.String(foldTransformer, text); err == nil {
		text = folded
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, text)
}
