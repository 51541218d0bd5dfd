package extract

import "strings"

// TrimPolicy names the boilerplate removal applied to a page's lines before
// cleaning. Report-style PDFs repeat running headers and footers on every
// page; the policy says which edge lines carry them for a given document.
type TrimPolicy string

const (
	// TrimNone applies no removal.
	TrimNone TrimPolicy = "none"
	// TrimRemoveFirst drops the first non-empty line (running header).
	TrimRemoveFirst TrimPolicy = "remove_first"
	// TrimRemoveLast drops the last non-empty line (page footer).
	TrimRemoveLast TrimPolicy = "remove_last"
	// TrimRemoveFirstLast drops both edge lines.
	TrimRemoveFirstLast TrimPolicy = "remove_first_last"
	// TrimRemoveFirstTwo drops the first two non-empty lines (two-line header).
	TrimRemoveFirstTwo TrimPolicy = "remove_first_two"
)

// minTrimLines is the minimum number of non-empty lines a page must have
// before any trimming applies. Shorter pages are joined untouched; with so
// little text it cannot be assumed that edge lines are boilerplate. The
// threshold suits the report-style sources this pipeline was built for; tune
// via the policy instead.
const minTrimLines = 4

// ValidTrimPolicy reports whether p is a known policy name.
func ValidTrimPolicy(p TrimPolicy) bool {
	switch p {
	case TrimNone, TrimRemoveFirst, TrimRemoveLast, TrimRemoveFirstLast, TrimRemoveFirstTwo:
		return true
	}
	return false
}

// Trim drops empty lines, applies the policy's edge removal when the page has
// at least minTrimLines non-empty lines, and joins the remainder with single
// spaces. It is pure: same input, same output, no hidden state.
func Trim(lines []string, policy TrimPolicy) string {
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}

	if len(kept) >= minTrimLines {
		switch policy {
		case TrimRemoveFirst:
			kept = kept[1:]
		case TrimRemoveLast:
			kept = kept[:len(kept)-1]
		case TrimRemoveFirstLast:
			kept = kept[1 : len(kept)-1]
		case TrimRemoveFirstTwo:
			kept = kept[2:]
		}
	}

	return strings.TrimSpace(strings.Join(kept, " "))
}
