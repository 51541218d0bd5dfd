package extract

import (
	"strings"
	"testing"
)

func Test_Trim_Policies(t *testing.T) {
	t.Parallel()
	lines := []string{"Running Header", "body one", "body two", "Page 7"}

	tests := []struct {
		name   string
		policy TrimPolicy
		want   string
	}{
		{"none", TrimNone, "Running Header body one body two Page 7"},
		{"remove first", TrimRemoveFirst, "body one body two Page 7"},
		{"remove last", TrimRemoveLast, "Running Header body one body two"},
		{"remove first and last", TrimRemoveFirstLast, "body one body two"},
		{"remove first two", TrimRemoveFirstTwo, "body two Page 7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Trim(lines, tt.policy); got != tt.want {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func Test_Trim_ShortPageNeverTrimmed(t *testing.T) {
	t.Parallel()
	lines := []string{"only", "three", "lines"}
	want := "only three lines"

	for _, policy := range []TrimPolicy{TrimNone, TrimRemoveFirst, TrimRemoveLast, TrimRemoveFirstLast, TrimRemoveFirstTwo} {
		if got := Trim(lines, policy); got != want {
			t.Errorf("policy %s: want %q, got %q", policy, want, got)
		}
	}
}

func Test_Trim_EmptyLinesDroppedBeforeThreshold(t *testing.T) {
	t.Parallel()
	// Six raw lines but only three non-empty: below the threshold, so the
	// policy must not fire.
	lines := []string{"", "header?", " ", "middle", "", "footer?"}
	got := Trim(lines, TrimRemoveFirstLast)
	if got != "header? middle footer?" {
		t.Errorf("want %q, got %q", "header? middle footer?", got)
	}
}

func Test_Trim_FourLinesRemoveFirst(t *testing.T) {
	t.Parallel()
	lines := []string{"HEADER", "a", "b", "c"}
	got := Trim(lines, TrimRemoveFirst)
	if strings.Contains(got, "HEADER") {
		t.Errorf("first line should be absent, got %q", got)
	}
	if got != "a b c" {
		t.Errorf("want %q, got %q", "a b c", got)
	}
}

func Test_Trim_Deterministic(t *testing.T) {
	t.Parallel()
	lines := []string{"h", "1", "2", "3", "f"}
	first := Trim(lines, TrimRemoveFirstLast)
	second := Trim(lines, TrimRemoveFirstLast)
	if first != second {
		t.Errorf("trim not deterministic: %q vs %q", first, second)
	}
}
