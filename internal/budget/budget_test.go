package budget

import (
	"strings"
	"testing"
)

func Test_Estimate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 1},
		{"abcdefgh", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		if got := Estimate(tc.input); got != tc.want {
			t.Errorf("Estimate(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func Test_FitRanked(t *testing.T) {
	t.Parallel()

	doc := strings.Repeat("x", 400) // 100 tokens + 1 separator
	ranked := []string{doc, doc, doc, doc}

	cases := []struct {
		name       string
		fixed, max int
		want       int
	}{
		{"everything fits", 50, 1000, 4},
		{"drops lowest ranked", 50, 300, 2},
		{"keeps at least one", 5000, 100, 1},
		{"no limit", 0, 0, 4},
	}
	for _, tc := range cases {
		if got := FitRanked(ranked, tc.fixed, tc.max); got != tc.want {
			t.Errorf("%s: FitRanked = %d, want %d", tc.name, got, tc.want)
		}
	}

	if got := FitRanked(nil, 0, 100); got != 0 {
		t.Errorf("empty input: got %d", got)
	}
}
