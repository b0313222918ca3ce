package rollcall

import "testing"

func TestNormalizeID(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "suffixed identifier", raw: "2152544-73", want: "2152544"},
		{name: "bare identifier", raw: "2152544", want: "2152544"},
		{name: "single digit suffix", raw: "2168389-2", want: "2168389"},
		{name: "multiple hyphens", raw: "2168389-2-1", want: "2168389"},
		{name: "empty identifier", raw: "", want: ""},
		{name: "leading hyphen", raw: "-73", want: ""},
		{name: "non numeric token", raw: "abc-1", want: "abc"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeID(tc.raw)
			if got != tc.want {
				t.Errorf("NormalizeID(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalizeIDIdempotent(t *testing.T) {
	inputs := []string{"2152544-73", "2152544", "", "-73", "abc-1-2"}
	for _, raw := range inputs {
		once := NormalizeID(raw)
		twice := NormalizeID(once)
		if once != twice {
			t.Errorf("NormalizeID not idempotent for %q: first %q, second %q", raw, once, twice)
		}
	}
}

func TestNormalizeIDStripsAnySuffix(t *testing.T) {
	bases := []string{"555", "2152544", "9"}
	suffixes := []string{"1", "73", "2-1"}
	for _, base := range bases {
		for _, suffix := range suffixes {
			got := NormalizeID(base + "-" + suffix)
			if got != base {
				t.Errorf("NormalizeID(%q) = %q, want %q", base+"-"+suffix, got, base)
			}
		}
	}
}
