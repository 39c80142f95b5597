// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"
	"testing"
	"time"
)

// --- DOI ---

func TestDOI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", "10.1093/jbi/wbae089", "10.1093/jbi/wbae089"},
		{"doi prefix", "doi:10.1093/jbi/wbae089", "10.1093/jbi/wbae089"},
		{"doi prefix with space", "doi: 10.1093/jbi/wbae089", "10.1093/jbi/wbae089"},
		{"https url", "https://doi.org/10.1093/jbi/wbae089", "10.1093/jbi/wbae089"},
		{"dx url", "http://dx.doi.org/10.1002/bit.27487", "10.1002/bit.27487"},
		{"uppercase lowered", "10.1093/JBI/WBAE089", "10.1093/jbi/wbae089"},
		{"trailing period stripped", "10.1093/jbi/wbae089.", "10.1093/jbi/wbae089"},
		{"short registrant rejected", "10.123/abc", ""},
		{"no suffix rejected", "10.1093/", ""},
		{"plain text rejected", "not a doi", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DOI(tt.in); got != tt.want {
				t.Errorf("DOI(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDOIIdempotent(t *testing.T) {
	inputs := []string{
		"10.1093/jbi/wbae089",
		"doi:10.1245/s10434-024-16837-x",
		"https://doi.org/10.1002/bit.27487",
		"garbage",
		"",
	}
	for _, in := range inputs {
		once := DOI(in)
		twice := DOI(once)
		if once != twice {
			t.Errorf("DOI not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestExtractDOI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"doi prefix in sentence", "Journal of Breast Imaging. 2025. doi:10.1093/jbi/wbae089", "10.1093/jbi/wbae089"},
		{"url in sentence", "available at https://doi.org/10.1002/bit.27487 online", "10.1002/bit.27487"},
		{"bare in sentence", "see 10.1245/s10434-024-16837-x for details", "10.1245/s10434-024-16837-x"},
		{"absent", "no identifier here (2020)", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDOI(tt.in); got != tt.want {
				t.Errorf("ExtractDOI(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// --- Year ---

func TestYear(t *testing.T) {
	next := time.Now().Year() + 1
	tests := []struct {
		name   string
		in     string
		want   int
		wantOK bool
	}{
		{"parenthesized", "Radiology 316, e241629 (2025)", 2025, true},
		{"plain", "published in 1997", 1997, true},
		{"next year accepted", fmt.Sprintf("in press (%d)", next), next, true},
		{"too old rejected", "founded 1823", 0, false},
		{"too far future rejected", fmt.Sprintf("%d", next+1), 0, false},
		{"skips implausible then finds plausible", "vol 3000 pages 2019", 2019, true},
		{"none", "no year here", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Year(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Year(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// --- Title / similarity ---

func TestTitle(t *testing.T) {
	got := Title("Is NME the Enemy of Breast DWI?")
	want := "is nme the enemy of breast dwi"
	if got != want {
		t.Errorf("Title() = %q, want %q", got, want)
	}
}

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "Time to Enhancement", "Time to Enhancement", 1, 1},
		{"case and punctuation ignored", "Time to Enhancement!", "time TO enhancement", 1, 1},
		{"disjoint", "breast imaging", "quantum chromodynamics", 0, 0},
		{"partial overlap", "breast MRI screening study", "breast MRI screening", 0.8, 0.99},
		{"empty", "", "anything", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleSimilarity(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("TitleSimilarity(%q, %q) = %v, want in [%v, %v]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

// --- AuthorName / Whitespace ---

func TestAuthorName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Kazerouni, A. S.*", "Kazerouni, A. S."},
		{"  Chen,   Y. A. ", "Chen, Y. A."},
		{"Syed, A.K.**", "Syed, A.K."},
	}
	for _, tt := range tests {
		if got := AuthorName(tt.in); got != tt.want {
			t.Errorf("AuthorName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
