// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize canonicalizes DOIs, years, titles, and whitespace for
// the citation pipeline. Every extractor funnels its raw matches through
// these helpers so that merged results compare like with like.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// doiPattern matches a bare DOI: "10.1093/jbi/wbae089".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// doiInTextPattern finds a DOI anywhere in free text, with or without a
// "doi:" prefix or a doi.org URL around it.
var doiInTextPattern = regexp.MustCompile(`(?i)(?:doi:\s*|https?://(?:dx\.)?doi\.org/)?(10\.\d{4,9}/[^\s)">,;]+)`)

// yearPattern matches a 4-digit year token.
var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

var whitespaceRe = regexp.MustCompile(`\s+`)

// DOI strips URL and "doi:" prefixes, lowercases the remainder, and
// validates it against the DOI pattern. It returns "" when the input does
// not contain a valid DOI. DOI is idempotent: DOI(DOI(x)) == DOI(x).
func DOI(text string) string {
	s := strings.TrimSpace(text)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			s = rest
			break
		}
	}
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "doi:"); ok {
		s = strings.TrimSpace(rest)
	}
	s = strings.ToLower(strings.TrimSpace(s))
	// Trailing punctuation from sentence context is not part of the DOI.
	s = strings.TrimRight(s, ".,;)")
	if !doiPattern.MatchString(s) {
		return ""
	}
	return s
}

// ExtractDOI finds the first DOI anywhere in free text and returns its
// canonical form, or "" when none is present.
func ExtractDOI(text string) string {
	m := doiInTextPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return DOI(m[1])
}

// Year parses a plausible publication year from text. Values outside
// 1900..(current year + 1) are rejected, never clamped. The ok return is
// false when no plausible year is present.
func Year(text string) (int, bool) {
	for _, m := range yearPattern.FindAllString(text, -1) {
		y, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if YearInRange(y) {
			return y, true
		}
	}
	return 0, false
}

// YearInRange reports whether y is a plausible publication year.
func YearInRange(y int) bool {
	return y >= 1900 && y <= time.Now().Year()+1
}

// Whitespace collapses runs of whitespace to single spaces and trims.
func Whitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Title returns a lowercased, punctuation-stripped version of a title for
// comparison purposes.
func Title(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TitleSimilarity scores two titles in [0,1] using the Dice coefficient
// over normalized word tokens. Identical titles score 1; titles sharing no
// tokens score 0.
func TitleSimilarity(a, b string) float64 {
	ta := strings.Fields(Title(a))
	tb := strings.Fields(Title(b))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	counts := make(map[string]int, len(ta))
	for _, tok := range ta {
		counts[tok]++
	}
	shared := 0
	for _, tok := range tb {
		if counts[tok] > 0 {
			counts[tok]--
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ta)+len(tb))
}

// AuthorName strips first-author markers and collapses whitespace in a
// single author name.
func AuthorName(name string) string {
	return Whitespace(strings.ReplaceAll(name, "*", ""))
}
