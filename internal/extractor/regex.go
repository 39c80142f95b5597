// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extractor

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/paperdb/internal/authors"
	"github.com/pdiddy/paperdb/internal/normalize"
	"github.com/pdiddy/paperdb/pkg/types"
)

// Citation structure patterns for the fallback parser.
var (
	// parenYearRe matches a parenthesized year like "(2025)".
	parenYearRe = regexp.MustCompile(`\((\d{4})\)`)

	// titleBoundaryRe finds where the author block ends: a period followed
	// by a long capitalized phrase, which is almost always the title.
	titleBoundaryRe = regexp.MustCompile(`\.\s+([A-Z][^.]{20,})`)

	// pagesRe matches page ranges like "pp. 123-145" or bare "123–145".
	pagesRe = regexp.MustCompile(`\bpp?\.\s*\d+\s*[-–]\s*\d+\b|\b\d+\s*[-–]\s*\d+\b`)

	// volIssueRe matches "vol. 12, no. 3" or bare "12, 3".
	volIssueRe = regexp.MustCompile(`(?i)(?:vol\.?\s*)?(\d+)\s*,\s*(?:no\.?\s*)?(\d+)\b`)

	// venueVolArticleRe matches "Radiology 316, e241629": a short journal
	// name followed by a volume and an article identifier.
	venueVolArticleRe = regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(\d+)\s*,\s*([a-zA-Z]?\d+)`)

	// presDateRe matches presentation dates like "October 2025".
	presDateRe = regexp.MustCompile(`(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}`)

	// presLocationRe matches locations like "Chicago, IL" or "Toronto,
	// Canada". Only consulted when a presentation date is present, to keep
	// comma-separated author names from matching.
	presLocationRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?),\s*([A-Z]{2}|[A-Z][a-z]{3,})\b`)

	// initialRe matches a single-letter initial whose period is internal to
	// an author list: one followed by another initial or a comma. A terminal
	// initial before a capitalized word keeps its period, which is the
	// author/title sentence boundary.
	initialRe = regexp.MustCompile(`\b([A-Z])\.(\s*(?:[A-Z]\.|,))`)

	// venueNoiseRe strips article identifiers like "bit.27487", volume
	// markers, and stray numbers from a venue candidate.
	venueNoiseRe = regexp.MustCompile(`(?i)\s+[a-z]+\.\d+|,?\s+vol\.?\s*\d*$|\s+\d+`)
)

// venueKeywords flag a segment as a likely venue name.
var venueKeywords = []string{
	"Journal", "Radiology", "Cancer", "Meeting", "Symposium", "Conference",
	"Society", "Press", "Engineering", "Science", "Proceedings",
}

// Regex is the dependency-free extractor of last resort. It never fails:
// for any non-empty input it returns a usable, possibly sparse, result.
type Regex struct{}

// Name returns the strategy identifier.
func (Regex) Name() string { return NameRegex }

// Attempt extracts whatever fields the structure patterns can recover.
// Fields the patterns miss are simply absent; Attempt never returns an
// error.
func (Regex) Attempt(_ context.Context, rawText string, _ types.Config) (types.ExtractorResult, error) {
	text := normalize.Whitespace(rawText)
	fields := make(map[string]types.FieldValue)
	result := types.ExtractorResult{Source: NameRegex, Fields: fields}
	if text == "" {
		return result, nil
	}

	doi := normalize.ExtractDOI(text)
	setField(fields, types.FieldDOI, doi, ConfidenceRegexDOI)

	// Years are scanned with the DOI blanked out: a registrant prefix like
	// "10.2024" must not masquerade as a publication year.
	if year, ok := extractYear(withoutDOI(text, doi)); ok {
		setField(fields, types.FieldYear, strconv.Itoa(year), ConfidenceRegexYear)
	}

	if span := authorSpan(text); span != "" {
		if names := authors.Split(span); len(names) > 0 {
			result.Authors = names
			result.AuthorsConfidence = ConfidenceRegexAuthors
		}
	}

	title, tail := titleAndTail(text)
	if title == "" {
		title, tail = findTitle(splitOnPeriods(text))
	}
	setField(fields, types.FieldTitle, title, ConfidenceRegexTitle)

	volume, issue, pages, venue := extractNumbering(withoutDOI(text, doi))
	if venue == "" {
		if parts := splitOnPeriods(tail); len(parts) > 0 {
			venue = cleanVenue(parts[0])
		}
	}
	setField(fields, types.FieldVenue, venue, ConfidenceRegexVenue)
	setField(fields, types.FieldVolume, volume, ConfidenceRegexVenue)
	setField(fields, types.FieldIssue, issue, ConfidenceRegexVenue)

	if pages == "" {
		// DOI suffixes contain digit-hyphen-digit runs; search with the
		// DOI blanked out so they cannot masquerade as page ranges.
		pages = extractPages(withoutDOI(text, doi))
	}
	setField(fields, types.FieldPages, pages, ConfidenceRegexPages)

	if m := presDateRe.FindString(text); m != "" {
		setField(fields, types.FieldDate, m, ConfidenceRegexVenue)
		// Search for the location past the title so author names cannot
		// match the city pattern.
		scope := tail
		if scope == "" {
			scope = text
		}
		if loc := presLocationRe.FindStringSubmatch(scope); loc != nil && !presDateRe.MatchString(loc[0]) {
			setField(fields, types.FieldLocation, loc[1]+", "+loc[2], ConfidenceRegexVenue)
		}
	}

	return result, nil
}

// extractYear prefers a parenthesized 4-digit year, then falls back to the
// first bare 4-digit token in the plausible range.
func extractYear(text string) (int, bool) {
	if m := parenYearRe.FindStringSubmatch(text); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil && normalize.YearInRange(y) {
			return y, true
		}
	}
	return normalize.Year(text)
}

// authorSpan returns the text before the title boundary, which holds the
// author list. Falls back to the first period-delimited segment.
func authorSpan(text string) string {
	if loc := titleBoundaryRe.FindStringIndex(text); loc != nil {
		return strings.TrimSpace(text[:loc[0]])
	}
	parts := splitOnPeriods(text)
	if len(parts) >= 2 {
		return parts[0]
	}
	return ""
}

// titleAndTail captures the title phrase at the author-block boundary and
// returns it with the remaining text. Returns ("", "") when the capture
// does not look like a title.
func titleAndTail(text string) (string, string) {
	m := titleBoundaryRe.FindStringSubmatchIndex(text)
	if m == nil {
		return "", ""
	}
	cand := strings.TrimSpace(text[m[2]:m[3]])
	if len(strings.Fields(cand)) <= 3 || strings.Contains(strings.ToLower(cand), "doi:") {
		return "", ""
	}
	return cand, text[m[3]:]
}

// findTitle is the fallback title heuristic for citations without a clean
// author-block boundary: the longest multi-word period-delimited segment
// that is not a year, DOI, or numbering fragment. Returns the title and the
// text after it (as the remaining parts rejoined), or ("", "").
func findTitle(parts []string) (string, string) {
	best, bestIdx := "", -1
	bestWords := 0
	for i, part := range parts {
		if i == 0 {
			continue // author block
		}
		if len(part) < 10 || strings.HasPrefix(part, "(") ||
			strings.Contains(strings.ToLower(part), "doi:") ||
			(part[0] >= '0' && part[0] <= '9') {
			continue
		}
		words := len(strings.Fields(part))
		if words >= 3 && (words > bestWords || (words == bestWords && len(part) > len(best))) {
			best, bestIdx, bestWords = part, i, words
		}
	}
	if bestIdx < 0 {
		return "", ""
	}
	return best, strings.Join(parts[bestIdx+1:], ". ")
}

// extractNumbering recovers volume, issue, pages, and sometimes the venue
// from numbering patterns like "Radiology 316, e241629" or "12, 3".
func extractNumbering(text string) (volume, issue, pages, venue string) {
	if m := venueVolArticleRe.FindStringSubmatch(text); m != nil && len(strings.Fields(m[1])) <= 3 {
		venue = m[1]
		volume = m[2]
		article := m[3]
		if article[0] >= '0' && article[0] <= '9' {
			issue = article
		} else {
			// Article identifiers like "e241629" belong in pages.
			pages = article
		}
		return volume, issue, pages, venue
	}
	if m := volIssueRe.FindStringSubmatch(text); m != nil {
		return m[1], m[2], "", ""
	}
	return "", "", "", ""
}

// withoutDOI removes the DOI (in any casing) from the text.
func withoutDOI(text, doi string) string {
	if doi == "" {
		return text
	}
	lower := strings.ToLower(text)
	idx := strings.Index(lower, doi)
	if idx < 0 {
		return text
	}
	return text[:idx] + text[idx+len(doi):]
}

// extractPages finds a page range, preferring an explicit "pp." marker.
func extractPages(text string) string {
	m := pagesRe.FindString(text)
	if m == "" {
		return ""
	}
	m = strings.TrimLeft(m, "p. ")
	return normalize.Whitespace(m)
}

// cleanVenue strips article identifiers and stray numbers from a venue
// candidate, then checks that what remains looks like a venue name.
func cleanVenue(candidate string) string {
	v := normalize.Whitespace(venueNoiseRe.ReplaceAllString(candidate, ""))
	v = strings.TrimRight(v, " ,")
	if v == "" {
		return ""
	}
	for _, kw := range venueKeywords {
		if strings.Contains(v, kw) {
			return v
		}
	}
	words := len(strings.Fields(v))
	if words >= 1 && words <= 4 && v[0] >= 'A' && v[0] <= 'Z' && len(v) > 3 {
		return v
	}
	return ""
}

// splitOnPeriods splits a citation into segments at period boundaries while
// protecting author initials and common abbreviations from false splits.
func splitOnPeriods(text string) []string {
	safe := strings.ReplaceAll(text, "et al.", "et al\x00")
	safe = strings.ReplaceAll(safe, "e.g.", "e\x00g\x00")
	safe = strings.ReplaceAll(safe, "i.e.", "i\x00e\x00")
	// Adjacent initials overlap the pattern ("A. S.," needs two rounds), so
	// replace until the text stops changing.
	for {
		next := initialRe.ReplaceAllString(safe, "${1}\x00${2}")
		if next == safe {
			break
		}
		safe = next
	}

	parts := strings.Split(safe, ". ")

	var result []string
	for _, p := range parts {
		p = strings.ReplaceAll(p, "\x00", ".")
		p = strings.TrimRight(p, ".")
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
