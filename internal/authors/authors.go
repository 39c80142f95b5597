// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package authors turns a raw author span into ordered author candidates.
// Splitting is separator-priority based: semicolons first, then commas with
// pairing heuristics so a single "Last, F. M." token is never split in two.
package authors

import (
	"regexp"
	"strings"

	"github.com/pdiddy/paperdb/internal/normalize"
	"github.com/pdiddy/paperdb/pkg/types"
)

// initialsRe matches an initials token like "A. S.", "Y. A", or "A.K.",
// with optional first-author markers attached.
var initialsRe = regexp.MustCompile(`^(?:[A-Z]\.\s*)*[A-Z]\.?\**$`)

// andRe matches "and"/"&" connectors between names.
var andRe = regexp.MustCompile(`\s+(?:and|&)\s+`)

// Split divides an author span into individual raw names, preserving any
// "*" first-author markers. Separator priority: semicolons, then commas
// with surname/initials pairing.
func Split(span string) []string {
	span = strings.TrimSpace(span)
	if span == "" {
		return nil
	}

	if strings.Contains(span, ";") {
		var names []string
		for _, part := range strings.Split(span, ";") {
			if name := normalize.Whitespace(part); len(name) >= 2 {
				names = append(names, name)
			}
		}
		return names
	}

	// Normalize "&" and "and" connectors to commas, then pair surnames
	// with the initials tokens that follow them.
	flat := andRe.ReplaceAllString(span, ", ")
	var parts []string
	for _, p := range strings.Split(flat, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	var names []string
	for i := 0; i < len(parts); {
		cur := parts[i]
		if i+1 < len(parts) && isInitials(parts[i+1]) && !isInitials(cur) {
			names = append(names, cur+", "+ensureTerminalPeriod(parts[i+1]))
			i += 2
			continue
		}
		if len(cur) >= 2 {
			names = append(names, cur)
		}
		i++
	}
	return names
}

// isInitials reports whether a token is an initials block like "A. S.",
// ignoring trailing first-author markers.
func isInitials(token string) bool {
	return initialsRe.MatchString(strings.TrimSpace(token))
}

// ensureTerminalPeriod restores the final period of an initials block when
// it was consumed by an upstream sentence split ("Y. A" becomes "Y. A.").
// Markers stay attached after the period.
func ensureTerminalPeriod(initials string) string {
	stars := ""
	trimmed := strings.TrimSpace(initials)
	for strings.HasSuffix(trimmed, "*") {
		stars += "*"
		trimmed = strings.TrimSuffix(trimmed, "*")
	}
	if !strings.HasSuffix(trimmed, ".") {
		trimmed += "."
	}
	return trimmed + stars
}

// Candidates converts ordered raw names into AuthorCandidate records.
// Positions are assigned 1..N in parse order. Names carrying a "*" marker
// are flagged as first authors; when no marker appears anywhere, position 1
// is the first author by convention. Each name is matched against the
// configured project-author variants to set IsAnum.
func Candidates(names []string, cfg types.Config) []types.AuthorCandidate {
	var out []types.AuthorCandidate
	anyMarked := false
	for _, raw := range names {
		if strings.Contains(raw, "*") {
			anyMarked = true
			break
		}
	}

	pos := 0
	for _, raw := range names {
		name := normalize.AuthorName(raw)
		if len(name) < 3 {
			continue
		}
		pos++
		out = append(out, types.AuthorCandidate{
			Name:          name,
			Position:      pos,
			IsFirstAuthor: (anyMarked && strings.Contains(raw, "*")) || (!anyMarked && pos == 1),
			IsAnum:        IsProjectAuthor(name, cfg.AnumNames),
		})
	}
	return out
}

// IsProjectAuthor reports whether name matches one of the configured
// project-author variants. Matching is fuzzy on surname plus initials:
// case-insensitive, marker- and whitespace-normalized, with initials
// compared after stripping periods and spaces. Ambiguity (a surname match
// with conflicting initials) stays false rather than guessing.
func IsProjectAuthor(name string, variants []string) bool {
	surname, initials := splitName(name)
	if surname == "" {
		return false
	}
	for _, v := range variants {
		vs, vi := splitName(normalize.AuthorName(v))
		if vs == "" || !strings.EqualFold(surname, vs) {
			continue
		}
		if initialsKey(initials) == initialsKey(vi) {
			return true
		}
	}
	return false
}

// splitName divides "Last, F. M." into surname and initials. Names without
// a comma split on the last space ("Syed A. K." and "Anum Syed" forms).
func splitName(name string) (surname, initials string) {
	name = strings.TrimSpace(name)
	if idx := strings.Index(name, ","); idx >= 0 {
		return strings.TrimSpace(name[:idx]), strings.TrimSpace(name[idx+1:])
	}
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return name, ""
	}
	// Trailing initials ("Syed A. K.") put the surname first; otherwise
	// assume "Given Family" order.
	if isInitials(fields[len(fields)-1]) {
		return fields[0], strings.Join(fields[1:], " ")
	}
	return fields[len(fields)-1], strings.Join(fields[:len(fields)-1], " ")
}

// initialsKey canonicalizes a given-name block for comparison by reducing
// every name token to its first letter, so "A. S.", "A.S.", and "Anum S."
// all collide on "AS".
func initialsKey(given string) string {
	var b strings.Builder
	inToken := false
	for _, r := range given {
		isLetter := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
		if isLetter && !inToken {
			if r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			b.WriteRune(r)
		}
		inToken = isLetter
	}
	return b.String()
}
