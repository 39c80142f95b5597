// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/paperdb/pkg/types"
)

var patentStatusRe = regexp.MustCompile(`(?i)\b(pending|granted|issued)\b`)

// presentationKeywords mark venues where the default presentation type is
// oral unless the text says poster.
var presentationKeywords = []string{
	"meeting", "symposium", "conference", "workshop", "retreat", "annual",
}

// DetectType classifies a citation's entry type from its text. An explicit
// oral/poster defaultType is respected and only flipped when the text
// clearly indicates the opposite kind; otherwise detection is keyword
// driven, falling back to defaultType.
func DetectType(rawText string, defaultType types.EntryType) types.EntryType {
	lower := strings.ToLower(rawText)

	if defaultType == types.TypeOralPresentation || defaultType == types.TypePosterAbstract {
		if defaultType == types.TypeOralPresentation &&
			(strings.Contains(lower, "poster") || strings.Contains(lower, "abstract")) {
			return types.TypePosterAbstract
		}
		if defaultType == types.TypePosterAbstract &&
			(strings.Contains(lower, "oral") || strings.Contains(lower, "presentation")) {
			return types.TypeOralPresentation
		}
		return defaultType
	}

	switch {
	case containsAny(lower, presentationKeywords):
		if strings.Contains(lower, "poster") || strings.Contains(lower, "abstract") {
			return types.TypePosterAbstract
		}
		// Meetings and symposia default to oral unless marked otherwise.
		return types.TypeOralPresentation
	case strings.Contains(lower, "patent"):
		return types.TypePatent
	case strings.Contains(lower, "chapter"):
		return types.TypeBookChapter
	}
	return defaultType
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// BuildEntry converts a parsed citation into the Entry candidate handed to
// storage, together with its ordered author list. Identifier assignment
// stays with storage; the returned entry has a zero ID.
func BuildEntry(parsed types.ParsedCitation, defaultType types.EntryType) (types.Entry, []types.AuthorCandidate) {
	entry := types.Entry{
		Type:          DetectType(parsed.RawText, defaultType),
		Title:         parsed.Field(types.FieldTitle),
		Venue:         parsed.Field(types.FieldVenue),
		Volume:        parsed.Field(types.FieldVolume),
		Issue:         parsed.Field(types.FieldIssue),
		Pages:         parsed.Field(types.FieldPages),
		DOI:           parsed.Field(types.FieldDOI),
		Date:          parsed.Field(types.FieldDate),
		Location:      parsed.Field(types.FieldLocation),
		Abstract:      parsed.Field(types.FieldAbstract),
		URL:           parsed.Field(types.FieldURL),
		Keywords:      parsed.Field(types.FieldKeywords),
		SubjectArea:   parsed.Field(types.FieldSubjectArea),
		Status:        parsed.Field(types.FieldStatus),
		CitationCount: atoi(parsed.Field(types.FieldCitationCount)),
		Year:          atoi(parsed.Field(types.FieldYear)),
	}

	if entry.Type == types.TypePatent && entry.Status == "" {
		if m := patentStatusRe.FindString(parsed.RawText); m != "" {
			entry.Status = strings.ToLower(m)
		}
	}

	for _, a := range parsed.Authors {
		if a.IsAnum {
			entry.AnumPosition = a.Position
			break
		}
	}

	return entry, parsed.Authors
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
