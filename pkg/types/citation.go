// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Entry field names used by extractors and the merger. Every extractor
// reports its findings under these keys; the merger and the storage
// collaborator consume them.
const (
	FieldTitle         = "title"
	FieldAuthors       = "authors"
	FieldYear          = "year"
	FieldVenue         = "venue"
	FieldVolume        = "volume"
	FieldIssue         = "issue"
	FieldPages         = "pages"
	FieldDOI           = "doi"
	FieldAbstract      = "abstract"
	FieldURL           = "url"
	FieldKeywords      = "keywords"
	FieldSubjectArea   = "subject_area"
	FieldCitationCount = "citation_count"
	FieldDate          = "date"
	FieldLocation      = "location"
	FieldStatus        = "status"
)

// EntryType classifies an entry the way the database schema does.
type EntryType string

const (
	TypePublication      EntryType = "publication"
	TypeBookChapter      EntryType = "book_chapter"
	TypePatent           EntryType = "patent"
	TypeOralPresentation EntryType = "oral_presentation"
	TypePosterAbstract   EntryType = "poster_abstract"
)

// FieldValue is one extracted field with a per-field confidence in [0,1].
type FieldValue struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ExtractorResult holds the fields one strategy recovered from a citation.
// A result may be partially populated; a strategy that fails returns the
// zero value. Results are never mutated after the strategy returns them.
type ExtractorResult struct {
	// Source names the strategy that produced the result ("grobid",
	// "crossref", "openalex", "regex").
	Source string `json:"source"`

	// Fields maps field names (FieldTitle etc.) to extracted values.
	Fields map[string]FieldValue `json:"fields"`

	// Authors is the ordered author list when the source provides one.
	// Remote sources return structured "Family, Given" names; the regex
	// strategy returns the raw author span split heuristically.
	Authors []string `json:"authors,omitempty"`

	// AuthorsConfidence scores the Authors list as a whole.
	AuthorsConfidence float64 `json:"authors_confidence,omitempty"`
}

// IsEmpty reports whether the strategy recovered nothing at all.
func (r ExtractorResult) IsEmpty() bool {
	return len(r.Fields) == 0 && len(r.Authors) == 0
}

// Field returns the value for name, or "" when absent.
func (r ExtractorResult) Field(name string) string {
	return r.Fields[name].Value
}

// Confidence returns the per-field confidence for name, 0 when absent.
func (r ExtractorResult) Confidence(name string) float64 {
	return r.Fields[name].Confidence
}

// AuthorCandidate is one parsed author, ordered within a citation.
// Position values for one citation are contiguous integers starting at 1.
type AuthorCandidate struct {
	Name string `json:"name" yaml:"name"`

	// Position is the 1-based index in parse order. Storage relies on
	// this ordering.
	Position int `json:"position" yaml:"position"`

	// IsFirstAuthor marks authors flagged with a trailing "*" in the
	// citation text, or position 1 when no marker is present.
	IsFirstAuthor bool `json:"is_first_author" yaml:"is_first_author"`

	IsCorresponding bool `json:"is_corresponding" yaml:"is_corresponding"`

	// IsAnum marks the tracked project author (matched against the
	// configured name variants).
	IsAnum bool `json:"is_anum" yaml:"is_anum"`
}

// ParsedCitation is the final product of the strategy chain for one input.
type ParsedCitation struct {
	// Strategy is the single strategy name when one source answered with
	// high confidence, or "merged" when several contributed.
	Strategy string `json:"strategy"`

	// OverallConfidence is the weighted mean of the selected per-field
	// confidences. It is 0 exactly when every field is empty.
	OverallConfidence float64 `json:"overall_confidence"`

	// Fields maps field names to the selected values.
	Fields map[string]string `json:"fields"`

	// Authors is the ordered candidate author list.
	Authors []AuthorCandidate `json:"authors"`

	// RawText preserves the original input untouched.
	RawText string `json:"raw_text"`
}

// Field returns the selected value for name, or "" when absent.
func (p ParsedCitation) Field(name string) string {
	return p.Fields[name]
}

// Entry is the candidate record handed to the storage collaborator.
// Identifier assignment belongs to storage; ID is zero until persisted.
type Entry struct {
	ID             int64     `json:"id,omitempty" yaml:"id,omitempty"`
	Type           EntryType `json:"type" yaml:"type"`
	Title          string    `json:"title" yaml:"title"`
	Year           int       `json:"year,omitempty" yaml:"year,omitempty"`
	Venue          string    `json:"venue,omitempty" yaml:"venue,omitempty"`
	Volume         string    `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue          string    `json:"issue,omitempty" yaml:"issue,omitempty"`
	Pages          string    `json:"pages,omitempty" yaml:"pages,omitempty"`
	DOI            string    `json:"doi,omitempty" yaml:"doi,omitempty"`
	AbstractNumber string    `json:"abstract_number,omitempty" yaml:"abstract_number,omitempty"`
	Date           string    `json:"date,omitempty" yaml:"date,omitempty"`
	Location       string    `json:"location,omitempty" yaml:"location,omitempty"`
	Status         string    `json:"status,omitempty" yaml:"status,omitempty"`
	Abstract       string    `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	URL            string    `json:"url,omitempty" yaml:"url,omitempty"`
	Keywords       string    `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	SubjectArea    string    `json:"subject_area,omitempty" yaml:"subject_area,omitempty"`
	CitationCount  int       `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// AnumPosition is the tracked project author's 1-based position in
	// the author list, 0 when they are not an author.
	AnumPosition int `json:"anum_position,omitempty" yaml:"anum_position,omitempty"`

	ProjectArea string `json:"project_area,omitempty" yaml:"project_area,omitempty"`
}
