// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by the remote extractors.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout. One parse call makes at
	// most one request per remote strategy and never retries.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperdb/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// Config holds every setting the citation pipeline consumes. It is built
// once at startup and passed explicitly to the extractors and the chain;
// nothing in the pipeline reads process-wide state.
type Config struct {
	HTTPConfig `yaml:",inline"`

	// GrobidURL is the GROBID server base URL (e.g. "http://localhost:8070").
	// Empty disables the GROBID strategy entirely.
	GrobidURL string `json:"grobid_url,omitempty" yaml:"grobid_url,omitempty"`

	// CrossrefMailto is sent as the mailto parameter for Crossref's
	// polite pool. Optional.
	CrossrefMailto string `json:"crossref_mailto,omitempty" yaml:"crossref_mailto,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for OpenAlex's
	// polite pool. Optional.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// EarlyExitThreshold is the combined title+authors+year confidence
	// above which the chain stops trying lower-priority strategies.
	EarlyExitThreshold float64 `json:"early_exit_threshold" yaml:"early_exit_threshold"`

	// TitleSimilarityThreshold is the minimum normalized-title similarity
	// for accepting a bibliographic search hit from Crossref or OpenAlex.
	TitleSimilarityThreshold float64 `json:"title_similarity_threshold" yaml:"title_similarity_threshold"`

	// Concurrency bounds the worker pool for batch parsing.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// RemoteRate is the per-service request rate (requests per second)
	// shared across batch workers.
	RemoteRate float64 `json:"remote_rate" yaml:"remote_rate"`

	// AnumNames lists the tracked project author's name variants, matched
	// fuzzily (surname plus initials) against parsed author names.
	AnumNames []string `json:"anum_names,omitempty" yaml:"anum_names,omitempty"`

	// DBPath is the SQLite database file used by the storage collaborator.
	DBPath string `json:"db_path" yaml:"db_path"`
}

// Default pipeline constants. All of them are plain Config fields so tests
// and deployments can override them.
const (
	DefaultTimeout                  = 30 * time.Second
	DefaultEarlyExitThreshold       = 0.85
	DefaultTitleSimilarityThreshold = 0.8
	DefaultConcurrency              = 4
	DefaultRemoteRate               = 5.0
	DefaultUserAgent                = "paperdb/0.1"
	DefaultDBPath                   = "paperdb.sqlite"
)

// DefaultConfig returns a Config populated with the default thresholds,
// timeouts, and concurrency bounds. Remote endpoints stay unset.
func DefaultConfig() Config {
	return Config{
		HTTPConfig: HTTPConfig{
			Timeout:   DefaultTimeout,
			UserAgent: DefaultUserAgent,
		},
		EarlyExitThreshold:       DefaultEarlyExitThreshold,
		TitleSimilarityThreshold: DefaultTitleSimilarityThreshold,
		Concurrency:              DefaultConcurrency,
		RemoteRate:               DefaultRemoteRate,
		DBPath:                   DefaultDBPath,
	}
}
