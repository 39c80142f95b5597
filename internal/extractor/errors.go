// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extractor

import "errors"

// Strategy-local error kinds. All of them are non-fatal: the chain maps a
// failed strategy to an empty contribution and proceeds.
var (
	// ErrUnavailable indicates a connection-level failure reaching the
	// remote service.
	ErrUnavailable = errors.New("service unavailable")

	// ErrService indicates a non-success response or malformed payload.
	ErrService = errors.New("service error")

	// ErrAmbiguous indicates the remote returned candidates but none
	// cleared the title-similarity threshold.
	ErrAmbiguous = errors.New("no candidate cleared the similarity threshold")
)
