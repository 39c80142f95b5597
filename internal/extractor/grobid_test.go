// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extractor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperdb/internal/httputil"
	"github.com/pdiddy/paperdb/pkg/types"
)

const grobidTEI = `<biblStruct>
	<analytic>
		<title level="a" type="main">Time to Enhancement Measured From Ultrafast Dynamic Contrast-Enhanced MRI</title>
		<author>
			<persName><forename type="first">A</forename><forename type="middle">S</forename><surname>Kazerouni</surname></persName>
		</author>
		<author>
			<persName><forename type="first">Y</forename><forename type="middle">A</forename><surname>Chen</surname></persName>
		</author>
		<idno type="DOI">10.1093/jbi/wbae089</idno>
	</analytic>
	<monogr>
		<title level="j">Journal of Breast Imaging</title>
		<imprint>
			<biblScope unit="volume">7</biblScope>
			<biblScope unit="issue">2</biblScope>
			<biblScope unit="page" from="141" to="153" />
			<date type="published" when="2025-03-12" />
		</imprint>
	</monogr>
</biblStruct>`

func newGrobid() *Grobid {
	return &Grobid{Client: http.DefaultClient, Gate: httputil.NewGate(0)}
}

func TestGrobidAttempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/processCitation", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("consolidateCitations"))
		require.NoError(t, r.ParseForm())
		assert.NotEmpty(t, r.PostForm.Get("citations"))
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(grobidTEI))
	}))
	defer server.Close()

	cfg := types.DefaultConfig()
	cfg.GrobidURL = server.URL

	result, err := newGrobid().Attempt(context.Background(), "some citation text", cfg)
	require.NoError(t, err)

	assert.Equal(t, NameGrobid, result.Source)
	assert.Equal(t, "Time to Enhancement Measured From Ultrafast Dynamic Contrast-Enhanced MRI", result.Field(types.FieldTitle))
	assert.Equal(t, "Journal of Breast Imaging", result.Field(types.FieldVenue))
	assert.Equal(t, "10.1093/jbi/wbae089", result.Field(types.FieldDOI))
	assert.Equal(t, "2025", result.Field(types.FieldYear))
	assert.Equal(t, "7", result.Field(types.FieldVolume))
	assert.Equal(t, "2", result.Field(types.FieldIssue))
	assert.Equal(t, "141-153", result.Field(types.FieldPages))

	require.Equal(t, []string{"Kazerouni, A S", "Chen, Y A"}, result.Authors)
	assert.Equal(t, ConfidenceGrobid, result.AuthorsConfidence)
	assert.Equal(t, ConfidenceGrobid, result.Confidence(types.FieldTitle))
}

func TestGrobidNotConfigured(t *testing.T) {
	cfg := types.DefaultConfig()
	result, err := newGrobid().Attempt(context.Background(), "citation", cfg)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.True(t, result.IsEmpty())
}

func TestGrobidServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := types.DefaultConfig()
	cfg.GrobidURL = server.URL

	result, err := newGrobid().Attempt(context.Background(), "citation", cfg)
	assert.True(t, errors.Is(err, ErrService))
	assert.True(t, result.IsEmpty())
}

func TestGrobidUnreachable(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.GrobidURL = "http://127.0.0.1:1" // nothing listens here

	result, err := newGrobid().Attempt(context.Background(), "citation", cfg)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.True(t, result.IsEmpty())
}

func TestGrobidMalformedTEI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not xml at all"))
	}))
	defer server.Close()

	cfg := types.DefaultConfig()
	cfg.GrobidURL = server.URL

	result, err := newGrobid().Attempt(context.Background(), "citation", cfg)
	assert.True(t, errors.Is(err, ErrService))
	assert.True(t, result.IsEmpty())
}
