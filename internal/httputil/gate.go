// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the remote extractors.
//
// Each remote service gets one rate-limit gate shared across all batch
// workers, so concurrency never multiplies the request rate seen by an
// external API. A gated request is a single attempt: failures are reported
// to the caller, never retried here.
package httputil

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"
)

// Gate limits the request rate for one remote service.
type Gate struct {
	limiter *rate.Limiter
}

// NewGate returns a gate allowing rps requests per second with burst 1.
// A non-positive rps disables limiting.
func NewGate(rps float64) *Gate {
	if rps <= 0 {
		return &Gate{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Gate{limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

// Do waits for a rate token, then executes the request once. It returns
// ctx.Err() if the context is cancelled while waiting for a token.
func (g *Gate) Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return client.Do(req.WithContext(ctx))
}

// Gates bundles the per-service gates the pipeline shares across workers.
type Gates struct {
	Grobid   *Gate
	Crossref *Gate
	OpenAlex *Gate
}

// NewGates builds one gate per remote service, each allowing rps requests
// per second.
func NewGates(rps float64) *Gates {
	return &Gates{
		Grobid:   NewGate(rps),
		Crossref: NewGate(rps),
		OpenAlex: NewGate(rps),
	}
}
