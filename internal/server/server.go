// Package server exposes the reading service over HTTP. Routing stays on
// the standard mux; typed reading errors are mapped to statuses at this
// boundary and nowhere else.
package server

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"hexcast/internal/reading"
)

// TokenVerifier resolves a bearer token to a user ID. auth.Verifier is the
// production implementation; auth.Static stands in for development.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Options carries the server's collaborators. Readings, Texts and Verifier
// are required; Images may be nil when no image store is configured.
type Options struct {
	Readings *reading.Service
	Texts    reading.TextStore
	Images   reading.ImageResolver
	Verifier TokenVerifier
	Logger   *zap.Logger
}

// Server handles the hexcast HTTP API.
type Server struct {
	readings *reading.Service
	texts    reading.TextStore
	images   reading.ImageResolver
	verifier TokenVerifier
	log      *zap.Logger
}

// New creates a Server from its collaborators.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		readings: opts.Readings,
		texts:    opts.Texts,
		images:   opts.Images,
		verifier: opts.Verifier,
		log:      opts.Logger,
	}
}

// Handler builds the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /api/readings → POST: generate a reading (authenticated)
	mux.Handle("/api/readings", s.requireAuth(http.HandlerFunc(s.handleReadings)))

	// /api/coordinates?first=&second=&third= → GET: derivation only
	mux.HandleFunc("/api/coordinates", s.handleCoordinates)

	// /api/hexagrams/{parent}/{child} → GET: stored text
	mux.HandleFunc("/api/hexagrams/", s.handleHexagram)

	return chainMiddlewares(mux, withCORS, s.withLogging, withRequestID)
}
