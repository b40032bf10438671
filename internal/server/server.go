// Package server exposes wellness predictions and record sync over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/wellcast/internal/storage"
	"github.com/claude/wellcast/internal/wellness"
)

// Store is the persistence the HTTP handlers write to.
type Store interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
	PutRecord(ctx context.Context, userID int, key string, value []byte) (bool, error)
	PutRecords(ctx context.Context, userID int, records map[string][]byte) (int, error)
	ListRecords(ctx context.Context, userID int) ([]storage.RecordInfo, error)
	InsertSyncLog(ctx context.Context, l storage.SyncLog) (int64, error)
	QuerySyncLogs(ctx context.Context, userID, limit int) ([]storage.SyncLog, error)
}

// Compile-time check: *storage.DB satisfies Store.
var _ Store = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       Store
	wellness *wellness.Service
	log      *slog.Logger
	apiKey   string
	identity func(http.Handler) http.Handler
	router   chi.Router
}

// New creates a Server with all routes configured. identity resolves the
// caller for every API request; DevIdentity for user 1 is used when it is nil.
func New(db Store, svc *wellness.Service, identity func(http.Handler) http.Handler, apiKey string, log *slog.Logger) *Server {
	if identity == nil {
		identity = DevIdentity(devUserID)
	}
	s := &Server{
		db:       db,
		wellness: svc,
		log:      log,
		apiKey:   apiKey,
		identity: identity,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Mount attaches another handler, such as the MCP endpoint, under pattern.
// Requests reach h with the caller resolved, so UserID works inside it.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, s.identity(h))
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity)

		// Stateless: predictions over an export posted in the request body.
		r.Post("/predictions", s.handlePredictExport)

		r.Get("/predictions", s.handlePredictions)
		r.Get("/predictions/{metric}", s.handleMetricTrend)
		r.Get("/datapoints", s.handleDataPoints)
		r.Get("/records", s.handleListRecords)
		r.Get("/sync-logs", s.handleSyncLogs)
		r.Get("/me", s.handleMe)

		// Record writes (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Put("/records/{key}", s.handlePutRecord)
			r.Post("/records/import", s.handleImportRecords)
			r.Post("/sync-logs", s.handleReportSync)
		})
	})
}
