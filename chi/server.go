// Package chi exposes the comic catalogue over a JSON HTTP API.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/xkcdbot"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 10 * time.Second

// Server serves search, comic lookup and health endpoints.
type Server struct {
	handler xkcdbot.QueryHandler
	store   xkcdbot.ComicStore
	index   xkcdbot.ComicIndex
	logger  *slog.Logger
	router  chi.Router
}

// NewServer creates a Server. A nil logger discards output.
func NewServer(handler xkcdbot.QueryHandler, store xkcdbot.ComicStore, index xkcdbot.ComicIndex, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{handler: handler, store: store, index: index, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/search", s.handleSearch)
	r.Get("/comics/{num}", s.handleComic)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Documents uint64 `json:"documents"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	n, err := s.index.Count()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: xkcdbot.ErrorMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Documents: n})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	results := s.handler.HandleQuery(ctx, r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleComic(w http.ResponseWriter, r *http.Request) {
	num, err := strconv.Atoi(chi.URLParam(r, "num"))
	if err != nil || num <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid comic number"})
		return
	}

	comic, ok := s.store.Comic(num)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "comic not found"})
		return
	}
	writeJSON(w, http.StatusOK, comic)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
