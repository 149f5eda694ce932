// Package reflection serves the HTTP API used by developer tooling to list
// and run the actions of a Genkit instance.
package reflection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/casualjim/genkit"
	"github.com/casualjim/genkit/pkg/slogx"
	"github.com/casualjim/genkit/pkg/uuidx"
)

const (
	defaultPort            = 3100
	defaultShutdownTimeout = 5 * time.Second
	maxRequestBody         = 10 << 20
)

type config struct {
	host            string
	port            int
	envs            []string
	shutdownTimeout time.Duration
}

// Option configures a Server.
type Option = opts.Option[config]

var (
	// WithHost sets the interface the server listens on, all interfaces by default.
	WithHost = opts.ForName[config, string]("host")
	// WithPort sets the listen port, 3100 by default.
	WithPort = opts.ForName[config, int]("port")
	// WithShutdownTimeout bounds graceful shutdown.
	WithShutdownTimeout = opts.ForName[config, time.Duration]("shutdownTimeout")
)

// WithEnvs sets the environments reported by GET /api/envs.
func WithEnvs(envs ...string) Option {
	return opts.Type[config](func(c *config) error {
		c.envs = append(c.envs, envs...)
		return nil
	})
}

// Server exposes the actions of a Genkit instance over HTTP.
type Server struct {
	g    *genkit.Genkit
	cfg  config
	mux  *http.ServeMux
	log  *slog.Logger
	now  func() time.Time
	addr string
}

// New creates a reflection server for g.
func New(g *genkit.Genkit, options ...Option) (*Server, error) {
	if g == nil {
		return nil, errors.New("reflection: genkit instance is required")
	}
	cfg := config{
		port:            defaultPort,
		shutdownTimeout: defaultShutdownTimeout,
	}
	if err := opts.Apply(&cfg, options); err != nil {
		return nil, err
	}
	if cfg.port < 0 || cfg.port > 65535 {
		return nil, fmt.Errorf("reflection: invalid port %d", cfg.port)
	}
	if len(cfg.envs) == 0 {
		cfg.envs = []string{"dev"}
	}

	s := &Server{
		g:    g,
		cfg:  cfg,
		mux:  http.NewServeMux(),
		log:  slog.Default().With(slogx.LoggerName("reflection")),
		now:  time.Now,
		addr: net.JoinHostPort(cfg.host, strconv.Itoa(cfg.port)),
	}
	s.mux.HandleFunc("GET /api/__health", s.handleHealth)
	s.mux.HandleFunc("GET /api/actions", s.handleListActions)
	s.mux.HandleFunc("POST /api/runAction", s.handleRunAction)
	s.mux.HandleFunc("GET /api/envs", s.handleEnvs)
	return s, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves the API until ctx is done, then shuts the server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	s.log.Info("reflection server listening", slog.String("addr", s.addr))
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("reflection: shutdown: %w", err)
		}
		s.log.Info("reflection server stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("reflection: serve: %w", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleListActions(w http.ResponseWriter, _ *http.Request) {
	actions := orderedmap.New[string, genkit.ActionDesc]()
	for _, desc := range genkit.ListActions(s.g) {
		actions.Set(desc.Key, desc)
	}
	s.writeJSON(w, http.StatusOK, actions)
}

func (s *Server) handleEnvs(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cfg.envs)
}

type runActionRequest struct {
	Key   string          `json:"key"`
	Input json.RawMessage `json:"input"`
}

type telemetry struct {
	TraceID   string          `json:"traceId"`
	StartedAt strfmt.DateTime `json:"startedAt"`
}

type runActionResponse struct {
	Result    json.RawMessage `json:"result"`
	Telemetry telemetry       `json:"telemetry"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleRunAction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err))
		return
	}

	var req runActionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("malformed request body: %w", err))
		return
	}
	if req.Key == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("action key is required"))
		return
	}

	tel := telemetry{TraceID: uuidx.NewTraceID(), StartedAt: strfmt.DateTime(s.now())}
	log := s.log.With(slogx.Action(req.Key), slog.String("trace_id", tel.TraceID))
	log.Debug("running action")

	result, err := genkit.RunAction(r.Context(), s.g, req.Key, req.Input)
	switch {
	case errors.Is(err, genkit.ErrActionNotFound):
		s.writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, genkit.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		log.Error("action failed", slogx.Error(err))
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, runActionResponse{Result: result, Telemetry: tel})
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Message: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error("failed to encode response", slogx.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		s.log.Debug("failed to write response", slogx.Error(err))
	}
}
