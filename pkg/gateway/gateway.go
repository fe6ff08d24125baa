package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/igorsilveira/ada/pkg/audit"
	"github.com/igorsilveira/ada/pkg/live"
	"github.com/igorsilveira/ada/pkg/store"
	"github.com/igorsilveira/ada/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Gateway struct {
	server   *http.Server
	router   *chi.Mux
	sessions *live.Registry
	store    *store.Store
	audit    *audit.Logger
	logger   *slog.Logger
	accept   *websocket.AcceptOptions
	handlers map[string]eventHandler
}

type Config struct {
	Bind           string
	Port           int
	AllowedOrigins []string
	Sessions       *live.Registry
	Store          *store.Store
	Audit          *audit.Logger
	Logger         *slog.Logger
}

func New(cfg Config) *Gateway {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders: []string{"*"},
	}))

	g := &Gateway{
		router:   r,
		sessions: cfg.Sessions,
		store:    cfg.Store,
		audit:    cfg.Audit,
		logger:   cfg.Logger,
		accept:   acceptOptions(cfg.AllowedOrigins),
	}
	g.handlers = g.eventHandlers()

	g.registerRoutes()

	addr := resolveAddr(cfg.Bind, cfg.Port)
	g.server = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return g
}

func (g *Gateway) registerRoutes() {
	g.router.Get("/healthz", g.handleHealthz)
	g.router.Get("/readyz", g.handleReadyz)
	g.router.Handle("/metrics", promhttp.Handler())
	g.router.Get("/", g.handleConsolePage)
	g.router.Get("/ws", g.handleWebSocket)
}

// Handler exposes the router, mainly for httptest.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Addr() string {
	return g.server.Addr
}

func (g *Gateway) Start(ctx context.Context) error {
	logger := telemetry.FromContext(ctx)
	logger.Info("gateway listening", slog.String("addr", g.server.Addr))

	ln, err := net.Listen("tcp", g.server.Addr)
	if err != nil {
		return fmt.Errorf("gateway listen: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := g.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return g.shutdown()
	case err := <-errCh:
		return err
	}
}

func (g *Gateway) shutdown() error {
	g.logger.Info("gateway shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := g.server.Shutdown(ctx)
	if g.sessions != nil {
		g.sessions.CloseAll()
	}
	return err
}

func (g *Gateway) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (g *Gateway) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if g.sessions == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "no live backend"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ready",
		"sessions": g.sessions.Len(),
	})
}

func resolveAddr(bind string, port int) string {
	var host string
	switch bind {
	case "lan", "all", "":
		host = "0.0.0.0"
	case "loopback":
		host = "127.0.0.1"
	default:
		host = bind
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// acceptOptions turns the CORS origin list into websocket origin patterns.
func acceptOptions(origins []string) *websocket.AcceptOptions {
	if slices.Contains(origins, "*") {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, o)
	}
	return &websocket.AcceptOptions{OriginPatterns: patterns}
}
