// Package debugserver exposes pprof, a liveness probe and a JSON status view
// over HTTP. It is off by default and binds to loopback unless told otherwise.
package debugserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	hpprof "net/http/pprof"
	"strings"
	"time"

	logx "jumbotron/pkg/logx"
)

const (
	DefaultAddr = "127.0.0.1:6060"
	pprofPrefix = "/debug/pprof/"
)

// ErrInsecureBind is returned for a non-loopback address without a token.
var ErrInsecureBind = errors.New("debugserver: non-loopback addr requires token or allow_insecure")

type Config struct {
	Addr          string
	Token         string
	AllowInsecure bool
}

// StatusFunc returns a JSON-encodable view of the running app.
type StatusFunc func(ctx context.Context) (any, error)

type Server struct {
	cfg     Config
	log     logx.Logger
	status  StatusFunc
	alive   func() bool
	handler http.Handler
}

func New(cfg Config, log logx.Logger, status StatusFunc, alive func() bool) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = DefaultAddr
	}
	s := &Server{cfg: cfg, log: log, status: status, alive: alive}
	s.handler = s.routes()
	return s
}

// Check reports whether the configured bind is allowed.
func (s *Server) Check() error {
	if s.cfg.AllowInsecure || s.cfg.Token != "" || isLoopbackAddr(s.cfg.Addr) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInsecureBind, s.cfg.Addr)
}

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	wrap := func(h http.HandlerFunc) http.HandlerFunc { return withAuth(s.cfg.Token, h) }

	mux.HandleFunc("/healthz", wrap(s.healthz))
	mux.HandleFunc("/status", wrap(s.statusz))

	mux.HandleFunc(pprofPrefix, wrap(hpprof.Index))
	mux.HandleFunc(pprofPrefix+"cmdline", wrap(hpprof.Cmdline))
	mux.HandleFunc(pprofPrefix+"profile", wrap(hpprof.Profile))
	mux.HandleFunc(pprofPrefix+"symbol", wrap(hpprof.Symbol))
	mux.HandleFunc(pprofPrefix+"trace", wrap(hpprof.Trace))
	return mux
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	if s.alive != nil && !s.alive() {
		http.Error(w, "loop stalled", http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) statusz(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		http.Error(w, "status unavailable", http.StatusNotFound)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	v, err := s.status(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.log.Warn("status encode failed", logx.Err(err))
	}
}

// Serve listens on the configured address until ctx ends. It returns nil after
// a clean shutdown and an error when the listener fails, so callers can restart it.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Check(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("debugserver listen %s: %w", s.cfg.Addr, err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
	}
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	s.log.Info("debug server started",
		logx.String("addr", ln.Addr().String()),
		logx.Bool("token_set", s.cfg.Token != ""),
	)
	err = srv.Serve(ln)
	if ctx.Err() != nil {
		<-stopped
		s.log.Info("debug server stopped")
		return nil
	}
	_ = srv.Close()
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		err = errors.New("debug server exited unexpectedly")
	}
	return err
}

// withAuth accepts "Authorization: Bearer <token>" or ?token=<token>.
func withAuth(token string, h http.HandlerFunc) http.HandlerFunc {
	tok := strings.TrimSpace(token)
	if tok == "" {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		got := r.URL.Query().Get("token")
		if got == "" {
			got = strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(tok)) == 1 {
			h(w, r)
			return
		}
		w.Header().Set("WWW-Authenticate", "Bearer")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
}

func isLoopbackAddr(addr string) bool {
	h, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	h = strings.TrimSpace(h)
	if h == "" {
		return false
	}
	if strings.EqualFold(h, "localhost") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}
