package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/medpipe/logger"
	"github.com/kbukum/medpipe/server/endpoint"
	"github.com/kbukum/medpipe/server/middleware"
)

const (
	readHeaderTimeout = 5 * time.Second
	maxShutdownWait   = 10 * time.Second
	maxH2Streams      = 250
)

// Server serves a Gin engine over HTTP/1.1 and cleartext HTTP/2.
type Server struct {
	engine  *gin.Engine
	handler http.Handler
	http    *http.Server
	cfg     Config
	log     *logger.Logger

	listener atomic.Pointer[net.Listener]
}

// New builds the server. Request ID, request logging, CORS and the body
// limit wrap the engine at the net/http level so they also cover requests
// Gin never routes. Gin-level middleware goes through ApplyMiddleware.
func New(cfg Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	mode := gin.ReleaseMode
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	handler := middleware.Chain(
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.CORS(&cfg.CORS),
		middleware.BodySizeLimit(cfg.MaxBodySize),
	)(engine)

	return &Server{
		engine:  engine,
		handler: handler,
		http: &http.Server{
			Addr: cfg.addr(),
			Handler: h2c.NewHandler(handler, &http2.Server{
				MaxConcurrentStreams: maxH2Streams,
				IdleTimeout:          cfg.IdleTimeout,
			}),
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		cfg: cfg,
		log: log.WithComponent("server"),
	}
}

// GinEngine is where routes are registered.
func (s *Server) GinEngine() *gin.Engine { return s.engine }

// Handler is the engine behind the handler-level middleware, without h2c.
func (s *Server) Handler() http.Handler { return s.handler }

// Start returns once the port is bound; serving continues in the background.
func (s *Server) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.http.Addr, err)
	}
	s.listener.Store(&ln)

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	s.log.Info("HTTP server listening", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Stop drains in-flight requests until ctx is done, for at most
// maxShutdownWait.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, maxShutdownWait)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Error("shutdown incomplete", logger.Fields(logger.FieldError, err.Error()))
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// Addr is the bound address once started, the configured one before.
func (s *Server) Addr() string {
	if ln := s.listener.Load(); ln != nil {
		return (*ln).Addr().String()
	}
	return s.http.Addr
}

func (s *Server) Listening() bool { return s.listener.Load() != nil }

// ApplyMiddleware installs panic recovery, rendered by onPanic, ahead of
// extra.
func (s *Server) ApplyMiddleware(onPanic middleware.PanicHandler, extra ...gin.HandlerFunc) {
	s.engine.Use(middleware.Recovery(s.log, onPanic))
	s.engine.Use(extra...)
}

// RegisterDefaultEndpoints mounts the probes and build information.
func (s *Server) RegisterDefaultEndpoints(service, environment string, checker endpoint.HealthChecker, details map[string]any) {
	for path, h := range map[string]gin.HandlerFunc{
		"/health":  endpoint.Health(service, checker),
		"/livez":   endpoint.Liveness(service),
		"/readyz":  endpoint.Readiness(service, checker),
		"/version": endpoint.Version(),
		"/info":    endpoint.Info(service, environment, details),
	} {
		s.engine.GET(path, h)
	}
}
