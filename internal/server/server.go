// Package server hosts the form components on echo with request logging,
// Prometheus metrics and a health probe.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goliatone/go-formpipe/components/catalog"
	"github.com/goliatone/go-formpipe/components/registration"
	"github.com/goliatone/go-formpipe/pkg/config"
	"github.com/goliatone/go-formpipe/pkg/metrics"
	"github.com/goliatone/go-formpipe/pkg/render"
	"github.com/goliatone/go-formpipe/pkg/session"
	"github.com/goliatone/go-formpipe/pkg/submission"
	"github.com/goliatone/go-formpipe/pkg/transport"
)

const shutdownTimeout = 10 * time.Second

// Server owns the echo instance and everything mounted on it.
type Server struct {
	cfg    config.Config
	echo   *echo.Echo
	logger *zap.Logger
	routes []string
}

// New wires the components from cfg. client is the shared backend client;
// each inbound request gets a copy carrying that request's cookies.
func New(cfg config.Config, client *transport.HTTPClient, logger *zap.Logger) (*Server, error) {
	if client == nil {
		return nil, errors.New("server: missing transport client")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	adapter := func(r *http.Request) transport.Adapter {
		return collector.InstrumentAdapter(client.With(session.ForwardCookies(r)))
	}

	html, err := render.NewHTML(
		render.WithTemplates(catalog.Templates()),
		render.WithThemeSelector(render.StaticTheme(render.DefaultManifest())),
		render.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(requestLogger(logger))

	s := &Server{cfg: cfg, echo: e, logger: logger}
	mux := echoMux{e: e}

	pattern, err := registration.RegisterRoutes(mux, cfg.Server.BasePath,
		registration.WithAdapterFunc(adapter),
		registration.WithRenderer(html),
		registration.WithRedirect(cfg.Submission.Redirect),
		registration.WithLogger(logger.Named("registration")),
		registration.WithCoordinatorOptions(
			submission.WithSecretLength(cfg.Submission.SecretLength),
			submission.WithObserver(
				collector.Observer(),
				submission.LogObserver{Logger: logger.Named("submission")},
			),
		),
	)
	if err != nil {
		return nil, err
	}
	s.routes = append(s.routes, pattern)

	pattern, err = catalog.RegisterRoutes(mux, cfg.Server.BasePath,
		catalog.WithAdapterFunc(adapter),
		catalog.WithRenderer(html),
		catalog.WithLogger(logger.Named("catalog")),
	)
	if err != nil {
		return nil, err
	}
	s.routes = append(s.routes, pattern)

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	return s, nil
}

// NewTransport builds the shared backend client from cfg.
func NewTransport(cfg config.API, logger *zap.Logger) (*transport.HTTPClient, error) {
	return transport.NewHTTPClient(cfg.BaseURL,
		transport.WithTimeout(cfg.Timeout),
		transport.WithUserAgent(cfg.UserAgent),
		transport.WithMaxBodyBytes(cfg.MaxBodyBytes),
		transport.WithLogger(logger),
	)
}

// Echo exposes the underlying instance.
func (s *Server) Echo() *echo.Echo { return s.echo }

// Routes lists the mounted component patterns.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.echo,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", srv.Addr), zap.Strings("routes", s.routes))
		errCh <- s.echo.StartServer(srv)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// echoMux lets components register plain net/http handlers on echo.
type echoMux struct {
	e *echo.Echo
}

func (m echoMux) Handle(pattern string, handler http.Handler) {
	m.e.Any(pattern, echo.WrapHandler(handler))
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			logger.Info("request",
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("route", c.Path()),
				zap.Int("status", res.Status),
				zap.Duration("response_time", time.Since(start)),
				zap.Int64("response_size", res.Size),
				zap.String("remote_ip", c.RealIP()),
			)
			return nil
		}
	}
}
