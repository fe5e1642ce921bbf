package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/akave-ai/udplog/internal/config"
	"github.com/akave-ai/udplog/internal/handler"
	"github.com/akave-ai/udplog/internal/infrastructure/inputs"
	_ "github.com/akave-ai/udplog/internal/infrastructure/inputs/httpinput"
	_ "github.com/akave-ai/udplog/internal/infrastructure/inputs/udpinput"
	"github.com/akave-ai/udplog/internal/ingest"
	"github.com/akave-ai/udplog/internal/metrics"
	"github.com/akave-ai/udplog/internal/ratelimit"
	"github.com/akave-ai/udplog/internal/response"
	"github.com/akave-ai/udplog/internal/storage"
)

const shutdownTimeout = 5 * time.Second

// Deps are the collaborators built by the caller. Zero values are usable.
type Deps struct {
	Logger   zerolog.Logger
	NewRelic *newrelic.Application
	// Metrics is the Prometheus registry served on /metrics. Nil creates a private one.
	Metrics *prometheus.Registry
	// Inputs defaults to inputs.GlobalRegistry.
	Inputs *inputs.Registry
}

// Server owns the ingestion pipeline, its inputs and the optional admin API.
type Server struct {
	// Echo is nil when admin.listen is empty.
	Echo   *echo.Echo
	Config *config.Config

	logger     zerolog.Logger
	pipeline   *ingest.Pipeline
	inputs     *handler.InputHandler
	ingestD    *IngestDispatcher
	recentLogs *RecentLogsStore
	registry   *prometheus.Registry

	adminLn   net.Listener
	running   atomic.Bool
	startedAt time.Time
	ready     chan struct{}
}

// New builds the pipeline and inputs from cfg. Nothing is bound until Start.
// The log file is created here so a bad sink path fails before any socket is opened.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if err := storage.EnsureFile(cfg.Sink.Path); err != nil {
		return nil, err
	}
	if deps.Metrics == nil {
		deps.Metrics = prometheus.NewRegistry()
	}
	if deps.Inputs == nil {
		deps.Inputs = inputs.GlobalRegistry
	}

	s := &Server{
		Config:     cfg,
		logger:     deps.Logger.With().Str("component", "server").Logger(),
		ingestD:    NewIngestDispatcher(),
		recentLogs: newRecentLogsStore(defaultRecentCapacity),
		registry:   deps.Metrics,
		ready:      make(chan struct{}),
	}

	limiter := ratelimit.New(ratelimit.Config{
		Limit:      cfg.Ingest.RateLimit,
		Window:     cfg.Ingest.RateWindow,
		MaxClients: cfg.Ingest.MaxClients,
		IdleTTL:    cfg.Ingest.ClientIdleTTL,
	})
	s.pipeline = ingest.NewPipeline(limiter, storage.NewFileSink(cfg.Sink.Path, cfg.Sink.Sync), deps.Logger, ingest.Options{
		ServiceName: cfg.Service.Name,
		Workers:     cfg.Ingest.Workers,
		QueueSize:   cfg.Ingest.QueueSize,
		Metrics:     metrics.New(deps.Metrics),
		NewRelic:    deps.NewRelic,
		OnWrite:     s.recentLogs.Add,
	})

	s.inputs = handler.NewInputHandler(deps.Inputs, s.pipeline)
	s.inputs.MountIngest = s.ingestD.Mount
	s.inputs.UnmountIngest = s.ingestD.Unmount

	_, err := s.inputs.CreateInput(inputs.InputSpec{
		Type:  "udp",
		Title: "primary",
		Config: inputs.Config{
			"bind_ip":           cfg.Server.IP,
			"port":              cfg.Server.Port,
			"max_datagram_size": cfg.Ingest.MaxDatagramSize,
		},
	})
	if err != nil {
		return nil, err
	}

	if cfg.Admin.Listen != "" {
		if cfg.Ingest.HTTPPath != "" {
			_, err := s.inputs.CreateInput(inputs.InputSpec{
				Type:        "http",
				Title:       "http-" + cfg.Ingest.HTTPPath,
				Description: cfg.Ingest.HTTPPath,
			})
			if err != nil {
				return nil, err
			}
		}
		s.Echo = s.newAdmin()
	}

	s.logger.Info().Strs("input_types", deps.Inputs.ListRegistered()).Msg("registered input types")
	return s, nil
}

func (s *Server) newAdmin() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover(), middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("admin request")
			return nil
		},
	}))

	e.GET("/health", s.health)
	e.GET("/stats", s.stats)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	e.GET("/logs/recent", s.recent)

	e.GET("/inputs", s.inputs.ListInputs)
	e.GET("/inputs/types", s.inputs.ListTypes)
	e.GET("/inputs/types/:type", s.inputs.GetTypeInfo)
	e.GET("/inputs/info", s.inputs.GetAllTypesInfo)

	// GET returns the recent lines in the same envelope; other methods go to mounted http inputs.
	e.Any("/ingest/*", func(c echo.Context) error {
		if c.Request().Method == http.MethodGet {
			return s.recent(c)
		}
		return echo.WrapHandler(s.ingestD)(c)
	})
	return e
}

func (s *Server) health(c echo.Context) error {
	if !s.running.Load() {
		return response.ServiceUnavailable(c, "not running", "ingestion is not running")
	}
	return response.OK(c, map[string]any{"status": "ok"}, "")
}

func (s *Server) stats(c echo.Context) error {
	var uptime float64
	if s.running.Load() {
		uptime = time.Since(s.startedAt).Seconds()
	}
	return response.OK(c, map[string]any{
		"pipeline":       s.pipeline.Stats(),
		"inputs_running": s.inputs.Running(),
		"uptime_seconds": uptime,
	}, "")
}

func (s *Server) recent(c echo.Context) error {
	return response.OK(c, map[string]any{"logs": s.recentLogs.GetRecent()}, "")
}

// Start runs the pipeline, binds the inputs and serves the admin API. It blocks until ctx is
// cancelled or the admin server fails, then shuts down: inputs first, then the pipeline workers,
// then the admin server. A bind failure is returned before anything is served.
func (s *Server) Start(ctx context.Context) error {
	pctx, cancelPipeline := context.WithCancel(context.Background())
	defer cancelPipeline()
	pipeDone := make(chan error, 1)
	go func() { pipeDone <- s.pipeline.Run(pctx) }()

	stopPipeline := func() error {
		cancelPipeline()
		return <-pipeDone
	}

	if err := s.inputs.StartAll(); err != nil {
		_ = stopPipeline()
		return err
	}

	adminErr := make(chan error, 1)
	if s.Echo != nil {
		ln, err := net.Listen("tcp", s.Config.Admin.Listen)
		if err != nil {
			s.inputs.StopAll()
			_ = stopPipeline()
			return fmt.Errorf("admin listen %s: %w", s.Config.Admin.Listen, err)
		}
		s.adminLn = ln
		s.Echo.Listener = ln
		go func() {
			if err := s.Echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
				adminErr <- err
			}
		}()
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("admin API listening")
	}

	s.startedAt = time.Now()
	s.running.Store(true)
	if addr := s.UDPAddr(); addr != nil {
		s.logger.Info().Str("addr", addr.String()).Str("service", s.Config.Service.Name).Msg("UDP logging service listening")
	}
	close(s.ready)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-adminErr:
		s.logger.Error().Err(runErr).Msg("admin API failed")
	}

	s.logger.Info().Msg("shutting down")
	s.running.Store(false)
	s.inputs.StopAll()
	if err := stopPipeline(); err != nil && runErr == nil {
		runErr = err
	}
	if err := s.Shutdown(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	s.logger.Info().Interface("stats", s.pipeline.Stats()).Msg("stopped")
	return runErr
}

// Shutdown stops the admin server. Inputs and workers are stopped by Start when its context ends.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.Echo == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.Echo.Shutdown(ctx)
}

// Ready is closed once the inputs are bound and the admin API is listening.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// UDPAddr is the bound UDP address, or nil before Start.
func (s *Server) UDPAddr() net.Addr { return s.inputs.PacketAddr() }

// AdminAddr is the admin listener address, or nil when the admin API is disabled.
func (s *Server) AdminAddr() net.Addr {
	if s.adminLn == nil {
		return nil
	}
	return s.adminLn.Addr()
}

// Stats returns the pipeline counters.
func (s *Server) Stats() ingest.Stats { return s.pipeline.Stats() }
