// Package api provides the HTTP REST API for the project tracker.
//
// The server follows the same lifecycle pattern as the infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenitiumdev/project-tracker/internal/audit"
	"github.com/cenitiumdev/project-tracker/internal/auth"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/config"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/database"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/influxdb"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/logging"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/mqtt"
	"github.com/cenitiumdev/project-tracker/internal/project"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config        config.APIConfig
	Logger        *logging.Logger
	DB            *database.DB
	Accounts      auth.AccountRepository
	Authenticator *auth.Authenticator
	Registrar     *auth.Registrar
	Codec         *auth.TokenCodec
	Filter        *auth.IdentityFilter
	Projects      *project.Service
	Audit         audit.Repository // optional
	MQTT          *mqtt.Client     // optional, reported by /metrics only
	Influx        *influxdb.Client // optional
	Version       string
}

// Server is the HTTP API server.
type Server struct {
	cfg           config.APIConfig
	logger        *logging.Logger
	db            *database.DB
	accounts      auth.AccountRepository
	authenticator *auth.Authenticator
	registrar     *auth.Registrar
	codec         *auth.TokenCodec
	filter        *auth.IdentityFilter
	projects      *project.Service
	auditRepo     audit.Repository
	auditCh       chan *audit.AuditLog
	mqtt          *mqtt.Client
	influx        *influxdb.Client
	version       string
	startTime     time.Time
	now           func() time.Time
	server        *http.Server
	cancel        context.CancelFunc
	auditDone     chan struct{}
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	case deps.Accounts == nil:
		return nil, fmt.Errorf("account repository is required")
	case deps.Authenticator == nil, deps.Registrar == nil:
		return nil, fmt.Errorf("authenticator and registrar are required")
	case deps.Codec == nil, deps.Filter == nil:
		return nil, fmt.Errorf("token codec and identity filter are required")
	case deps.Projects == nil:
		return nil, fmt.Errorf("project service is required")
	}

	s := &Server{
		cfg:           deps.Config,
		logger:        deps.Logger,
		db:            deps.DB,
		accounts:      deps.Accounts,
		authenticator: deps.Authenticator,
		registrar:     deps.Registrar,
		codec:         deps.Codec,
		filter:        deps.Filter,
		projects:      deps.Projects,
		auditRepo:     deps.Audit,
		mqtt:          deps.MQTT,
		influx:        deps.Influx,
		version:       deps.Version,
		startTime:     time.Now(),
		now:           time.Now,
	}
	if s.auditRepo != nil {
		s.auditCh = make(chan *audit.AuditLog, auditChanSize)
	}
	return s, nil
}

// Start launches the HTTP listener and the audit writer in the background.
// Stop both with Close.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.auditCh != nil {
		s.auditDone = make(chan struct{})
		go func() {
			defer close(s.auditDone)
			s.drainAuditLog(srvCtx)
		}()
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close drains in-flight requests for up to 10 seconds, then flushes
// pending audit entries.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)

	if s.cancel != nil {
		s.cancel()
	}
	if s.auditDone != nil {
		<-s.auditDone
	}

	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
