package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-sensors/internal/audit"
	"github.com/nerrad567/gray-logic-sensors/internal/auth"
	"github.com/nerrad567/gray-logic-sensors/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-sensors/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-sensors/internal/sensor"
	"github.com/nerrad567/gray-logic-sensors/internal/sensortype"
	"github.com/nerrad567/gray-logic-sensors/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// Deps wires the server to the rest of the service. Telemetry, Audit and
// AuditRepo may be nil; their endpoints then answer 503 and mutations go
// unaudited.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Catalogue   config.CatalogueConfig
	Logger      *logging.Logger
	Auth        *auth.Authenticator
	SensorTypes *sensortype.Registry
	Sensors     sensor.Repository
	Telemetry   *telemetry.Store
	Audit       *audit.Recorder
	AuditRepo   audit.Repository
	Version     string
}

// Server exposes the catalogue, inventory, codec and telemetry over HTTP
// and pushes change events over WebSocket.
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	catCfg      config.CatalogueConfig
	logger      *logging.Logger
	auth        *auth.Authenticator
	sensorTypes *sensortype.Registry
	sensors     sensor.Repository
	telemetry   *telemetry.Store
	audit       *audit.Recorder
	auditRepo   audit.Repository
	version     string

	hub          *Hub
	loginLimiter *clientLimiter
	server       *http.Server
	cancel       context.CancelFunc
}

// New checks the required dependencies and subscribes the WebSocket hub
// to catalogue changes. Nothing listens until Start.
func New(deps Deps) (*Server, error) {
	required := []struct {
		missing bool
		name    string
	}{
		{deps.Logger == nil, "logger"},
		{deps.Auth == nil, "authenticator"},
		{deps.SensorTypes == nil, "sensor type registry"},
		{deps.Sensors == nil, "sensor repository"},
	}
	for _, r := range required {
		if r.missing {
			return nil, fmt.Errorf("%s is required", r.name)
		}
	}

	s := &Server{
		cfg:         deps.Config,
		wsCfg:       deps.WS,
		catCfg:      deps.Catalogue,
		logger:      deps.Logger.With("component", "api"),
		auth:        deps.Auth,
		sensorTypes: deps.SensorTypes,
		sensors:     deps.Sensors,
		telemetry:   deps.Telemetry,
		audit:       deps.Audit,
		auditRepo:   deps.AuditRepo,
		version:     deps.Version,
	}
	s.hub = NewHub(s.wsCfg, s.logger)
	s.loginLimiter = newLoginLimiter(s.cfg.LoginRateLimit)
	s.sensorTypes.Observe(s.broadcastSensorTypeChange)
	return s, nil
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start binds the listen address and serves in the background until Close.
// A port that cannot be bound is reported here rather than logged later.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	var hubCtx context.Context
	hubCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(hubCtx)

	read := time.Duration(s.cfg.Timeouts.Read) * time.Second
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.buildRouter(),
		ReadTimeout:       read,
		ReadHeaderTimeout: read,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	tls := s.cfg.TLS
	s.logger.Info("API server listening", "address", addr, "tls", tls.Enabled)
	go func() {
		var serveErr error
		if tls.Enabled {
			serveErr = s.server.ServeTLS(ln, tls.CertFile, tls.KeyFile)
		} else {
			serveErr = s.server.Serve(ln)
		}
		if !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("API server stopped unexpectedly", "error", serveErr)
		}
	}()
	return nil
}

// Close stops the hub and waits up to shutdownTimeout for in-flight
// requests. WebSocket connections are closed by the hub, not awaited.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	s.logger.Info("API server stopped")
	return nil
}

// HealthCheck fails before Start.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.server == nil {
		return errors.New("api server not started")
	}
	return nil
}

// auditLog queues an audit entry. It is a no-op without a recorder.
func (s *Server) auditLog(action, entityType, entityID, userID string, details map[string]any) {
	s.audit.Record(&audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		UserID:     userID,
		Details:    details,
	})
}
