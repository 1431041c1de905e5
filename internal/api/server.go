// Package api provides the HTTP REST API and WebSocket server for the seat planner.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/seatplan-core/internal/arrangement"
	"github.com/nerrad567/seatplan-core/internal/infrastructure/config"
	"github.com/nerrad567/seatplan-core/internal/infrastructure/logging"
	"github.com/nerrad567/seatplan-core/internal/roster"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Roster is the member directory and attendance store the API edits.
// *roster.SQLiteRepository satisfies it.
type Roster interface {
	arrangement.MemberDirectory
	arrangement.AttendanceService
	GetMember(ctx context.Context, id string) (arrangement.DirectoryMember, error)
	CreateMember(ctx context.Context, m arrangement.DirectoryMember) error
	DeleteMember(ctx context.Context, id string) error
	MarkUnavailable(ctx context.Context, memberID, date, reason string) error
	ClearUnavailable(ctx context.Context, memberID, date string) error
	ListAbsences(ctx context.Context, date string) ([]roster.Absence, error)
}

// Publisher sends arrangements and emergency changes downstream.
// *publish.Publisher satisfies it.
type Publisher interface {
	PublishArrangement(ctx context.Context, doc *arrangement.Document) error
	ShareArrangement(ctx context.Context, doc *arrangement.Document, recipients []string, note string) error
	NotifyEmergency(ctx context.Context, arrangementID, date string, rec arrangement.EmergencyChangeRecord) error
	RecordSnapshot(doc *arrangement.Document, event string)
}

// Database is the subset of the database handle used for health and metrics.
type Database interface {
	HealthCheck(ctx context.Context) error
	Stats() sql.DBStats
}

// BrokerStatus reports MQTT connectivity.
type BrokerStatus interface {
	IsConnected() bool
}

// Compile-time check that the SQLite roster satisfies the API boundary.
var _ Roster = (*roster.SQLiteRepository)(nil)

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config       config.APIConfig
	WS           config.WebSocketConfig
	Seating      config.SeatingConfig
	Logger       *logging.Logger
	Registry     *arrangement.Registry
	Arrangements arrangement.Repository
	Roster       Roster       // optional: member endpoints return 503 without it
	Publisher    Publisher    // optional: publish and share return 503 without it
	DB           Database     // optional
	MQTT         BrokerStatus // optional
	Metrics      *Metrics     // optional
	Gatherer     prometheus.Gatherer
	ExternalHub  *Hub // If set, the server uses this hub instead of creating its own
	Version      string

	// Location decides the calendar day of "today" for attendance; UTC when nil.
	Location *time.Location
}

// Server is the HTTP API server for the seat planner.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg          config.APIConfig
	wsCfg        config.WebSocketConfig
	seatingCfg   config.SeatingConfig
	logger       *logging.Logger
	registry     *arrangement.Registry
	arrangements arrangement.Repository
	roster       Roster
	publisher    Publisher
	db           Database
	mqtt         BrokerStatus
	metrics      *Metrics
	gatherer     prometheus.Gatherer
	version      string
	location     *time.Location
	now          func() time.Time
	startTime    time.Time
	server       *http.Server
	hub          *Hub
	externalHub  bool               // true if hub was injected externally
	cancel       context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, session registry, arrangement repository)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("arrangement registry is required")
	}
	if deps.Arrangements == nil {
		return nil, fmt.Errorf("arrangement repository is required")
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	location := deps.Location
	if location == nil {
		location = time.UTC
	}

	s := &Server{
		cfg:          deps.Config,
		wsCfg:        deps.WS,
		seatingCfg:   deps.Seating,
		logger:       deps.Logger,
		registry:     deps.Registry,
		arrangements: deps.Arrangements,
		roster:       deps.Roster,
		publisher:    deps.Publisher,
		db:           deps.DB,
		mqtt:         deps.MQTT,
		metrics:      deps.Metrics,
		gatherer:     gatherer,
		version:      deps.Version,
		location:     location,
		now:          time.Now,
		startTime:    time.Now(),
	}

	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	}

	return s, nil
}

// today returns the current calendar date in the service time zone.
func (s *Server) today() string {
	return s.now().In(s.location).Format(time.DateOnly)
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		go s.hub.Run(srvCtx)
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
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

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
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

// Hub returns the WebSocket hub, or nil before Start.
func (s *Server) Hub() *Hub {
	return s.hub
}
