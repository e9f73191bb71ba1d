package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/userdirectory/internal/logging"
	"github.com/dmitrijs2005/userdirectory/internal/server/apikeys"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-check name of the user directory.
const ServiceName = "userdirectory"

const pingTimeout = 2 * time.Second

// Pinger reports database reachability. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// KeyValidator resolves API keys. *apikeys.Validator satisfies it.
type KeyValidator interface {
	Validate(ctx context.Context, apiKey string) (apikeys.Result, error)
}

// GRPCServer hosts the standard gRPC health service plus any services added
// with WithServices. Serving status follows a periodic database ping. Calls
// to any service other than health must carry a valid API key in the
// x-api-key metadata entry.
type GRPCServer struct {
	address   string
	logger    logging.Logger
	pinger    Pinger
	validator KeyValidator
	interval  time.Duration
	health    *health.Server
	register  []func(*grpc.Server)
}

// Option configures a GRPCServer.
type Option func(*GRPCServer)

// WithServices adds registration callbacks run against the grpc.Server
// before it starts serving.
func WithServices(register ...func(*grpc.Server)) Option {
	return func(s *GRPCServer) {
		s.register = append(s.register, register...)
	}
}

// NewGRPCServer builds a server listening on a. A non-positive interval
// selects a 15 second health check period.
func NewGRPCServer(a string, l logging.Logger, p Pinger, v KeyValidator, interval time.Duration, opts ...Option) *GRPCServer {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	s := &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		pinger:    p,
		validator: v,
		interval:  interval,
		health:    health.NewServer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.apiKeyInterceptor),
		grpc.ChainStreamInterceptor(s.apiKeyStreamInterceptor),
	)

	healthpb.RegisterHealthServer(srv, s.health)
	for _, register := range s.register {
		register(srv)
	}

	go s.watchHealth(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

// watchHealth pings the database immediately and then every interval until
// ctx is done.
func (s *GRPCServer) watchHealth(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		st := s.checkOnce(ctx)
		if st != last {
			s.logger.Info(ctx, "health status changed", "status", st.String())
			last = st
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *GRPCServer) checkOnce(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.PingContext(pingCtx); err != nil {
		if ctx.Err() != nil {
			return healthpb.HealthCheckResponse_NOT_SERVING
		}
		s.logger.Warn(ctx, "database ping failed", "error", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	return st
}
