package health

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported for the store.
const ServiceName = "mangastore.Store"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Checker keeps the gRPC health status in line with the database: SERVING
// while a ping succeeds, NOT_SERVING otherwise.
type Checker struct {
	DB       Pinger
	Server   *health.Server
	Interval time.Duration
	Timeout  time.Duration
}

func NewChecker(db Pinger) *Checker {
	return &Checker{
		DB:       db,
		Server:   health.NewServer(),
		Interval: 10 * time.Second,
		Timeout:  2 * time.Second,
	}
}

// Check pings once and records the result under both the overall ("")
// and the store service name.
func (c *Checker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := c.DB.PingContext(pingCtx); err != nil {
		log.Printf("[health] db ping failed: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.Server.SetServingStatus("", status)
	c.Server.SetServingStatus(ServiceName, status)
	return status
}

// Run checks immediately and then every Interval until ctx is done, after
// which every status is set to NOT_SERVING.
func (c *Checker) Run(ctx context.Context) {
	c.Check(ctx)

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.Server.Shutdown()
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// NewGRPCServer returns a gRPC server exposing grpc.health.v1.Health.
func NewGRPCServer(c *Checker) *grpc.Server {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, c.Server)
	return srv
}
