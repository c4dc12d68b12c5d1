// Package health publishes the standard gRPC health service and keeps its
// status in step with connectivity to the remote store.
package health

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Service is the name clients check for the event directory.
const Service = "campusevents.v1.Directory"

type Subscriber interface {
	Online() bool
	Subscribe(fn func(online bool)) (unsubscribe func())
}

type Reporter struct {
	srv   *health.Server
	unsub func()
}

// Register adds the health and reflection services to s. The directory
// service reports SERVING while the monitor is online.
func Register(s *grpc.Server, m Subscriber) *Reporter {
	r := &Reporter{srv: health.NewServer()}
	healthpb.RegisterHealthServer(s, r.srv)
	reflection.Register(s)

	r.set(m.Online())
	r.unsub = m.Subscribe(r.set)
	return r
}

func (r *Reporter) set(online bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if online {
		st = healthpb.HealthCheckResponse_SERVING
	}
	r.srv.SetServingStatus(Service, st)
}

func (r *Reporter) Server() healthpb.HealthServer { return r.srv }

// Shutdown marks every service NOT_SERVING and stops following the monitor.
func (r *Reporter) Shutdown() {
	r.unsub()
	r.srv.Shutdown()
}
