package server

import (
	"context"
	"errors"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// GRPCService serves a gRPC server on a listener. Stop marks the health
// service NOT_SERVING and drains in-flight calls until the deadline, then
// forces the server down.
type GRPCService struct {
	Server   *grpc.Server
	Health   *health.Server
	Listener net.Listener
}

// Start serves until Stop.
func (g *GRPCService) Start() error {
	err := g.Server.Serve(g.Listener)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Stop drains the server.
func (g *GRPCService) Stop(ctx context.Context) {
	if g.Health != nil {
		g.Health.Shutdown()
	}
	done := make(chan struct{})
	go func() {
		g.Server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		g.Server.Stop()
		<-done
	}
}
