package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/grpc"

	"github.com/dtroode/homestock-server/internal/model"
)

var _ model.Server = (*GRPCServer)(nil)

// GRPCServer binds a *grpc.Server to an address and the model.Server lifecycle.
type GRPCServer struct {
	server *grpc.Server
	addr   string

	mu     sync.Mutex
	listen string
}

// NewGRPCServer creates a GRPCServer with given server and address.
func NewGRPCServer(server *grpc.Server, addr string) *GRPCServer {
	return &GRPCServer{server: server, addr: addr}
}

// Start listens through securityLayer and serves until Stop is called.
// A graceful stop returns nil.
func (s *GRPCServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.mu.Lock()
	s.listen = listener.Addr().String()
	s.mu.Unlock()

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop drains in-flight calls. When ctx ends first the remaining
// connections are closed forcibly.
func (s *GRPCServer) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		<-done
		return ctx.Err()
	}
}

// Address returns the bound address once listening, the configured one before.
func (s *GRPCServer) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listen != "" {
		return s.listen
	}
	return s.addr
}
