package router

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/homestock-server/internal/api/grpc/handler"
	"github.com/dtroode/homestock-server/internal/api/grpc/middleware"
	"github.com/dtroode/homestock-server/internal/api/grpc/proto"
	"github.com/dtroode/homestock-server/internal/logger"
	"github.com/dtroode/homestock-server/internal/model"
)

// Router assembles the operator gRPC surface.
type Router struct {
	maintenance    handler.MaintenanceService
	tokenService   middleware.TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// New creates new gRPC Router instance.
func New(
	maintenance handler.MaintenanceService,
	tokenService middleware.TokenService,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		maintenance:    maintenance,
		tokenService:   tokenService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// authRequired is false only for the health service.
func authRequired(_ context.Context, c interceptors.CallMeta) bool {
	return !strings.HasPrefix(c.FullMethod(), "/"+healthpb.Health_ServiceDesc.ServiceName+"/")
}

// Register builds the gRPC server with logging and bearer authentication
// interceptors and registers every service.
func (r *Router) Register() *grpc.Server {
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)
	logging := middleware.NewLogging(r.logger, r.contextManager)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authRequired),
			),
			logging.HandleGRPC,
		),
		grpc.ChainStreamInterceptor(
			selector.StreamServerInterceptor(
				auth.StreamServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authRequired),
			),
		),
	)

	r.registerHealth(s)
	r.registerMaintenance(s)

	return s
}

func (r *Router) registerHealth(server *grpc.Server) {
	hs := health.NewServer()
	hs.SetServingStatus(proto.MaintenanceServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)
}

func (r *Router) registerMaintenance(server *grpc.Server) {
	h := handler.NewMaintenance(r.maintenance, r.contextManager, r.logger)
	proto.RegisterMaintenanceServer(server, h)
}
