package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dtroode/homestock-server/internal/api/grpc/proto"
	"github.com/dtroode/homestock-server/internal/logger"
	"github.com/dtroode/homestock-server/internal/model"
)

// MaintenanceService is the ledger maintenance behaviour the handler exposes.
type MaintenanceService interface {
	Cleanup(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (model.RevocationStats, error)
	Revoke(ctx context.Context, raw string) error
}

var _ proto.MaintenanceServer = (*Maintenance)(nil)

// Maintenance serves homestock.auth.v1.Maintenance.
type Maintenance struct {
	service        MaintenanceService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewMaintenance(service MaintenanceService, contextManager model.ContextManager, logger *logger.Logger) *Maintenance {
	return &Maintenance{
		service:        service,
		contextManager: contextManager,
		logger:         logger,
	}
}

func (h *Maintenance) Cleanup(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	removed, err := h.service.Cleanup(ctx)
	if err != nil {
		return nil, handleError(err)
	}

	h.logger.Info("Maintenance handler: manual cleanup",
		"operator", h.operator(ctx),
		"removed", removed)

	return wrapperspb.Int64(removed), nil
}

func (h *Maintenance) Stats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	stats, err := h.service.Stats(ctx)
	if err != nil {
		return nil, handleError(err)
	}

	out, err := structpb.NewStruct(map[string]any{
		"total":   stats.Total,
		"active":  stats.Active,
		"expired": stats.Expired,
	})
	if err != nil {
		return nil, handleError(err)
	}
	return out, nil
}

func (h *Maintenance) Revoke(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if in.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}

	if err := h.service.Revoke(ctx, in.GetValue()); err != nil {
		return nil, handleError(err)
	}

	h.logger.Info("Maintenance handler: token revoked by operator",
		"operator", h.operator(ctx))

	return &emptypb.Empty{}, nil
}

func (h *Maintenance) operator(ctx context.Context) string {
	if identity, ok := h.contextManager.GetIdentityFromContext(ctx); ok {
		return identity.Username
	}
	return ""
}
