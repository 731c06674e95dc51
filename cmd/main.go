package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	grpcctx "github.com/dtroode/homestock-server/internal/api/grpc/context"
	"github.com/dtroode/homestock-server/internal/api/grpc/router"
	grpcServer "github.com/dtroode/homestock-server/internal/api/grpc/server"
	httpapi "github.com/dtroode/homestock-server/internal/api/http"
	"github.com/dtroode/homestock-server/internal/config"
	"github.com/dtroode/homestock-server/internal/keys"
	"github.com/dtroode/homestock-server/internal/logger"
	"github.com/dtroode/homestock-server/internal/model"
	"github.com/dtroode/homestock-server/internal/password"
	"github.com/dtroode/homestock-server/internal/repository/memory"
	"github.com/dtroode/homestock-server/internal/repository/postgres"
	redisrepo "github.com/dtroode/homestock-server/internal/repository/redis"
	"github.com/dtroode/homestock-server/internal/server"
	"github.com/dtroode/homestock-server/internal/service"
	"github.com/dtroode/homestock-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel, cfg.LogFormat)

	logAppVersion()

	mode, err := keys.ParseMode(cfg.Token.Mode)
	if err != nil {
		logger.Fatal("invalid signature mode", "error", err)
	}
	keyManager, err := keys.NewProvider(mode, rand.Reader).Get()
	if err != nil {
		logger.Fatal("failed to generate signing keys", "error", err)
	}
	for _, pk := range keyManager.PublicKeys() {
		logger.Info("signing key generated",
			"algorithm", pk.Algorithm,
			"public_key_bytes", len(pk.Key),
			"fingerprint", pk.Fingerprint)
	}

	params := password.DefaultParams
	params.Memory = cfg.Password.MemoryKiB
	params.Time = cfg.Password.Time
	params.Parallelism = cfg.Password.Parallelism
	hasher, err := password.NewArgon2(params)
	if err != nil {
		logger.Fatal("invalid password hashing parameters", "error", err)
	}

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)

	ledger, closeLedger, err := newLedger(ctx, cfg, db)
	if err != nil {
		logger.Fatal("failed to initialize revocation ledger", "backend", cfg.Revocation.Backend, "error", err)
	}
	defer closeLedger()
	logger.Info("revocation ledger ready", "backend", cfg.Revocation.Backend)

	issuer := token.NewIssuer(keyManager, token.Options{
		Issuer:   cfg.Token.Issuer,
		Audience: cfg.Token.Audience,
		TTL:      cfg.Token.TTL,
	})
	verifier := token.NewVerifier(keyManager, ledger, userRepo, cfg.Token.Issuer, cfg.Token.Audience)

	tokenService := service.NewTokenService(issuer, verifier, ledger, logger)
	authService := service.NewAuth(userRepo, hasher, tokenService, cfg.Auth.RegistrationEnabled, logger)
	maintenanceService := service.NewMaintenance(ledger, tokenService, logger)

	if _, err := service.NewBootstrap(userRepo, hasher, cfg.Auth.BootstrapUsername, logger).EnsureDefaultUser(ctx); err != nil {
		logger.Error("failed to bootstrap default user", "error", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		maintenanceService.Run(ctx, cfg.Revocation.CleanupInterval)
	}()

	httpSrv := newHTTPServer(cfg, logger, authService, tokenService)
	grpcSrv := newGRPCServer(logger, maintenanceService, tokenService, fmt.Sprintf(":%s", cfg.GRPC.Port))

	servers := []struct {
		name string
		srv  model.Server
		sl   model.SecurityLayer
	}{
		{"http", httpSrv, server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)},
		{"grpc", grpcSrv, server.NewSecurityLayer(cfg.GRPC.EnableHTTPS, cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName)},
	}

	for _, s := range servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("Starting server on", "server", s.name, "address", s.srv.Address())
			if err := s.srv.Start(s.sl); err != nil {
				logger.Error("failed to start server", "server", s.name, "error", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.srv.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "server", s.name, "error", err, "address", s.srv.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

// newLedger builds the configured revocation backend. The returned func
// releases backend resources that the postgres connection does not own.
func newLedger(ctx context.Context, cfg *config.Config, db *postgres.Connection) (model.RevocationStore, func(), error) {
	switch cfg.Revocation.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		repo, err := redisrepo.NewRevocationRepository(ctx, client, cfg.Redis.KeyPrefix)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return repo, func() { _ = client.Close() }, nil
	case config.BackendMemory:
		return memory.NewRevocationRepository(), func() {}, nil
	default:
		return postgres.NewRevocationRepository(db), func() {}, nil
	}
}

func newHTTPServer(
	cfg *config.Config,
	logger *logger.Logger,
	authService *service.Auth,
	tokenService *service.TokenService,
) *httpapi.Server {
	gin.SetMode(gin.ReleaseMode)

	cookie := httpapi.CookieOptions{
		Name:     cfg.Cookie.Name,
		Path:     cfg.Cookie.Path,
		Secure:   cfg.Cookie.Secure,
		SameSite: cfg.Cookie.SameSiteMode(),
		MaxAge:   tokenService.TTL(),
	}
	r := httpapi.NewRouter(authService, tokenService, cookie, logger)

	return httpapi.NewServer(r.Register(), cfg.HTTP.Addr)
}

func newGRPCServer(
	logger *logger.Logger,
	maintenanceService *service.Maintenance,
	tokenService *service.TokenService,
	addr string,
) *grpcServer.GRPCServer {
	r := router.New(maintenanceService, tokenService, grpcctx.NewManager(), logger)
	return grpcServer.NewGRPCServer(r.Register(), addr)
}
