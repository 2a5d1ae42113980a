package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/redcloud442/aurora/internal/adapter/auth"
	"github.com/redcloud442/aurora/internal/adapter/backend"
	s3blob "github.com/redcloud442/aurora/internal/adapter/blob/s3"
	rediscache "github.com/redcloud442/aurora/internal/adapter/cache/redis"
	grpcadapter "github.com/redcloud442/aurora/internal/adapter/grpc"
	aurorav1 "github.com/redcloud442/aurora/internal/adapter/grpc/aurora/v1"
	"github.com/redcloud442/aurora/internal/adapter/repository/postgres"
	"github.com/redcloud442/aurora/internal/adapter/ws"
	"github.com/redcloud442/aurora/internal/config"
	"github.com/redcloud442/aurora/internal/usecase/dashboard"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gRPC API and the WebSocket package stream",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// 1. Setup Database
	db, err := postgres.NewDB(ctx, cfg.DB.ConnString())
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DB.EnsureSchema {
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	// 2. Initialize Repositories (Postgres) and gateways
	positionRepo := postgres.NewPositionRepository(db)
	earningsRepo := postgres.NewEarningsRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)
	bountyRepo := postgres.NewBountyRepository(db)

	backendClient := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token, cfg.Backend.Timeout, logger)

	verifier, err := auth.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		return err
	}

	// 3. Initialize Services (Use Cases)
	dashboardService := dashboard.NewDashboardService(
		positionRepo, earningsRepo, ledgerRepo, bountyRepo, backendClient,
		dashboard.Options{FrameInterval: cfg.FrameInterval, PageSize: cfg.PageSize},
		logger,
	)
	defer dashboardService.Close()

	if cfg.RedisEnabled() {
		redisClient, err := rediscache.New(ctx, rediscache.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return err
		}
		defer redisClient.Close()

		dashboardService.Locks = rediscache.NewLockManager(redisClient)
		dashboardService.Limiter = rediscache.NewRequestLimiter(redisClient)
		logger.Info("redis locks and request allowances enabled", zap.String("addr", cfg.Redis.Addr))
	}

	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			PublicBaseURL:  cfg.S3.PublicBaseURL,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return err
		}
		dashboardService.Receipts = s3blob.NewReceiptStore(s3Client, cfg.S3.Bucket, cfg.S3.PublicBaseURL)
		logger.Info("deposit receipts enabled", zap.String("bucket", cfg.S3.Bucket))
	}

	hub := ws.NewHub(dashboardService, verifier, cfg.AllowedOrigins, logger)
	dashboardService.Notifier = hub

	// 4. gRPC server with logging and auth interceptors
	grpcServer := grpclib.NewServer(grpclib.ChainUnaryInterceptor(
		grpcadapter.LoggingInterceptor(logger),
		grpcadapter.AuthInterceptor(verifier),
	))
	aurorav1.RegisterDashboardServiceServer(grpcServer, grpcadapter.NewServer(dashboardService))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	// 5. HTTP server for the package stream
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/packages", hub.HandleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("websocket server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		dashboardService.RunEviction(gctx, cfg.SessionIdleTTL, cfg.SessionIdleTTL/2)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gracefully")

		healthServer.Shutdown()
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)

		grpcServer.GracefulStop()
		logger.Info("servers stopped")
		return err
	})

	return g.Wait()
}
