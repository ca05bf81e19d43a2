package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/property-annotator/internal/app"
	"github.com/joseph-ayodele/property-annotator/internal/common"
	"github.com/joseph-ayodele/property-annotator/internal/server"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		var appErr *common.AppError
		if errors.As(err, &appErr) && appErr.Code == "CONFIG_ERROR" {
			os.Exit(2)
		}
		os.Exit(1)
	}
	defer a.Close()

	var opts []server.BackendOption
	if a.Runs != nil {
		opts = append(opts, server.WithRunLog(a.Runs))
	}
	backend := server.NewBackend(a.Orchestrator, a.Credentials, logger, opts...)

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcServer *grpc.Server
	if cfg.Server.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCHealthAddr)
		if err != nil {
			logger.Error("grpc listen failed", "addr", cfg.Server.GRPCHealthAddr, "error", err)
			os.Exit(1)
		}
		grpcServer = grpc.NewServer()
		hs := server.NewHealthServer(a.Credentials, 5*time.Second, logger)
		healthpb.RegisterHealthServer(grpcServer, hs.Server)
		reflection.Register(grpcServer)
		go hs.Monitor(ctx)
		go func() {
			logger.Info("gRPC health serving", "addr", cfg.Server.GRPCHealthAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("grpc serve error", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("ML backend serving", "addr", cfg.Server.HTTPAddr, "model_version", cfg.Server.ModelVersion)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	fmt.Println("stopped.")
}
