package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/property-annotator/internal/app"
	"github.com/joseph-ayodele/property-annotator/internal/common"
	"github.com/joseph-ayodele/property-annotator/internal/server"
)

func main() {
	_ = godotenv.Load()
	cfg := common.LoadConfig()

	var (
		root = flag.String("root", cfg.Pages.Root, "directory to serve")
		addr = flag.String("addr", cfg.Pages.Addr, "listen address")
	)
	flag.Parse()

	logger := app.NewLogger(cfg)

	if st, err := os.Stat(*root); err != nil || !st.IsDir() {
		logger.Error("root is not a directory", "root", *root, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           server.NewPageServer(*root),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("page server serving", "addr", *addr, "root", *root)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
