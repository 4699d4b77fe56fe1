package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/api"
	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/config"
	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/driver"
	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/logger"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	if err := logger.Init(cfg.LogDir, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if err := run(cfg); err != nil {
		logger.Error("%v", err)
		logger.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Provision the transport (simulated, discovered or explicit port)
	prov := driver.NewProvisioner(driver.Options{Config: *cfg})
	transport, err := prov.Provision(ctx)
	if errors.Is(err, driver.ErrDeviceNotFound) {
		return fmt.Errorf("%w; attach the board, pass -port or use -simulate", err)
	}
	if err != nil {
		return err
	}
	defer prov.Close()

	// 3. Console
	handler := api.NewHandler(transport)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	srv := &http.Server{Addr: cfg.WSAddr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Console listening on %s (session %s)", cfg.WSAddr, prov.SessionID())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
