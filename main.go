package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"codescan/internal/auth"
	"codescan/internal/barcode"
	"codescan/internal/config"
	"codescan/internal/database"
	"codescan/internal/export"
	"codescan/internal/handlers"
	"codescan/internal/history"
	"codescan/internal/logger"
	"codescan/internal/scanner"
	"codescan/internal/services"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.New(cfg.Log.Level, cfg.Log.Format)
	logg.Info().Int("port", cfg.Server.Port).Msg("starting codescan backend")

	db, err := database.Open(cfg.Database, logger.Component(logg, "database"))
	if err != nil {
		logg.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logg.Warn().Err(err).Msg("close database")
		}
	}()

	if err := run(cfg, db, logg); err != nil {
		logg.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	logg.Info().Msg("server exiting")
}

func run(cfg *config.Config, db *gorm.DB, logg zerolog.Logger) error {
	target, err := export.New(cfg.Export)
	if err != nil {
		return err
	}

	historySvc := services.NewHistoryService(history.NewStore(db, logger.Component(logg, "history")), logger.Component(logg, "history"))
	generator := barcode.NewGenerator(barcode.Defaults{
		QRSize:        cfg.Generator.QRSize,
		BarcodeWidth:  cfg.Generator.BarcodeWidth,
		BarcodeHeight: cfg.Generator.BarcodeHeight,
		MaxDimension:  cfg.Generator.MaxDimension,
	})
	codes := services.NewCodeService(generator, target, cfg.Cache.Size, cfg.Cache.TTL, logger.Component(logg, "codes"))
	sessions := scanner.NewManager(historySvc, scanner.ManagerConfig{
		SaveTimeout: cfg.Scan.SaveTimeout,
		IdleTimeout: cfg.Scan.IdleTimeout,
	}, logger.Component(logg, "scanner"))

	router := handlers.NewRouter(handlers.RouterDeps{
		Codes:          codes,
		History:        historySvc,
		Sessions:       sessions,
		MaxFrameSize:   cfg.Scan.MaxFrameSize,
		MaxFramePixels: cfg.Scan.MaxFramePixels,
		Ping:           func(ctx context.Context) error { return database.Ping(ctx, db) },
		Log:            logger.Component(logg, "http"),
	})

	authSvc := auth.NewService(cfg.Auth)
	if !authSvc.Enabled() {
		logg.Warn().Msg("AUTH_JWT_SECRET not set, API is unauthenticated")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handlers.Wrap(router, authSvc, cfg.Server.AllowedOrigin, logger.Component(logg, "http")),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logg.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return sessions.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logg.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
