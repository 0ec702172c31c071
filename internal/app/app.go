package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/GalleryApp/internal/config"
	"github.com/GoArmGo/GalleryApp/internal/core/ports"
	"github.com/GoArmGo/GalleryApp/internal/usecase"
	"github.com/jmoiron/sqlx"
)

type App struct {
	Config           *config.Config
	logger           *slog.Logger
	db               *sqlx.DB
	archiveUseCase   usecase.ArchiveUseCase
	rebuildPublisher ports.ArchiveRebuildPublisher
	rebuildConsumer  ports.ArchiveRebuildConsumer
	buildLimiter     chan struct{}
}

func NewApp(cfg *config.Config,
	logger *slog.Logger,
	db *sqlx.DB,
	archiveUseCase usecase.ArchiveUseCase,
	rebuildPublisher ports.ArchiveRebuildPublisher,
	rebuildConsumer ports.ArchiveRebuildConsumer,
	buildLimiter chan struct{}) *App {
	return &App{
		Config:           cfg,
		logger:           logger,
		db:               db,
		archiveUseCase:   archiveUseCase,
		rebuildPublisher: rebuildPublisher,
		rebuildConsumer:  rebuildConsumer,
		buildLimiter:     buildLimiter,
	}
}

// LoggerIns возвращает основной логгер приложения.
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

func (a *App) Run(ctx context.Context, mode *string) error {
	// канал для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("application starting", "mode", *mode)

	var err error

	switch *mode {
	case "server":
		err = runServer(ctx, a.Config, a.logger, a.archiveUseCase, a.rebuildPublisher, a.buildLimiter)

	case "worker":
		err = runWorker(ctx, a.logger, a.archiveUseCase, a.rebuildConsumer)

	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'worker')", *mode)
	}

	if err != nil {
		return err
	}

	// аккуратно закрываем ресурсы
	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown error", "error", closeErr)
	}

	a.logger.Info("application stopped")
	return nil
}

// Shutdown закрывает все ресурсы приложения
func (a *App) Shutdown() error {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("ошибка закрытия БД: %w", err)
		}
	}

	// если publisher/consumer имеют методы Close — вызываем их
	if closer, ok := a.rebuildPublisher.(interface{ Close() }); ok {
		closer.Close()
	}

	return nil
}
