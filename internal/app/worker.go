package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/GalleryApp/internal/core/ports"
	"github.com/GoArmGo/GalleryApp/internal/messaging/payloads"
	"github.com/GoArmGo/GalleryApp/internal/usecase"
	"github.com/google/uuid"
)

// runWorker запускает потребителя RabbitMQ и пересобирает архивы галерей
func runWorker(
	ctx context.Context,
	logger *slog.Logger,
	archiveUseCase usecase.ArchiveUseCase,
	rebuildConsumer ports.ArchiveRebuildConsumer,
) error {
	logger.Info("worker started, waiting for rebuild requests")

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// Обработчик одной задачи перегенерации. Никто не ждет результата:
	// ошибки (включая ошибки публикации архива) только логируются.
	messageHandler := func(ctx context.Context, payload payloads.ArchiveRebuildPayload) error {
		galleryID, err := uuid.Parse(payload.GalleryID)
		if err != nil {
			logger.Error("invalid gallery id in rebuild payload", "gallery_id", payload.GalleryID, "error", err)
			return err
		}

		summary, err := archiveUseCase.RebuildGalleryArchive(ctx, galleryID)
		if err != nil {
			logger.Error("archive rebuild failed", "gallery_id", galleryID, "error", err)
			return err
		}

		logger.Info("archive rebuild completed",
			"gallery_id", galleryID,
			"included", summary.Included,
			"skipped", summary.Skipped,
			"empty", summary.Empty,
			"size_bytes", summary.SizeBytes,
		)
		return nil
	}

	err := rebuildConsumer.StartConsumingArchiveRebuildRequests(workerCtx, messageHandler)
	if err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}

	// Graceful Shutdown для воркера
	<-ctx.Done()

	logger.Info("shutdown signal received, stopping worker")
	cancelWorker()

	time.Sleep(2 * time.Second) // Небольшая задержка, чтобы логи успели выйти
	logger.Info("worker stopped gracefully")

	return nil
}
