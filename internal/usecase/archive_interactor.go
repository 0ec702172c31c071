package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/GalleryApp/internal/core/ports"
	"github.com/GoArmGo/GalleryApp/internal/domain"
	"github.com/google/uuid"
)

// archiveUseCase implements ArchiveUseCase
type archiveUseCase struct {
	photoCatalog     ports.PhotoCatalog
	galleryCatalog   ports.GalleryCatalog
	fileStorage      FileStorage
	cacheInvalidator CacheInvalidator
	logger           *slog.Logger
}

// NewArchiveUseCase создает новый экземпляр ArchiveUseCase,
// принимает реализации портов каталога, файлового хранилища и CDN
func NewArchiveUseCase(
	photoCatalog ports.PhotoCatalog,
	galleryCatalog ports.GalleryCatalog,
	fileStorage FileStorage,
	cacheInvalidator CacheInvalidator,
	logger *slog.Logger,
) ArchiveUseCase {
	return &archiveUseCase{
		photoCatalog:     photoCatalog,
		galleryCatalog:   galleryCatalog,
		fileStorage:      fileStorage,
		cacheInvalidator: cacheInvalidator,
		logger:           logger,
	}
}

// AuthorizeGalleryAccess проверяет доступ к галерее: владелец, клиент
// из списка разрешенных или держатель действующего share-токена.
func (uc *archiveUseCase) AuthorizeGalleryAccess(ctx context.Context, galleryID uuid.UUID, identity AccessIdentity) (*domain.Gallery, error) {
	gallery, err := uc.galleryCatalog.GetGalleryByID(ctx, galleryID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении галереи %s: %w", galleryID, err)
	}
	if gallery == nil {
		return nil, ErrGalleryNotFound
	}

	if identity.UserID != uuid.Nil && identity.UserID == gallery.OwnerID {
		return gallery, nil
	}

	if identity.ClientEmail != "" {
		allowed, err := uc.galleryCatalog.IsClientAllowed(ctx, galleryID, identity.ClientEmail)
		if err != nil {
			return nil, fmt.Errorf("usecase: ошибка при проверке клиента галереи %s: %w", galleryID, err)
		}
		if allowed {
			return gallery, nil
		}
	}

	if identity.ShareToken != "" {
		token, err := uc.galleryCatalog.GetShareToken(ctx, identity.ShareToken)
		if err != nil {
			return nil, fmt.Errorf("usecase: ошибка при проверке share-токена галереи %s: %w", galleryID, err)
		}
		if token != nil && token.GalleryID == galleryID && !token.IsExpired(time.Now()) {
			return gallery, nil
		}
	}

	uc.logger.Warn("gallery access denied", "gallery_id", galleryID, "user_id", identity.UserID)
	return nil, ErrAccessDenied
}

// BuildGalleryArchive выполняет весь конвейер:
// перечисление -> валидация -> сборка -> публикация.
func (uc *archiveUseCase) BuildGalleryArchive(ctx context.Context, galleryID uuid.UUID, photoIDs []uuid.UUID) (*domain.ArchiveResult, error) {
	start := time.Now()

	// 1. Перечисление: все записи фотографий галереи из каталога.
	// Ошибка каталога валит всю операцию — частичный архив не публикуется.
	photos, err := uc.photoCatalog.ListPhotosByGallery(ctx, galleryID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при перечислении фотографий галереи %s: %w", galleryID, err)
	}

	// Фильтр по явному списку photo_ids с сохранением порядка перечисления —
	// порядок фиксирован, значит имена в архиве детерминированы.
	if len(photoIDs) > 0 {
		requested := make(map[uuid.UUID]bool, len(photoIDs))
		for _, id := range photoIDs {
			requested[id] = true
		}
		filtered := photos[:0]
		for _, p := range photos {
			if requested[p.ID] {
				filtered = append(filtered, p)
			}
		}
		photos = filtered
	}

	// 2. Валидация: HEAD-проверка каждого блоба. Любая ошибка проверки
	// трактуется консервативно как orphaned — без ретраев.
	valid, items := uc.validatePhotos(ctx, photos)

	// 3. Сборка архива в памяти.
	data, asmItems := assembleArchive(ctx, uc.fileStorage, valid, uc.logger)
	items = append(items, asmItems...)

	included, skipped := 0, 0
	var totalSize int64
	for _, item := range items {
		if item.Status == domain.ArchiveItemIncluded {
			included++
			totalSize += item.Size
		} else {
			skipped++
		}
	}

	summary := domain.ArchiveSummary{
		GalleryID:  galleryID,
		ArchiveKey: domain.ArchiveObjectKey(galleryID),
		SizeBytes:  int64(len(data)),
		Included:   included,
		Skipped:    skipped,
		Empty:      included == 0,
		Items:      items,
	}

	// 4. Публикация (или удаление при пустом результате).
	if err := uc.publish(ctx, &summary, data); err != nil {
		return nil, err
	}

	uc.logger.Info("gallery archive build finished",
		"gallery_id", galleryID,
		"included", included,
		"skipped", skipped,
		"size_bytes", summary.SizeBytes,
		"empty", summary.Empty,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if summary.Empty {
		data = nil
	}
	return &domain.ArchiveResult{Summary: summary, Data: data}, nil
}

// RebuildGalleryArchive пересобирает архив всех фотографий галереи.
func (uc *archiveUseCase) RebuildGalleryArchive(ctx context.Context, galleryID uuid.UUID) (*domain.ArchiveSummary, error) {
	result, err := uc.BuildGalleryArchive(ctx, galleryID, nil)
	if err != nil {
		return nil, err
	}
	return &result.Summary, nil
}

// validatePhotos разделяет записи на валидные (блоб подтвержден) и orphaned.
// Orphaned-записи — операционная телеметрия, не ошибка для пользователя.
func (uc *archiveUseCase) validatePhotos(ctx context.Context, photos []domain.Photo) ([]domain.Photo, []domain.ArchiveItem) {
	var valid []domain.Photo
	var orphaned []domain.ArchiveItem

	for _, photo := range photos {
		if photo.S3Key == "" {
			// запись без ключа не прошла валидацию на границе каталога
			orphaned = append(orphaned, domain.ArchiveItem{
				PhotoID: photo.ID,
				Status:  domain.ArchiveItemSkipped,
				Reason:  domain.SkipReasonOrphaned,
			})
			continue
		}

		exists, err := uc.fileStorage.FileExists(ctx, photo.S3Key)
		if err != nil || !exists {
			if err != nil {
				uc.logger.Warn("existence check failed, treating photo as orphaned",
					"photo_id", photo.ID, "s3_key", photo.S3Key, "error", err)
			}
			orphaned = append(orphaned, domain.ArchiveItem{
				PhotoID: photo.ID,
				Status:  domain.ArchiveItemSkipped,
				Reason:  domain.SkipReasonOrphaned,
			})
			continue
		}

		valid = append(valid, photo)
	}

	if len(orphaned) > 0 {
		uc.logger.Warn("orphaned photo records excluded from archive", "count", len(orphaned))
	}
	return valid, orphaned
}

// publish загружает собранный архив по детерминированному ключу или удаляет
// ранее опубликованный архив, если валидных фотографий не осталось.
func (uc *archiveUseCase) publish(ctx context.Context, summary *domain.ArchiveSummary, data []byte) error {
	if summary.Empty {
		if err := uc.fileStorage.DeleteFile(ctx, summary.ArchiveKey); err != nil {
			return fmt.Errorf("usecase: ошибка при удалении архива %s: %w", summary.ArchiveKey, err)
		}
		uc.invalidate(ctx, summary.ArchiveKey)
		uc.logger.Info("empty gallery, published archive removed", "archive_key", summary.ArchiveKey)
		return nil
	}

	// Cache-Control: no-cache — повторная загрузка всегда получает свежую
	// перегенерацию, ключ архива фиксирован и не версионируется.
	_, err := uc.fileStorage.UploadFile(ctx, summary.ArchiveKey, bytes.NewReader(data), "application/zip", "no-cache")
	if err != nil {
		return fmt.Errorf("usecase: ошибка при публикации архива %s: %w", summary.ArchiveKey, err)
	}

	uc.invalidate(ctx, summary.ArchiveKey)
	return nil
}

// invalidate запрашивает инвалидацию CDN best-effort: ошибка только логируется.
func (uc *archiveUseCase) invalidate(ctx context.Context, archiveKey string) {
	if err := uc.cacheInvalidator.InvalidatePath(ctx, "/"+archiveKey); err != nil {
		uc.logger.Warn("CDN invalidation failed", "archive_key", archiveKey, "error", err)
	}
}
