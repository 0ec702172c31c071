package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/GalleryApp/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Размер страницы при перечислении фотографий галереи.
const listPageSize = 500

type PhotoStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewPhotoStorage(db *sqlx.DB, logger *slog.Logger) *PhotoStorage {
	return &PhotoStorage{db: db, logger: logger}
}

// ListPhotosByGallery возвращает все записи фотографий галереи.
// Читает постранично и не останавливается, пока не вычитает все страницы:
// для больших галерей одной выборки недостаточно.
func (s *PhotoStorage) ListPhotosByGallery(ctx context.Context, galleryID uuid.UUID) ([]domain.Photo, error) {
	start := time.Now()

	q := `
	SELECT * FROM photos
	WHERE gallery_id = $1
	ORDER BY uploaded_at, id
	LIMIT $2 OFFSET $3
	`

	var all []domain.Photo
	offset := 0
	for {
		var page []domain.Photo
		if err := s.db.SelectContext(ctx, &page, q, galleryID, listPageSize, offset); err != nil {
			s.logger.Error("failed to list gallery photos", "gallery_id", galleryID, "offset", offset, "error", err)
			return nil, fmt.Errorf("ошибка при получении фотографий галереи: %w", err)
		}

		all = append(all, page...)
		if len(page) < listPageSize {
			break
		}
		offset += listPageSize
	}

	s.logger.Info("gallery photos listed",
		"gallery_id", galleryID,
		"count", len(all),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return all, nil
}
