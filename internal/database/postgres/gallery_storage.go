package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/GalleryApp/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormGalleryStorage реализует интерфейс ports.GalleryCatalog с использованием GORM
type GormGalleryStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormGalleryStorage создает новый экземпляр GormGalleryStorage
func NewGormGalleryStorage(db *gorm.DB, logger *slog.Logger) *GormGalleryStorage {
	return &GormGalleryStorage{db: db, logger: logger}
}

// GetGalleryByID получает галерею по ID. Возвращает nil, если галерея не найдена.
func (s *GormGalleryStorage) GetGalleryByID(ctx context.Context, id uuid.UUID) (*domain.Gallery, error) {
	var gallery domain.Gallery
	result := s.db.WithContext(ctx).First(&gallery, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			s.logger.Warn("gallery not found", "gallery_id", id)
			return nil, nil
		}
		s.logger.Error("failed to get gallery", "gallery_id", id, "error", result.Error)
		return nil, fmt.Errorf("ошибка при получении галереи по ID: %w", result.Error)
	}
	return &gallery, nil
}

// IsClientAllowed проверяет, открыт ли галереей доступ для указанного email.
func (s *GormGalleryStorage) IsClientAllowed(ctx context.Context, galleryID uuid.UUID, email string) (bool, error) {
	var count int64
	result := s.db.WithContext(ctx).
		Model(&domain.GalleryClient{}).
		Where("gallery_id = ? AND LOWER(email) = LOWER(?)", galleryID, email).
		Count(&count)
	if result.Error != nil {
		s.logger.Error("failed to check gallery client", "gallery_id", galleryID, "error", result.Error)
		return false, fmt.Errorf("ошибка при проверке клиента галереи: %w", result.Error)
	}
	return count > 0, nil
}

// GetShareToken получает токен доступа. Возвращает nil, если токен не найден.
func (s *GormGalleryStorage) GetShareToken(ctx context.Context, token string) (*domain.ShareToken, error) {
	var st domain.ShareToken
	result := s.db.WithContext(ctx).First(&st, "token = ?", token)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("failed to get share token", "error", result.Error)
		return nil, fmt.Errorf("ошибка при получении токена доступа: %w", result.Error)
	}
	return &st, nil
}
