package ports

import (
	"context"

	"github.com/GoArmGo/GalleryApp/internal/domain"
	"github.com/google/uuid"
)

// PhotoCatalog определяет методы для чтения каталога фотографий.
type PhotoCatalog interface {
	// ListPhotosByGallery возвращает ВСЕ записи фотографий галереи
	// (по вторичному индексу gallery_id), вычитывая все страницы.
	ListPhotosByGallery(ctx context.Context, galleryID uuid.UUID) ([]domain.Photo, error)
}

// GalleryCatalog определяет методы для чтения каталога галерей
// и проверок доступа к ним.
type GalleryCatalog interface {
	GetGalleryByID(ctx context.Context, id uuid.UUID) (*domain.Gallery, error)

	// IsClientAllowed проверяет, есть ли email в списке клиентов галереи.
	IsClientAllowed(ctx context.Context, galleryID uuid.UUID, email string) (bool, error)

	// GetShareToken возвращает токен доступа или nil, если токен не найден.
	GetShareToken(ctx context.Context, token string) (*domain.ShareToken, error)
}
