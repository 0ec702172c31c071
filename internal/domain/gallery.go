package domain

import (
	"time"

	"github.com/google/uuid"
)

// Gallery представляет модель галереи фотографа,
// соответствует таблице galleries в бд
type Gallery struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	Name        string    `json:"name" db:"name"`
	IsPrivate   bool      `json:"is_private" db:"is_private"`
	PhotoCount  int       `json:"photo_count" db:"photo_count"`
	StorageUsed int64     `json:"storage_used" db:"storage_used"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

func (Gallery) TableName() string {
	return "galleries"
}

// GalleryClient представляет клиента, которому фотограф открыл доступ к галерее,
// соответствует таблице gallery_clients в бд
type GalleryClient struct {
	GalleryID uuid.UUID `json:"gallery_id" db:"gallery_id"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (GalleryClient) TableName() string {
	return "gallery_clients"
}

// ShareToken представляет токен для доступа к галерее по ссылке без авторизации,
// соответствует таблице share_tokens в бд
type ShareToken struct {
	Token     string    `json:"token" gorm:"primaryKey" db:"token"`
	GalleryID uuid.UUID `json:"gallery_id" db:"gallery_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (ShareToken) TableName() string {
	return "share_tokens"
}

// IsExpired проверяет, истек ли срок действия токена на момент now.
func (t *ShareToken) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}
