package domain

import (
	"time"

	"github.com/google/uuid"
)

// Статусы обработки фотографии.
const (
	PhotoStatusPending         = "pending"
	PhotoStatusApproved        = "approved"
	PhotoStatusProcessingVideo = "processing_video"
)

// Photo представляет модель загруженного ассета (фото или видео),
// соответствует таблице photos в бд.
// Запись может ссылаться на уже удаленный объект в S3 — это допустимое
// состояние (orphaned), которое не чинится синхронно.
type Photo struct {
	ID            uuid.UUID `json:"id" db:"id"`
	GalleryID     uuid.UUID `json:"gallery_id" db:"gallery_id"`
	S3Key         string    `json:"s3_key" db:"s3_key"`
	OriginalS3Key *string   `json:"original_s3_key,omitempty" db:"original_s3_key"`
	Filename      *string   `json:"filename,omitempty" db:"filename"`
	Status        string    `json:"status" db:"status"`
	FileSize      int64     `json:"file_size" db:"file_size"`
	UploadedAt    time.Time `json:"uploaded_at" db:"uploaded_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

func (Photo) TableName() string {
	return "photos"
}

// PreferredKey возвращает ключ, который следует скачивать в первую очередь:
// необработанный оригинал, если он записан, иначе основной ключ.
func (p *Photo) PreferredKey() string {
	if p.OriginalS3Key != nil && *p.OriginalS3Key != "" {
		return *p.OriginalS3Key
	}
	return p.S3Key
}

// DisplayFilename возвращает имя файла для показа клиенту:
// сохраненное имя, если оно есть, иначе последний сегмент ключа.
func (p *Photo) DisplayFilename() string {
	if p.Filename != nil && *p.Filename != "" {
		return *p.Filename
	}
	key := p.PreferredKey()
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '/' {
			return key[i+1:]
		}
	}
	return key
}
