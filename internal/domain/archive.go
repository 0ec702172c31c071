package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ArchiveItemStatus — результат обработки одной фотографии при сборке архива.
type ArchiveItemStatus string

const (
	ArchiveItemIncluded ArchiveItemStatus = "included"
	ArchiveItemSkipped  ArchiveItemStatus = "skipped"
)

// Причины пропуска фотографии при сборке архива.
const (
	SkipReasonOrphaned      = "blob missing"
	SkipReasonEmptyObject   = "empty object"
	SkipReasonDownloadError = "download failed"
)

// ArchiveItem — явный результат по одной фотографии: включена в архив или
// пропущена. Политика "пропускаем и продолжаем" видна в типе, а не спрятана
// внутри цикла сборки.
type ArchiveItem struct {
	PhotoID  uuid.UUID         `json:"photo_id"`
	Filename string            `json:"filename,omitempty"`
	Size     int64             `json:"size,omitempty"`
	Status   ArchiveItemStatus `json:"status"`
	Reason   string            `json:"reason,omitempty"`
}

// ArchiveSummary — итог одной сборки архива. Это единственный контракт,
// на который опираются внешние вызывающие.
type ArchiveSummary struct {
	GalleryID  uuid.UUID     `json:"gallery_id"`
	ArchiveKey string        `json:"archive_key"`
	SizeBytes  int64         `json:"size_bytes"`
	Included   int           `json:"included"`
	Skipped    int           `json:"skipped"`
	Empty      bool          `json:"empty"`
	Items      []ArchiveItem `json:"items,omitempty"`
}

// ArchiveResult — итог сборки вместе с байтами архива (для отдачи клиенту
// по запросу bulk download). При Empty == true Data пуст.
type ArchiveResult struct {
	Summary ArchiveSummary
	Data    []byte
}

// ArchiveObjectKey возвращает детерминированный ключ архива галереи в S3.
func ArchiveObjectKey(galleryID uuid.UUID) string {
	return fmt.Sprintf("%s/gallery-all-photos.zip", galleryID)
}
