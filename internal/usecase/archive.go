package usecase

import (
	"context"
	"errors"
	"io"

	"github.com/GoArmGo/GalleryApp/internal/domain"
	"github.com/google/uuid"
)

// Ошибки авторизации доступа к галерее. Обработчик HTTP переводит их
// в 404 и 403 соответственно.
var (
	ErrGalleryNotFound = errors.New("галерея не найдена")
	ErrAccessDenied    = errors.New("доступ к галерее запрещен")
)

// AccessIdentity описывает, от чьего имени запрошен bulk download:
// владелец галереи, клиент с разрешенным email или держатель share-токена.
// Достаточно совпадения по любому из полей.
type AccessIdentity struct {
	UserID      uuid.UUID
	ClientEmail string
	ShareToken  string
}

// FileStorage определяет интерфейс для работы с файловым хранилищем (AWS S3, MinIO)
// порт для хранения бинарных данных (самих изображений и собранных архивов)
type FileStorage interface {
	// FileExists выполняет легковесную проверку существования объекта по ключу.
	FileExists(ctx context.Context, key string) (bool, error)

	// DownloadFile скачивает объект целиком и возвращает его байты без изменений.
	DownloadFile(ctx context.Context, key string) ([]byte, error)

	// UploadFile загружает объект в хранилище и возвращает его публичный URL.
	// cacheControl прокидывается в заголовок Cache-Control объекта.
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType, cacheControl string) (string, error)

	// DeleteFile удаляет объект по ключу. Отсутствие объекта — не ошибка.
	DeleteFile(ctx context.Context, key string) error
}

// CacheInvalidator определяет интерфейс для инвалидации кэша CDN.
// Вызовы best-effort: ошибка логируется и не прерывает публикацию архива.
type CacheInvalidator interface {
	InvalidatePath(ctx context.Context, path string) error
}

// ArchiveUseCase определяет интерфейс бизнес-логики сборки архивов галерей.
type ArchiveUseCase interface {
	// AuthorizeGalleryAccess проверяет, что identity имеет доступ к галерее.
	// Возвращает ErrGalleryNotFound / ErrAccessDenied как сигнальные ошибки.
	AuthorizeGalleryAccess(ctx context.Context, galleryID uuid.UUID, identity AccessIdentity) (*domain.Gallery, error)

	// BuildGalleryArchive собирает архив из указанных фотографий галереи,
	// публикует его по детерминированному ключу и возвращает итог вместе с байтами.
	// Пустой photoIDs означает "все фотографии галереи".
	BuildGalleryArchive(ctx context.Context, galleryID uuid.UUID, photoIDs []uuid.UUID) (*domain.ArchiveResult, error)

	// RebuildGalleryArchive полностью пересобирает архив всех фотографий галереи.
	// Используется воркером перегенерации; байты архива наружу не возвращаются.
	RebuildGalleryArchive(ctx context.Context, galleryID uuid.UUID) (*domain.ArchiveSummary, error)
}
