package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/GoArmGo/GalleryApp/internal/domain"
)

// assembleArchive скачивает валидные блобы и собирает zip-архив в памяти.
// Архив пишется без сжатия (Store): фотографии уже сжаты своими форматами,
// пересжатие — пустая трата CPU. Байты каждого вложения идентичны исходному
// объекту, никакого перекодирования.
//
// Ошибка по отдельной фотографии не прерывает сборку: фотография помечается
// как пропущенная, цикл продолжается.
func assembleArchive(ctx context.Context, fileStorage FileStorage, photos []domain.Photo, logger *slog.Logger) ([]byte, []domain.ArchiveItem) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	items := make([]domain.ArchiveItem, 0, len(photos))
	seen := make(map[string]int)  // счетчик коллизий по исходному имени
	used := make(map[string]bool) // уже занятые имена вложений

	for _, photo := range photos {
		data, err := downloadWithFallback(ctx, fileStorage, &photo)
		if err != nil {
			logger.Warn("photo download failed, skipping",
				"photo_id", photo.ID, "s3_key", photo.S3Key, "error", err)
			items = append(items, domain.ArchiveItem{
				PhotoID: photo.ID,
				Status:  domain.ArchiveItemSkipped,
				Reason:  domain.SkipReasonDownloadError,
			})
			continue
		}

		// Пустой объект — не вложение, а мусор: пропускаем.
		if len(data) == 0 {
			logger.Warn("empty object, skipping", "photo_id", photo.ID, "s3_key", photo.S3Key)
			items = append(items, domain.ArchiveItem{
				PhotoID: photo.ID,
				Status:  domain.ArchiveItemSkipped,
				Reason:  domain.SkipReasonEmptyObject,
			})
			continue
		}

		name := resolveEntryName(photo.DisplayFilename(), seen, used)

		// Метаданные вложения фиксированы: при неизменном содержимом галереи
		// две перегенерации отличаются только служебными полями контейнера.
		header := &zip.FileHeader{
			Name:   name,
			Method: zip.Store,
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			logger.Error("failed to create zip entry", "photo_id", photo.ID, "name", name, "error", err)
			items = append(items, domain.ArchiveItem{
				PhotoID: photo.ID,
				Status:  domain.ArchiveItemSkipped,
				Reason:  domain.SkipReasonDownloadError,
			})
			continue
		}
		if _, err := w.Write(data); err != nil {
			logger.Error("failed to write zip entry", "photo_id", photo.ID, "name", name, "error", err)
			items = append(items, domain.ArchiveItem{
				PhotoID: photo.ID,
				Status:  domain.ArchiveItemSkipped,
				Reason:  domain.SkipReasonDownloadError,
			})
			continue
		}

		items = append(items, domain.ArchiveItem{
			PhotoID:  photo.ID,
			Filename: name,
			Size:     int64(len(data)),
			Status:   domain.ArchiveItemIncluded,
		})
	}

	if err := zw.Close(); err != nil {
		logger.Error("failed to finalize zip archive", "error", err)
	}
	return buf.Bytes(), items
}

// downloadWithFallback скачивает предпочтительный ключ (необработанный оригинал,
// если он записан). Если между валидацией и скачиванием объект исчез,
// откатывается на основной ключ.
func downloadWithFallback(ctx context.Context, fileStorage FileStorage, photo *domain.Photo) ([]byte, error) {
	preferred := photo.PreferredKey()

	data, err := fileStorage.DownloadFile(ctx, preferred)
	if err == nil {
		return data, nil
	}
	if preferred == photo.S3Key {
		return nil, err
	}

	data, fallbackErr := fileStorage.DownloadFile(ctx, photo.S3Key)
	if fallbackErr != nil {
		return nil, fmt.Errorf("original key failed (%v), primary key failed: %w", err, fallbackErr)
	}
	return data, nil
}

// resolveEntryName возвращает имя вложения, разрешая коллизии детерминированно:
// photo.jpg -> photo_1.jpg -> photo_2.jpg. Счетчик ведется по исходному имени;
// после суффиксации имя дополнительно проверяется по занятым, чтобы галерея,
// в которой буквально есть photo_1.jpg, не дала двух одинаковых вложений.
func resolveEntryName(base string, seen map[string]int, used map[string]bool) string {
	n := seen[base]
	name := base
	for {
		if n > 0 {
			name = suffixedName(base, n)
		}
		if !used[name] {
			break
		}
		n++
	}
	seen[base] = n + 1
	used[name] = true
	return name
}

// suffixedName вставляет числовой суффикс перед расширением файла.
func suffixedName(base string, n int) string {
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s_%d%s", stem, n, ext)
}
