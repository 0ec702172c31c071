package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/GoArmGo/GalleryApp/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- фейки портов ---

type fakePhotoCatalog struct {
	photos []domain.Photo
	err    error
}

func (f *fakePhotoCatalog) ListPhotosByGallery(ctx context.Context, galleryID uuid.UUID) ([]domain.Photo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.photos, nil
}

type fakeGalleryCatalog struct {
	gallery *domain.Gallery
	clients map[string]bool
	tokens  map[string]*domain.ShareToken
	err     error
}

func (f *fakeGalleryCatalog) GetGalleryByID(ctx context.Context, id uuid.UUID) (*domain.Gallery, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.gallery == nil || f.gallery.ID != id {
		return nil, nil
	}
	return f.gallery, nil
}

func (f *fakeGalleryCatalog) IsClientAllowed(ctx context.Context, galleryID uuid.UUID, email string) (bool, error) {
	return f.clients[email], nil
}

func (f *fakeGalleryCatalog) GetShareToken(ctx context.Context, token string) (*domain.ShareToken, error) {
	return f.tokens[token], nil
}

type fakeFileStorage struct {
	objects map[string][]byte
	headErr map[string]error
	getErr  map[string]error

	uploads      map[string][]byte
	cacheControl map[string]string
	deleted      []string
	uploadErr    error
	deleteErr    error
}

func newFakeFileStorage() *fakeFileStorage {
	return &fakeFileStorage{
		objects:      map[string][]byte{},
		headErr:      map[string]error{},
		getErr:       map[string]error{},
		uploads:      map[string][]byte{},
		cacheControl: map[string]string{},
	}
}

func (f *fakeFileStorage) FileExists(ctx context.Context, key string) (bool, error) {
	if err := f.headErr[key]; err != nil {
		return false, err
	}
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeFileStorage) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	if err := f.getErr[key]; err != nil {
		return nil, err
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such key: " + key)
	}
	return data, nil
}

func (f *fakeFileStorage) UploadFile(ctx context.Context, key string, reader io.Reader, contentType, cacheControl string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.uploads[key] = data
	f.cacheControl[key] = cacheControl
	return "http://s3.local/" + key, nil
}

func (f *fakeFileStorage) DeleteFile(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	delete(f.uploads, key)
	return nil
}

type fakeInvalidator struct {
	paths []string
	err   error
}

func (f *fakeInvalidator) InvalidatePath(ctx context.Context, path string) error {
	f.paths = append(f.paths, path)
	return f.err
}

// --- вспомогательные функции ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func newPhoto(galleryID uuid.UUID, s3Key string, filename *string) domain.Photo {
	return domain.Photo{
		ID:        uuid.New(),
		GalleryID: galleryID,
		S3Key:     s3Key,
		Filename:  filename,
		Status:    domain.PhotoStatusApproved,
	}
}

// readZipEntries распаковывает архив и возвращает содержимое вложений по именам
// с сохранением порядка.
func readZipEntries(t *testing.T, data []byte) (map[string][]byte, []string) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := map[string][]byte{}
	var order []string
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		entries[f.Name] = content
		order = append(order, f.Name)
	}
	return entries, order
}

// --- тесты конвейера ---

func TestBuildGalleryArchive_AllPhotosIncluded(t *testing.T) {
	galleryID := uuid.New()
	fs := newFakeFileStorage()

	p1 := newPhoto(galleryID, "g/p1.jpg", strPtr("sunset.jpg"))
	p2 := newPhoto(galleryID, "g/p2.jpg", strPtr("portrait.jpg"))
	p3 := newPhoto(galleryID, "g/p3.jpg", nil) // имя из ключа
	fs.objects["g/p1.jpg"] = []byte("jpeg-bytes-1")
	fs.objects["g/p2.jpg"] = []byte("jpeg-bytes-2")
	fs.objects["g/p3.jpg"] = []byte("jpeg-bytes-3")

	uc := NewArchiveUseCase(
		&fakePhotoCatalog{photos: []domain.Photo{p1, p2, p3}},
		&fakeGalleryCatalog{},
		fs,
		&fakeInvalidator{},
		testLogger(),
	)

	result, err := uc.BuildGalleryArchive(context.Background(), galleryID, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Summary.Included)
	assert.Equal(t, 0, result.Summary.Skipped)
	assert.False(t, result.Summary.Empty)
	assert.Equal(t, galleryID.String()+"/gallery-all-photos.zip", result.Summary.ArchiveKey)

	entries, _ := readZipEntries(t, result.Data)
	require.Len(t, entries, 3)
	// байты вложений идентичны исходным объектам
	assert.Equal(t, []byte("jpeg-bytes-1"), entries["sunset.jpg"])
	assert.Equal(t, []byte("jpeg-bytes-2"), entries["portrait.jpg"])
	assert.Equal(t, []byte("jpeg-bytes-3"), entries["p3.jpg"])

	// архив опубликован по детерминированному ключу с no-cache
	published, ok := fs.uploads[result.Summary.ArchiveKey]
	require.True(t, ok)
	assert.Equal(t, result.Data, published)
	assert.Equal(t, "no-cache", fs.cacheControl[result.Summary.ArchiveKey])
}

func TestBuildGalleryArchive_OrphanedRecordsTolerated(t *testing.T) {
	// Сценарий из практики: p1 (a.jpg), p2 (блоб отсутствует), p3 (снова a.jpg).
	galleryID := uuid.New()
	fs := newFakeFileStorage()

	p1 := newPhoto(galleryID, "g/p1.jpg", strPtr("a.jpg"))
	p2 := newPhoto(galleryID, "g/p2.jpg", strPtr("b.jpg")) // объекта нет
	p3 := newPhoto(galleryID, "g/p3.jpg", strPtr("a.jpg"))
	fs.objects["g/p1.jpg"] = []byte("first")
	fs.objects["g/p3.jpg"] = []byte("third")

	uc := NewArchiveUseCase(
		&fakePhotoCatalog{photos: []domain.Photo{p1, p2, p3}},
		&fakeGalleryCatalog{},
		fs,
		&fakeInvalidator{},
		testLogger(),
	)

	result, err := uc.BuildGalleryArchive(context.Background(), galleryID, []uuid.UUID{p1.ID, p2.ID, p3.ID})
	require.NoError(t, err) // orphaned — не ошибка операции

	assert.Equal(t, 2, result.Summary.Included)
	assert.Equal(t, 1, result.Summary.Skipped)

	entries, order := readZipEntries(t, result.Data)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"a.jpg", "a_1.jpg"}, order)
	assert.Equal(t, []byte("first"), entries["a.jpg"])
	assert.Equal(t, []byte("third"), entries["a_1.jpg"])
}

func TestBuildGalleryArchive_EmptyGalleryDeletesArchive(t *testing.T) {
	galleryID := uuid.New()
	fs := newFakeFileStorage()
	archiveKey := domain.ArchiveObjectKey(galleryID)
	fs.uploads[archiveKey] = []byte("stale archive") // ранее опубликованный

	uc := NewArchiveUseCase(
		&fakePhotoCatalog{photos: nil},
		&fakeGalleryCatalog{},
		fs,
		&fakeInvalidator{},
		testLogger(),
	)

	result, err := uc.BuildGalleryArchive(context.Background(), galleryID, nil)
	require.NoError(t, err)

	assert.True(t, result.Summary.Empty)
	assert.Zero(t, result.Summary.Included)
	assert.Empty(t, result.Data)

	// старый архив удален, новый не опубликован
	assert.Contains(t, fs.deleted, archiveKey)
	_, stillThere := fs.uploads[archiveKey]
	assert.False(t, stillThere)
}

func TestBuildGalleryArchive_AllOrphanedDeletesArchive(t *testing.T) {
	galleryID := uuid.New()
	fs := newFakeFileStorage()

	p1 := newPhoto(galleryID, "g/p1.jpg", nil) // объекта нет

	uc := NewArchiveUseCase(
		&fakePhotoCatalog{photos: []domain.Photo{p1}},
		&fakeGalleryCatalog{},
		fs,
		&fakeInvalidator{},
		testLogger(),
	)

	result, err := uc.BuildGalleryArchive(context.Background(), galleryID, nil)
	require.NoError(t, err)
	assert.True(t, result.Summary.Empty)
	assert.Equal(t, 1, result.Summary.Skipped)
	assert.Contains(t, fs.deleted, domain.ArchiveObjectKey(galleryID))
}

func TestBuildGalleryArchive_RegenerationIsDeterministic(t *testing.T) {
	galleryID := uuid.New()
	fs := newFakeFileStorage()

	p1 := newPhoto(galleryID, "g/p1.jpg", strPtr("photo.jpg"))
	p2 := newPhoto(galleryID, "g/p2.jpg", strPtr("photo.jpg"))
	fs.objects["g/p1.jpg"] = []byte("one")
	fs.objects["g/p2.jpg"] = []byte("two")

	uc := NewArchiveUseCase(
		&fakePhotoCatalog{photos: []domain.Photo{p1, p2}},
		&fakeGalleryCatalog{},
		fs,
		&fakeInvalidator{},
		testLogger(),
	)

	first, err := uc.BuildGalleryArchive(context.Background(), galleryID, nil)
	require.NoError(t, err)
	second, err := uc.BuildGalleryArchive(context.Background(), galleryID, nil)
	require.NoError(t, err)

	firstEntries, firstOrder := readZipEntries(t, first.Data)
	secondEntries, secondOrder := readZipEntries(t, second.Data)

	assert.Equal(t, []string{"photo.jpg", "photo_1.jpg"}, firstOrder)
	assert.Equal(t, firstOrder, secondOrder)
	assert.Equal(t, firstEntries, secondEntries)
}

func TestBuildGalleryArchive_FallsBackToPrimaryKey(t *testing.T) {
	// Гонка между валидацией и скачиванием: оригинал исчез, основной ключ жив.
	galleryID := uuid.New()
	fs := newFakeFileStorage()

	p1 := newPhoto(galleryID, "g/p1.jpg", strPtr("a.jpg"))
	p1.OriginalS3Key = strPtr("g/originals/p1.raw")
	fs.objects["g/p1.jpg"] = []byte("converted")
	fs.getErr["g/originals/p1.raw"] = errors.New("key vanished")

	uc := NewArchiveUseCase(
		&fakePhotoCatalog{photos: []domain.Photo{p1}},
		&fakeGalleryCatalog{},
		fs,
		&fakeInvalidator{},
		testLogger(),
	)

	result, err := uc.BuildGalleryArchive(context.Background(), galleryID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Included)

	entries, _ := readZipEntries(t, result.Data)
	assert.Equal(t, []byte("converted"), entries["a.jpg"])
}

func TestBuildGalleryArchive_PrefersOriginalKey(t *testing.T) {
	galleryID := uuid.New()
	fs := newFakeFileStorage()

	p1 := newPhoto(galleryID, "g/p1.jpg", strPtr("a.jpg"))
	p1.OriginalS3Key = strPtr("g/originals/p1.raw")
	fs.objects["g/p1.jpg"] = []byte("converted")
	fs.objects["g/originals/p1.raw"] = []byte("raw-original")

	uc := NewArchiveUseCase(
		&fakePhotoCatalog{photos: []domain.Photo{p1}},
		&fakeGalleryCatalog{},
		fs,
		&fakeInvalidator{},
		testLogger(),
	)

	result, err := uc.BuildGalleryArchive(context.Background(), galleryID, nil)
	require.NoError(t, err)

	entries, _ := readZipEntries(t, result.Data)
	assert.Equal(t, []byte("raw-original"), entries["a.jpg"])
}

func TestBuildGalleryArchive_EmptyObjectSkipped(t *testing.T) {
	galleryID := uuid.New()
	fs := newFakeFileStorage()

	p1 := newPhoto(galleryID, "g/p1.jpg", strPtr("a.jpg"))
	p2 := newPhoto(galleryID, "g/p2.jpg", strPtr("b.jpg"))
	fs.objects["g/p1.jpg"] = []byte{} // нулевой размер
	fs.objects["g/p2.jpg"] = []byte("ok")

	uc := NewArchiveUseCase(
		&fakePhotoCatalog{photos: []domain.Photo{p1, p2}},
		&fakeGalleryCatalog{},
		fs,
		&fakeInvalidator{},
		testLogger(),
	)

	result, err := uc.BuildGalleryArchive(context.Background(), galleryID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Included)
	assert.Equal(t, 1, result.Summary.Skipped)

	entries, _ := readZipEntries(t, result.Data)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries, "a.jpg")
}

func TestBuildGalleryArchive_HeadErrorTreatedAsOrphaned(t *testing.T) {
	// Транзиентная ошибка HEAD-проверки не ретраится: запись считается orphaned.
	galleryID := uuid.New()
	fs := newFakeFileStorage()

	p1 := newPhoto(galleryID, "g/p1.jpg", strPtr("a.jpg"))
	p2 := newPhoto(galleryID, "g/p2.jpg", strPtr("b.jpg"))
	fs.objects["g/p1.jpg"] = []byte("ok")
	fs.objects["g/p2.jpg"] = []byte("unreachable")
	fs.headErr["g/p2.jpg"] = errors.New("timeout")

	uc := NewArchiveUseCase(
		&fakePhotoCatalog{photos: []domain.Photo{p1, p2}},
		&fakeGalleryCatalog{},
		fs,
		&fakeInvalidator{},
		testLogger(),
	)

	result, err := uc.BuildGalleryArchive(context.Background(), galleryID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Included)
	assert.Equal(t, 1, result.Summary.Skipped)
}

func TestBuildGalleryArchive_CatalogErrorAbortsOperation(t *testing.T) {
	galleryID := uuid.New()
	fs := newFakeFileStorage()
	archiveKey := domain.ArchiveObjectKey(galleryID)
	fs.uploads[archiveKey] = []byte("previous archive")

	uc := NewArchiveUseCase(
		&fakePhotoCatalog{err: errors.New("catalog unavailable")},
		&fakeGalleryCatalog{},
		fs,
		&fakeInvalidator{},
		testLogger(),
	)

	_, err := uc.BuildGalleryArchive(context.Background(), galleryID, nil)
	require.Error(t, err)

	// ранее опубликованный архив не тронут
	assert.Equal(t, []byte("previous archive"), fs.uploads[archiveKey])
	assert.Empty(t, fs.deleted)
}

func TestBuildGalleryArchive_PublishErrorPropagates(t *testing.T) {
	galleryID := uuid.New()
	fs := newFakeFileStorage()
	fs.objects["g/p1.jpg"] = []byte("data")
	fs.uploadErr = errors.New("put failed")

	p1 := newPhoto(galleryID, "g/p1.jpg", strPtr("a.jpg"))

	uc := NewArchiveUseCase(
		&fakePhotoCatalog{photos: []domain.Photo{p1}},
		&fakeGalleryCatalog{},
		fs,
		&fakeInvalidator{},
		testLogger(),
	)

	_, err := uc.BuildGalleryArchive(context.Background(), galleryID, nil)
	require.Error(t, err)
}

func TestBuildGalleryArchive_CDNFailureIsNotFatal(t *testing.T) {
	galleryID := uuid.New()
	fs := newFakeFileStorage()
	fs.objects["g/p1.jpg"] = []byte("data")

	p1 := newPhoto(galleryID, "g/p1.jpg", strPtr("a.jpg"))
	inv := &fakeInvalidator{err: errors.New("cdn down")}

	uc := NewArchiveUseCase(
		&fakePhotoCatalog{photos: []domain.Photo{p1}},
		&fakeGalleryCatalog{},
		fs,
		inv,
		testLogger(),
	)

	result, err := uc.BuildGalleryArchive(context.Background(), galleryID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Included)
	assert.Equal(t, []string{"/" + result.Summary.ArchiveKey}, inv.paths)
}

func TestBuildGalleryArchive_FiltersByRequestedIDs(t *testing.T) {
	galleryID := uuid.New()
	fs := newFakeFileStorage()

	p1 := newPhoto(galleryID, "g/p1.jpg", strPtr("a.jpg"))
	p2 := newPhoto(galleryID, "g/p2.jpg", strPtr("b.jpg"))
	fs.objects["g/p1.jpg"] = []byte("one")
	fs.objects["g/p2.jpg"] = []byte("two")

	uc := NewArchiveUseCase(
		&fakePhotoCatalog{photos: []domain.Photo{p1, p2}},
		&fakeGalleryCatalog{},
		fs,
		&fakeInvalidator{},
		testLogger(),
	)

	result, err := uc.BuildGalleryArchive(context.Background(), galleryID, []uuid.UUID{p2.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Included)

	entries, _ := readZipEntries(t, result.Data)
	require.Len(t, entries, 1)
	assert.Equal(t, []byte("two"), entries["b.jpg"])
}

func TestRebuildGalleryArchive_ReturnsSummary(t *testing.T) {
	galleryID := uuid.New()
	fs := newFakeFileStorage()
	fs.objects["g/p1.jpg"] = []byte("data")

	p1 := newPhoto(galleryID, "g/p1.jpg", strPtr("a.jpg"))

	uc := NewArchiveUseCase(
		&fakePhotoCatalog{photos: []domain.Photo{p1}},
		&fakeGalleryCatalog{},
		fs,
		&fakeInvalidator{},
		testLogger(),
	)

	summary, err := uc.RebuildGalleryArchive(context.Background(), galleryID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Included)
	assert.Contains(t, fs.uploads, summary.ArchiveKey)
}

// --- тесты авторизации ---

func TestAuthorizeGalleryAccess(t *testing.T) {
	galleryID := uuid.New()
	ownerID := uuid.New()
	gallery := &domain.Gallery{ID: galleryID, OwnerID: ownerID, Name: "wedding"}

	catalog := &fakeGalleryCatalog{
		gallery: gallery,
		clients: map[string]bool{"client@example.com": true},
		tokens: map[string]*domain.ShareToken{
			"valid-token": {Token: "valid-token", GalleryID: galleryID, ExpiresAt: time.Now().Add(time.Hour)},
			"expired":     {Token: "expired", GalleryID: galleryID, ExpiresAt: time.Now().Add(-time.Hour)},
			"other":       {Token: "other", GalleryID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)},
		},
	}

	uc := NewArchiveUseCase(&fakePhotoCatalog{}, catalog, newFakeFileStorage(), &fakeInvalidator{}, testLogger())
	ctx := context.Background()

	tests := []struct {
		name     string
		identity AccessIdentity
		wantErr  error
	}{
		{"владелец", AccessIdentity{UserID: ownerID}, nil},
		{"разрешенный клиент", AccessIdentity{ClientEmail: "client@example.com"}, nil},
		{"действующий токен", AccessIdentity{ShareToken: "valid-token"}, nil},
		{"чужой пользователь", AccessIdentity{UserID: uuid.New()}, ErrAccessDenied},
		{"неизвестный email", AccessIdentity{ClientEmail: "stranger@example.com"}, ErrAccessDenied},
		{"просроченный токен", AccessIdentity{ShareToken: "expired"}, ErrAccessDenied},
		{"токен другой галереи", AccessIdentity{ShareToken: "other"}, ErrAccessDenied},
		{"пустая identity", AccessIdentity{}, ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := uc.AuthorizeGalleryAccess(ctx, galleryID, tt.identity)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, gallery, got)
			}
		})
	}
}

func TestAuthorizeGalleryAccess_GalleryNotFound(t *testing.T) {
	uc := NewArchiveUseCase(&fakePhotoCatalog{}, &fakeGalleryCatalog{}, newFakeFileStorage(), &fakeInvalidator{}, testLogger())

	_, err := uc.AuthorizeGalleryAccess(context.Background(), uuid.New(), AccessIdentity{UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrGalleryNotFound)
}
