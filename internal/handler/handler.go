package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/GalleryApp/internal/core/ports"
	"github.com/GoArmGo/GalleryApp/internal/messaging/payloads"
	"github.com/GoArmGo/GalleryApp/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ArchiveHandler — обработчик HTTP-запросов для скачивания и перегенерации
// архивов галерей.
type ArchiveHandler struct {
	archiveUseCase   usecase.ArchiveUseCase
	rebuildPublisher ports.ArchiveRebuildPublisher
	buildLimiter     chan struct{}
	logger           *slog.Logger
}

// NewArchiveHandler создаёт новый экземпляр ArchiveHandler.
func NewArchiveHandler(
	uc usecase.ArchiveUseCase,
	publisher ports.ArchiveRebuildPublisher,
	limiter chan struct{},
	logger *slog.Logger,
) *ArchiveHandler {
	return &ArchiveHandler{
		archiveUseCase:   uc,
		rebuildPublisher: publisher,
		buildLimiter:     limiter,
		logger:           logger,
	}
}

// BulkDownloadRequest — тело запроса на массовое скачивание фотографий.
type BulkDownloadRequest struct {
	PhotoIDs    []string `json:"photo_ids"`
	ClientEmail string   `json:"client_email,omitempty"`
	ShareToken  string   `json:"share_token,omitempty"`
}

// respondWithJSON — отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError — отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, map[string]string{"error": message}, logger)
}

// BulkDownload — собирает и отдает архив выбранных фотографий галереи.
// Доступ: владелец (заголовок X-User-ID), разрешенный клиент (client_email)
// или держатель share-токена. Тело ответа — base64 архива.
func (h *ArchiveHandler) BulkDownload(w http.ResponseWriter, r *http.Request) {
	galleryID, err := uuid.Parse(chi.URLParam(r, "galleryID"))
	if err != nil {
		h.logger.Warn("invalid gallery id", "value", chi.URLParam(r, "galleryID"))
		respondWithError(w, http.StatusBadRequest, "некорректный идентификатор галереи", h.logger)
		return
	}

	var req BulkDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "некорректное тело запроса", h.logger)
		return
	}
	if len(req.PhotoIDs) == 0 {
		respondWithError(w, http.StatusBadRequest, "не указаны photo_ids", h.logger)
		return
	}

	photoIDs := make([]uuid.UUID, 0, len(req.PhotoIDs))
	for _, raw := range req.PhotoIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("некорректный photo_id: %s", raw), h.logger)
			return
		}
		photoIDs = append(photoIDs, id)
	}

	identity := usecase.AccessIdentity{
		ClientEmail: req.ClientEmail,
		ShareToken:  req.ShareToken,
	}
	if userID, err := uuid.Parse(r.Header.Get("X-User-ID")); err == nil {
		identity.UserID = userID
	}

	h.logger.Info("processing bulk download",
		"endpoint", "BulkDownload",
		"gallery_id", galleryID,
		"photo_count", len(photoIDs),
	)

	if _, err := h.archiveUseCase.AuthorizeGalleryAccess(r.Context(), galleryID, identity); err != nil {
		switch {
		case errors.Is(err, usecase.ErrGalleryNotFound):
			respondWithError(w, http.StatusNotFound, "галерея не найдена", h.logger)
		case errors.Is(err, usecase.ErrAccessDenied):
			respondWithError(w, http.StatusForbidden, "доступ запрещен", h.logger)
		default:
			h.logger.Error("failed to authorize gallery access", "gallery_id", galleryID, "error", err)
			respondWithError(w, http.StatusInternalServerError, "внутренняя ошибка", h.logger)
		}
		return
	}

	// Ограничиваем число одновременных сборок: каждая держит архив в памяти.
	select {
	case h.buildLimiter <- struct{}{}:
		defer func() { <-h.buildLimiter }()
	default:
		respondWithError(w, http.StatusServiceUnavailable, "сервер занят, повторите позже", h.logger)
		return
	}

	result, err := h.archiveUseCase.BuildGalleryArchive(r.Context(), galleryID, photoIDs)
	if err != nil {
		h.logger.Error("failed to build gallery archive", "gallery_id", galleryID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "внутренняя ошибка", h.logger)
		return
	}

	if result.Summary.Empty {
		respondWithError(w, http.StatusNotFound, "валидные фотографии не найдены", h.logger)
		return
	}

	h.logger.Info("bulk download completed",
		"gallery_id", galleryID,
		"included", result.Summary.Included,
		"skipped", result.Summary.Skipped,
		"size_bytes", result.Summary.SizeBytes,
	)

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Transfer-Encoding", "base64")
	w.Header().Set("Content-Disposition", `attachment; filename="gallery-all-photos.zip"`)
	w.Header().Set("X-Photos-Included", fmt.Sprintf("%d", result.Summary.Included))
	w.Header().Set("X-Photos-Skipped", fmt.Sprintf("%d", result.Summary.Skipped))
	w.WriteHeader(http.StatusOK)

	encoder := base64.NewEncoder(base64.StdEncoding, w)
	if _, err := encoder.Write(result.Data); err != nil {
		h.logger.Error("failed to write archive response", "gallery_id", galleryID, "error", err)
		return
	}
	if err := encoder.Close(); err != nil {
		h.logger.Error("failed to flush archive response", "gallery_id", galleryID, "error", err)
	}
}

// TriggerArchiveRebuild — ставит задачу перегенерации архива галереи в очередь.
// Fire-and-forget: ответ не ждет завершения сборки.
func (h *ArchiveHandler) TriggerArchiveRebuild(w http.ResponseWriter, r *http.Request) {
	galleryID, err := uuid.Parse(chi.URLParam(r, "galleryID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "некорректный идентификатор галереи", h.logger)
		return
	}

	payload := payloads.ArchiveRebuildPayload{GalleryID: galleryID.String()}
	if err := h.rebuildPublisher.PublishArchiveRebuildRequest(r.Context(), payload); err != nil {
		h.logger.Error("failed to publish archive rebuild request", "gallery_id", galleryID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "не удалось поставить задачу перегенерации", h.logger)
		return
	}

	h.logger.Info("archive rebuild enqueued", "gallery_id", galleryID)
	respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "перегенерация архива поставлена в очередь"}, h.logger)
}
