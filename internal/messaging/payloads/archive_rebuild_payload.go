package payloads

// ArchiveRebuildPayload представляет задачу перегенерации архива галереи,
// передаваемую через RabbitMQ. Отправитель не ждет результата.
type ArchiveRebuildPayload struct {
	GalleryID string `json:"gallery_id"`
}
