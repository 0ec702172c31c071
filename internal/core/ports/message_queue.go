package ports

import (
	"context"

	"github.com/GoArmGo/GalleryApp/internal/messaging/payloads"
)

// ArchiveRebuildPublisher определяет методы для постановки задач перегенерации
// архива галереи. Используется HTTP-обработчиками: ответ клиенту не ждет,
// пока архив будет пересобран.
type ArchiveRebuildPublisher interface {
	PublishArchiveRebuildRequest(ctx context.Context, payload payloads.ArchiveRebuildPayload) error
}

// ArchiveRebuildConsumer определяет методы для потребления задач перегенерации,
// будет использоваться воркером для получения задач из очереди
type ArchiveRebuildConsumer interface {
	// StartConsumingArchiveRebuildRequests начинает прослушивание очереди,
	// принимает функцию-обработчик, которая будет вызываться для каждого сообщения
	StartConsumingArchiveRebuildRequests(ctx context.Context, handler func(context.Context, payloads.ArchiveRebuildPayload) error) error
}
