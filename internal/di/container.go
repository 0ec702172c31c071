package di

import (
	"github.com/GoArmGo/GalleryApp/internal/adapter/cdn"
	"github.com/GoArmGo/GalleryApp/internal/adapter/storage/minio"
	"github.com/GoArmGo/GalleryApp/internal/app"
	"github.com/GoArmGo/GalleryApp/internal/config"
	"github.com/GoArmGo/GalleryApp/internal/database/client"
	"github.com/GoArmGo/GalleryApp/internal/database/postgres"
	"github.com/GoArmGo/GalleryApp/internal/database/storage"
	"github.com/GoArmGo/GalleryApp/internal/logger"
	"github.com/GoArmGo/GalleryApp/internal/rabbitmq"
	"github.com/GoArmGo/GalleryApp/internal/usecase"
)

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
// Клиенты внешних сервисов создаются только здесь и передаются явно:
// никакого глобального состояния, в тестах каждая зависимость подменяется.
func BuildApp() (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogCfg := logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}
	slogger := logger.NewSlog(slogCfg)

	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	// 2. Инициализация PostgreSQL клиента (sqlx + GORM поверх одного пула)
	dbClient, err := client.NewClient(cfg, slogger)
	if err != nil {
		return nil, err
	}

	// 3. Инициализация каталогов
	photoCatalog := storage.NewPhotoStorage(dbClient.DB, slogger)
	galleryCatalog := postgres.NewGormGalleryStorage(dbClient.Gorm, slogger)

	// 4. Инициализация клиентов внешних сервисов
	fileStorage, err := minio.NewMinioClient(cfg) // S3 / MinIO адаптер
	if err != nil {
		return nil, err
	}
	cdnClient := cdn.NewPurgeAPIClient(cfg)

	// 5. Инициализация RabbitMQ клиента (publisher и consumer)
	rabbitMQClient, err := rabbitmq.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	// 6. Инициализация бизнес-логики
	archiveUseCase := usecase.NewArchiveUseCase(photoCatalog, galleryCatalog, fileStorage, cdnClient, slogger)

	// 7. Лимитер одновременных сборок архива на HTTP-пути
	buildLimiter := make(chan struct{}, cfg.MaxConcurrentBuilds)

	// 8. Сборка итогового приложения
	application := app.NewApp(
		cfg,
		slogger,
		dbClient.DB,
		archiveUseCase,
		rabbitMQClient,
		rabbitMQClient,
		buildLimiter,
	)

	slogger.Info("dependencies initialized successfully")
	return application, nil
}
