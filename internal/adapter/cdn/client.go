package cdn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/GoArmGo/GalleryApp/internal/config"
)

// PurgeAPIClient представляет клиент для взаимодействия с API инвалидации CDN.
// Инвалидация — best-effort: вызывающий код логирует ошибку и продолжает работу.
type PurgeAPIClient struct {
	httpClient *http.Client
	purgeURL   string // если пуст, инвалидация отключена
	apiToken   string
}

// NewPurgeAPIClient создает новый экземпляр PurgeAPIClient.
func NewPurgeAPIClient(cfg *config.Config) *PurgeAPIClient {
	return &PurgeAPIClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		purgeURL:   cfg.CDN.PurgeURL,
		apiToken:   cfg.CDN.APIToken,
	}
}

// InvalidatePath запрашивает инвалидацию одного пути на краях CDN.
func (c *PurgeAPIClient) InvalidatePath(ctx context.Context, path string) error {
	if c.purgeURL == "" {
		// CDN не настроен — считаем инвалидацию успешной
		return nil
	}

	body, err := json.Marshal(PurgeRequest{Paths: []string{path}})
	if err != nil {
		return fmt.Errorf("ошибка маршалинга запроса инвалидации: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.purgeURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ошибка создания HTTP-запроса инвалидации: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения HTTP-запроса к CDN: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("CDN purge API вернул статус %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var purgeResp PurgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&purgeResp); err != nil {
		// Тело ответа не критично: запрос уже принят
		return nil
	}
	return nil
}
