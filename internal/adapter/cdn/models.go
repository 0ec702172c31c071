package cdn

// PurgeRequest — тело запроса на инвалидацию путей
type PurgeRequest struct {
	Paths []string `json:"paths"`
}

// PurgeResponse — ответ API инвалидации
type PurgeResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}
