package dto

// ErrorResponseDTO 는 공통 에러 응답 형식이다. 화면에서는 alert 로 보여준다.
type ErrorResponseDTO struct {
	Error string `json:"error" example:"backend_unavailable"`
}

type HealthResponseDTO struct {
	Status      string `json:"status" example:"ok"`
	Backend     string `json:"backend" example:"online"`
	CacheWorker string `json:"cache_worker" example:"activated"`
	CacheName   string `json:"cache_name" example:"chat-viewer-v1"`
}
