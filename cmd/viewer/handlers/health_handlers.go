package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chat-viewer/cmd/viewer/dto"
	"chat-viewer/cmd/viewer/offline"
)

// Prober 는 백엔드를 즉시 한 번 점검한다.
type Prober interface {
	Check(ctx context.Context) bool
}

// HealthHandler godoc
// @Summary      Health check
// @Description  백엔드 도달 여부와 캐시 워커 상태
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponseDTO
// @Failure      503  {object}  dto.HealthResponseDTO
// @Router       /health [get]
func HealthHandler(prober Prober, worker *offline.Worker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		resp := dto.HealthResponseDTO{
			Status:      "ok",
			Backend:     "online",
			CacheWorker: worker.State().String(),
			CacheName:   worker.Name(),
		}
		status := http.StatusOK
		if !prober.Check(ctx) {
			resp.Status = "degraded"
			resp.Backend = "offline"
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}
