package handlers

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"chat-viewer/cmd/internal/logger"
	"chat-viewer/cmd/viewer/dto"
	"chat-viewer/cmd/viewer/offline"
)

// copiedAssetHeaders 는 프록시 응답에 그대로 옮기는 헤더다.
var copiedAssetHeaders = []string{"Content-Type", "Cache-Control", "ETag", "Last-Modified", offline.HeaderCacheStatus}

// AssetProxyHandler godoc
// @Summary      Cached static asset
// @Description  asset_base_url 아래의 정적 파일을 오프라인 캐시 워커를 거쳐 전달한다 (cache-first).
// @Tags         assets
// @Param        path  path  string  true  "Asset path"
// @Success      200  {file}  file
// @Failure      502  {object}  dto.ErrorResponseDTO
// @Router       /assets/{path} [get]
func AssetProxyHandler(client *http.Client, baseURL string) gin.HandlerFunc {
	baseURL = strings.TrimRight(baseURL, "/")
	return func(c *gin.Context) {
		rel := path.Clean("/" + c.Param("path"))
		if rel == "/" {
			c.JSON(http.StatusNotFound, dto.ErrorResponseDTO{Error: "not_found"})
			return
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, baseURL+rel, nil)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request"})
			return
		}
		resp, err := client.Do(req)
		if err != nil {
			logger.ErrorWithFields("asset fetch failed", logger.Fields{"url": req.URL.String(), "error": err.Error()})
			c.JSON(http.StatusBadGateway, dto.ErrorResponseDTO{Error: "asset_unavailable"})
			return
		}
		defer resp.Body.Close()

		for _, h := range copiedAssetHeaders {
			if v := resp.Header.Get(h); v != "" {
				c.Header(h, v)
			}
		}
		c.Status(resp.StatusCode)
		if _, err := io.Copy(c.Writer, resp.Body); err != nil {
			logger.WarnWithFields("asset copy interrupted", logger.Fields{"url": req.URL.String(), "error": err.Error()})
		}
	}
}
