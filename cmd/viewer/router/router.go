package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"chat-viewer/cmd/viewer/handlers"
	"chat-viewer/cmd/viewer/middleware"
	"chat-viewer/cmd/viewer/offline"
	"chat-viewer/cmd/viewer/services"
	"chat-viewer/cmd/viewer/views"
	_ "chat-viewer/docs"
)

type Deps struct {
	Viewer  *services.ViewerService
	Backend *services.BackendService
	Monitor *services.ConnectivityMonitor
	Views   *views.Renderer
	Worker  *offline.Worker

	// AssetClient 는 오프라인 캐시 워커를 Transport 로 쓰는 클라이언트다.
	AssetClient  *http.Client
	AssetBaseURL string
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestTrace())

	// Health check
	r.GET("/health", handlers.HealthHandler(d.Monitor, d.Worker))

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 정적 파일
	r.StaticFS("/static", http.FS(views.Static()))
	r.GET("/assets/*path", handlers.AssetProxyHandler(d.AssetClient, d.AssetBaseURL))
	r.GET("/favicon.ico", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	// 백엔드 JSON 그대로 전달
	r.GET("/chats/:userId", handlers.ListChatsHandler(d.Backend))
	r.GET("/chat/:chatId/messages", handlers.ListMessagesHandler(d.Backend))
	r.GET("/message/:id", handlers.GetMessageHandler(d.Backend))
	r.PUT("/message/:id", handlers.UpdateMessageHandler(d.Backend))
	r.POST("/api/:userId/:chatId/message", handlers.PostMessageHandler(d.Backend))

	// 화면
	user := r.Group("/:userId")
	{
		user.GET("", handlers.ChatListPageHandler(d.Viewer, d.Views, d.Monitor))
		user.GET("/new", handlers.NewChatPageHandler(d.Viewer, d.Views, d.Monitor))
		user.GET("/back", handlers.BackHandler(d.Viewer, d.Views, d.Monitor))
		user.GET("/chat/:chatId", handlers.ChatPageHandler(d.Viewer, d.Views, d.Monitor))
		user.POST("/chat/:chatId/message", handlers.SendMessageHandler(d.Viewer, d.Views, d.Monitor))
		user.GET("/messages/:id/edit", handlers.BeginEditHandler(d.Viewer, d.Views))
		user.GET("/messages/:id", handlers.CancelEditHandler(d.Viewer, d.Views))
		user.POST("/messages/:id", handlers.SaveEditHandler(d.Viewer, d.Views, d.Monitor))
	}

	return r
}
