package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-viewer/cmd/viewer/dto"
	"chat-viewer/cmd/viewer/services"
	"chat-viewer/cmd/viewer/views"
)

// ChatListPageHandler godoc
// @Summary      Chat list page
// @Description  사용자의 대화 목록 화면. 활성 대화 선택을 해제한다.
// @Tags         pages
// @Param        userId  path  string  true  "User ID"
// @Produce      html
// @Success      200  {string}  string  "HTML page"
// @Failure      502  {string}  string  "HTML page with alert"
// @Router       /{userId} [get]
func ChatListPageHandler(svc *services.ViewerService, renderer *views.Renderer, monitor Online) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		svc.ClearSelection(userID)

		list, err := svc.LoadChats(c.Request.Context(), userID)
		if err != nil {
			respondPageError(c, "load_chats", err, renderer, monitor)
			return
		}
		history := svc.States().Get(userID).History
		renderHTML(c, http.StatusOK, func(w io.Writer) error {
			return renderer.ChatListPage(w, list, history, pageState(monitor, ""))
		})
	}
}

// ChatPageHandler godoc
// @Summary      Chat page
// @Description  대화 화면. 최신 대화일 때만 입력창이 보인다. edit 쿼리가 있으면 해당 메시지를 편집창으로 연다.
// @Tags         pages
// @Param        userId  path   string  true   "User ID"
// @Param        chatId  path   string  true   "Chat ID"
// @Param        edit    query  string  false  "Message ID to open in edit mode"
// @Produce      html
// @Success      200  {string}  string  "HTML page"
// @Failure      404  {string}  string  "HTML page with alert"
// @Router       /{userId}/chat/{chatId} [get]
func ChatPageHandler(svc *services.ViewerService, renderer *views.Renderer, monitor Online) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		view, err := svc.LoadChat(c.Request.Context(), userID, c.Param("chatId"))
		if err != nil {
			respondPageError(c, "load_chat", err, renderer, monitor)
			return
		}

		var (
			editing *dto.Message
			alert   string
		)
		if id := c.Query("edit"); id != "" {
			msg, err := svc.BeginEdit(c.Request.Context(), id)
			if err != nil {
				verr := services.AsViewerError(err)
				logFailure(c, "begin_edit", verr)
				alert = alertText(verr)
			} else {
				editing = &msg
			}
		}
		renderHTML(c, http.StatusOK, func(w io.Writer) error {
			return renderer.ChatPage(w, view, editing, pageState(monitor, alert))
		})
	}
}

// NewChatPageHandler godoc
// @Summary      New chat page
// @Description  새 대화 ID 를 할당하고 입력창을 연다.
// @Tags         pages
// @Param        userId  path  string  true  "User ID"
// @Produce      html
// @Success      200  {string}  string  "HTML page"
// @Router       /{userId}/new [get]
func NewChatPageHandler(svc *services.ViewerService, renderer *views.Renderer, monitor Online) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.StartNewChat(c.Request.Context(), c.Param("userId"))
		if err != nil {
			respondPageError(c, "start_new_chat", err, renderer, monitor)
			return
		}
		renderHTML(c, http.StatusOK, func(w io.Writer) error {
			return renderer.ChatPage(w, view, nil, pageState(monitor, ""))
		})
	}
}

// BackHandler godoc
// @Summary      Navigate back
// @Description  히스토리에서 이전 화면으로 돌아간다. 더 없으면 목록 화면.
// @Tags         pages
// @Param        userId  path  string  true  "User ID"
// @Success      303
// @Router       /{userId}/back [get]
func BackHandler(svc *services.ViewerService, renderer *views.Renderer, monitor Online) gin.HandlerFunc {
	return func(c *gin.Context) {
		route, err := svc.Back(c.Param("userId"))
		if err != nil {
			respondPageError(c, "back", err, renderer, monitor)
			return
		}
		c.Redirect(http.StatusSeeOther, route)
	}
}
