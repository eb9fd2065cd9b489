package handlers

import (
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"chat-viewer/cmd/viewer/dto"
	"chat-viewer/cmd/viewer/services"
	"chat-viewer/cmd/viewer/views"
)

// SendMessageHandler godoc
// @Summary      Send a message
// @Description  활성 대화에 메시지를 보내고 사용자 메시지와 어시스턴트 응답 HTML 조각을 돌려준다.
// @Description  X-Fragment 헤더가 없으면 대화 화면으로 303 리다이렉트한다.
// @Tags         messages
// @Accept       json,x-www-form-urlencoded
// @Produce      html
// @Param        userId  path  string                 true  "User ID"
// @Param        chatId  path  string                 true  "Chat ID"
// @Param        body    body  dto.ComposeRequestDTO  true  "message"
// @Success      200  {string}  string  "HTML fragment"
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      409  {object}  dto.ErrorResponseDTO  "chat not active or send in progress"
// @Failure      503  {object}  dto.ErrorResponseDTO
// @Router       /{userId}/chat/{chatId}/message [post]
func SendMessageHandler(svc *services.ViewerService, renderer *views.Renderer, monitor Online) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, chatID := c.Param("userId"), c.Param("chatId")

		var req dto.ComposeRequestDTO
		if err := c.ShouldBind(&req); err != nil {
			respondJSONError(c, "send_message", &services.ViewerError{StatusCode: http.StatusBadRequest, ErrorCode: "invalid_request", Cause: err})
			return
		}
		if err := req.Validate(); err != nil {
			respondJSONError(c, "send_message", &services.ViewerError{StatusCode: http.StatusBadRequest, ErrorCode: "invalid_request", Cause: err})
			return
		}

		res, err := svc.SendMessage(c.Request.Context(), userID, chatID, req.Message)
		if err != nil {
			if !isFragment(c) {
				respondPageError(c, "send_message", err, renderer, monitor)
				return
			}
			respondJSONError(c, "send_message", err)
			return
		}
		if !isFragment(c) {
			c.Redirect(http.StatusSeeOther, services.ChatRoute(userID, res.ChatID))
			return
		}
		renderHTML(c, http.StatusOK, func(w io.Writer) error {
			return renderer.SendFragment(w, userID, res)
		})
	}
}

// BeginEditHandler godoc
// @Summary      Open message editor
// @Description  정본 메시지를 가져와 편집창 HTML 조각으로 돌려준다.
// @Tags         messages
// @Produce      html
// @Param        userId  path  string  true  "User ID"
// @Param        id      path  string  true  "Message ID"
// @Success      200  {string}  string  "HTML fragment"
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /{userId}/messages/{id}/edit [get]
func BeginEditHandler(svc *services.ViewerService, renderer *views.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, id := c.Param("userId"), c.Param("id")
		if !isFragment(c) {
			c.Redirect(http.StatusSeeOther, svc.CurrentRoute(userID)+"?edit="+url.QueryEscape(id))
			return
		}
		msg, err := svc.BeginEdit(c.Request.Context(), id)
		if err != nil {
			respondJSONError(c, "begin_edit", err)
			return
		}
		renderHTML(c, http.StatusOK, func(w io.Writer) error {
			return renderer.EditFragment(w, userID, msg)
		})
	}
}

// SaveEditHandler godoc
// @Summary      Save message edit
// @Description  새 내용을 저장하고 서버가 돌려준 정본 메시지를 HTML 조각으로 돌려준다.
// @Tags         messages
// @Accept       json,x-www-form-urlencoded
// @Produce      html
// @Param        userId  path  string              true  "User ID"
// @Param        id      path  string              true  "Message ID"
// @Param        body    body  dto.EditRequestDTO  true  "content"
// @Success      200  {string}  string  "HTML fragment"
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /{userId}/messages/{id} [post]
func SaveEditHandler(svc *services.ViewerService, renderer *views.Renderer, monitor Online) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, id := c.Param("userId"), c.Param("id")

		var req dto.EditRequestDTO
		if err := c.ShouldBind(&req); err != nil {
			respondJSONError(c, "save_edit", &services.ViewerError{StatusCode: http.StatusBadRequest, ErrorCode: "invalid_request", Cause: err})
			return
		}
		if err := req.Validate(); err != nil {
			respondJSONError(c, "save_edit", &services.ViewerError{StatusCode: http.StatusBadRequest, ErrorCode: "invalid_request", Cause: err})
			return
		}

		msg, err := svc.SaveEdit(c.Request.Context(), userID, id, req.Content)
		if err != nil {
			if !isFragment(c) {
				respondPageError(c, "save_edit", err, renderer, monitor)
				return
			}
			respondJSONError(c, "save_edit", err)
			return
		}
		if !isFragment(c) {
			c.Redirect(http.StatusSeeOther, svc.CurrentRoute(userID))
			return
		}
		renderHTML(c, http.StatusOK, func(w io.Writer) error {
			return renderer.MessageFragment(w, userID, msg)
		})
	}
}

// CancelEditHandler godoc
// @Summary      Cancel message edit
// @Description  로컬 편집을 버리고 원본 메시지를 다시 가져와 HTML 조각으로 돌려준다.
// @Tags         messages
// @Produce      html
// @Param        userId  path  string  true  "User ID"
// @Param        id      path  string  true  "Message ID"
// @Success      200  {string}  string  "HTML fragment"
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /{userId}/messages/{id} [get]
func CancelEditHandler(svc *services.ViewerService, renderer *views.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, id := c.Param("userId"), c.Param("id")
		if !isFragment(c) {
			c.Redirect(http.StatusSeeOther, svc.CurrentRoute(userID))
			return
		}
		msg, err := svc.CancelEdit(c.Request.Context(), id)
		if err != nil {
			respondJSONError(c, "cancel_edit", err)
			return
		}
		renderHTML(c, http.StatusOK, func(w io.Writer) error {
			return renderer.MessageFragment(w, userID, msg)
		})
	}
}
