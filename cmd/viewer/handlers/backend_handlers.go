package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-viewer/cmd/viewer/dto"
	"chat-viewer/cmd/viewer/services"
)

// ListChatsHandler godoc
// @Summary      List chats
// @Description  백엔드의 GET /chats/{userId} 를 그대로 전달한다. 최신순.
// @Tags         backend
// @Produce      json
// @Param        userId  path  string  true  "User ID"
// @Success      200  {array}   dto.Chat
// @Failure      502  {object}  dto.ErrorResponseDTO
// @Router       /chats/{userId} [get]
func ListChatsHandler(svc *services.BackendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		chats, err := svc.ListChats(c.Request.Context(), c.Param("userId"))
		if err != nil {
			respondJSONError(c, "list_chats", err)
			return
		}
		c.JSON(http.StatusOK, chats)
	}
}

// ListMessagesHandler godoc
// @Summary      List messages
// @Description  백엔드의 GET /chat/{chatId}/messages 를 그대로 전달한다. system 메시지도 포함된다.
// @Tags         backend
// @Produce      json
// @Param        chatId  path  string  true  "Chat ID"
// @Success      200  {array}   dto.Message
// @Failure      502  {object}  dto.ErrorResponseDTO
// @Router       /chat/{chatId}/messages [get]
func ListMessagesHandler(svc *services.BackendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		msgs, err := svc.ListMessages(c.Request.Context(), c.Param("chatId"))
		if err != nil {
			respondJSONError(c, "list_messages", err)
			return
		}
		c.JSON(http.StatusOK, msgs)
	}
}

// GetMessageHandler godoc
// @Summary      Get message
// @Tags         backend
// @Produce      json
// @Param        id  path  string  true  "Message ID"
// @Success      200  {object}  dto.Message
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /message/{id} [get]
func GetMessageHandler(svc *services.BackendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		msg, err := svc.GetMessage(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondJSONError(c, "get_message", err)
			return
		}
		c.JSON(http.StatusOK, msg)
	}
}

// UpdateMessageHandler godoc
// @Summary      Update message
// @Description  내용을 바꾸고 백엔드가 돌려준 정본 메시지를 반환한다.
// @Tags         backend
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "Message ID"
// @Param        body  body  dto.UpdateMessageRequestDTO  true  "content"
// @Success      200  {object}  dto.Message
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /message/{id} [put]
func UpdateMessageHandler(svc *services.BackendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.UpdateMessageRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request"})
			return
		}
		msg, err := svc.UpdateMessage(c.Request.Context(), c.Param("id"), req.Content)
		if err != nil {
			respondJSONError(c, "update_message", err)
			return
		}
		c.JSON(http.StatusOK, msg)
	}
}

// PostMessageHandler godoc
// @Summary      Post message
// @Description  백엔드의 POST /api/{userId}/{chatId}/message 를 그대로 전달하고 어시스턴트 응답 원문을 돌려준다.
// @Tags         backend
// @Accept       json
// @Produce      plain
// @Param        userId  path  string                     true  "User ID"
// @Param        chatId  path  string                     true  "Chat ID"
// @Param        body    body  dto.SendMessageRequestDTO  true  "message"
// @Success      200  {string}  string  "assistant reply"
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      503  {object}  dto.ErrorResponseDTO
// @Router       /api/{userId}/{chatId}/message [post]
func PostMessageHandler(svc *services.BackendService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.SendMessageRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request"})
			return
		}
		reply, err := svc.SendMessage(c.Request.Context(), c.Param("userId"), c.Param("chatId"), req.Message)
		if err != nil {
			respondJSONError(c, "post_message", err)
			return
		}
		c.String(http.StatusOK, reply)
	}
}
