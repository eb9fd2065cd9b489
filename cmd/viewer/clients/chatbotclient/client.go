package chatbotclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"chat-viewer/cmd/viewer/dto"
	"chat-viewer/cmd/viewer/httpclient"
	"chat-viewer/cmd/viewer/offline"
)

// Client 는 채팅 기록을 보관하는 외부 챗봇 백엔드의 얇은 HTTP 클라이언트다.
// 뷰 상태는 전혀 모르고, 백엔드 JSON 을 dto 로 바꿔 돌려주기만 한다.
type Client struct {
	base *httpclient.BaseClient
}

const maxBodySize = 5 * 1024 * 1024

// HTTPError 는 백엔드가 200 이 아닌 상태를 돌려준 경우다.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("chatbot-backend request failed: status=%d body=%s", e.StatusCode, e.Body)
}

var (
	ErrNotFound = errors.New("resource not found")
	// ErrCachedResponse 는 Ping 응답이 백엔드가 아니라 오프라인 캐시에서 나온 경우다.
	ErrCachedResponse = errors.New("chatbot-backend unreachable: response served from offline cache")
)

func New(base *httpclient.BaseClient) *Client {
	return &Client{base: base}
}

// ListChats 는 GET /chats/{userId} 로 최신순 대화 목록을 가져온다.
func (c *Client) ListChats(ctx context.Context, userID string) ([]dto.Chat, error) {
	var out []dto.Chat
	if err := c.getJSON(ctx, "/chats/"+url.PathEscape(userID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMessages 는 GET /chat/{chatId}/messages 로 대화의 메시지를 순서대로 가져온다.
func (c *Client) ListMessages(ctx context.Context, chatID string) ([]dto.Message, error) {
	var out []dto.Message
	if err := c.getJSON(ctx, "/chat/"+url.PathEscape(chatID)+"/messages", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMessage 는 GET /message/{id} 로 정본 메시지를 가져온다.
func (c *Client) GetMessage(ctx context.Context, id string) (dto.Message, error) {
	var out dto.Message
	if err := c.getJSON(ctx, "/message/"+url.PathEscape(id), &out); err != nil {
		return dto.Message{}, err
	}
	return out, nil
}

// UpdateMessage 는 PUT /message/{id} 로 내용을 바꾸고, 서버가 돌려준 정본 메시지를 반환한다.
func (c *Client) UpdateMessage(ctx context.Context, id, content string) (dto.Message, error) {
	buf, err := json.Marshal(dto.UpdateMessageRequestDTO{Content: content})
	if err != nil {
		return dto.Message{}, err
	}

	body, err := c.send(ctx, http.MethodPut, "/message/"+url.PathEscape(id), buf)
	if err != nil {
		return dto.Message{}, err
	}

	var out dto.Message
	if err := json.Unmarshal(body, &out); err != nil {
		return dto.Message{}, fmt.Errorf("chatbot-backend UpdateMessage decode failed: %w", err)
	}
	return out, nil
}

// SendMessage 는 POST /api/{userId}/{chatId}/message 를 호출하고 어시스턴트 응답 원문을 돌려준다.
func (c *Client) SendMessage(ctx context.Context, userID, chatID, text string) (string, error) {
	payload := dto.SendMessageRequestDTO{
		UserID:       userID,
		ClientType:   dto.ClientTypeWeb,
		Message:      text,
		UserMetadata: map[string]any{},
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	body, err := c.send(ctx, http.MethodPost, "/api/"+url.PathEscape(userID)+"/"+url.PathEscape(chatID)+"/message", buf)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Ping 은 백엔드가 HTTP 응답을 돌려주는지만 본다. 상태 코드는 따지지 않지만,
// 캐시 워커가 대신 응답했다면(X-Cache: hit) 도달하지 못한 것으로 본다.
func (c *Client) Ping(ctx context.Context, userID string) error {
	req, err := c.base.NewRequest(ctx, http.MethodGet, "/chats/"+url.PathEscape(userID), nil, nil)
	if err != nil {
		return err
	}
	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
	if err := resp.Body.Close(); err != nil {
		return err
	}
	if resp.Header.Get(offline.HeaderCacheStatus) == "hit" {
		return ErrCachedResponse
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, relPath string, out any) error {
	req, err := c.base.NewRequest(ctx, http.MethodGet, relPath, nil, nil)
	if err != nil {
		return err
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("chatbot-backend %s decode failed: %w", relPath, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, relPath string, payload []byte) ([]byte, error) {
	req, err := c.base.NewRequest(ctx, method, relPath, nil, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if readErr != nil {
		return nil, fmt.Errorf("chatbot-backend response read failed: %w", readErr)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.URL.Path)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
