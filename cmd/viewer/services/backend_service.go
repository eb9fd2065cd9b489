package services

import (
	"context"

	"chat-viewer/cmd/viewer/clients/chatbotclient"
	"chat-viewer/cmd/viewer/dto"
)

// BackendService 는 백엔드 API 를 그대로 노출하는 JSON 엔드포인트용이다. 뷰 상태는 건드리지 않는다.
type BackendService struct {
	client *chatbotclient.Client
}

func NewBackendService(client *chatbotclient.Client) *BackendService {
	return &BackendService{client: client}
}

func (s *BackendService) ListChats(ctx context.Context, userID string) ([]dto.Chat, error) {
	chats, err := s.client.ListChats(ctx, userID)
	if err != nil {
		return nil, toViewerError(err)
	}
	if chats == nil {
		chats = []dto.Chat{}
	}
	return chats, nil
}

func (s *BackendService) ListMessages(ctx context.Context, chatID string) ([]dto.Message, error) {
	msgs, err := s.client.ListMessages(ctx, chatID)
	if err != nil {
		return nil, toViewerError(err)
	}
	if msgs == nil {
		msgs = []dto.Message{}
	}
	return msgs, nil
}

func (s *BackendService) GetMessage(ctx context.Context, id string) (dto.Message, error) {
	msg, err := s.client.GetMessage(ctx, id)
	if err != nil {
		return dto.Message{}, toViewerError(err)
	}
	return msg, nil
}

func (s *BackendService) UpdateMessage(ctx context.Context, id, content string) (dto.Message, error) {
	msg, err := s.client.UpdateMessage(ctx, id, content)
	if err != nil {
		return dto.Message{}, toViewerError(err)
	}
	return msg, nil
}

func (s *BackendService) SendMessage(ctx context.Context, userID, chatID, text string) (string, error) {
	reply, err := s.client.SendMessage(ctx, userID, chatID, text)
	if err != nil {
		return "", toViewerError(err)
	}
	return reply, nil
}
