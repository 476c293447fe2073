package chat

import (
	"SourceHub/entity"
	"SourceHub/impl/core"
	"context"
)

type Core interface {
	StartChat(ctx context.Context, visitorID, adminID, content string) (*entity.Conversation, error)
	SendVisitorMessage(ctx context.Context, conversationID, content string) (*entity.Conversation, error)
	SendAdminReply(ctx context.Context, conversationID, content, adminID string) (*entity.Conversation, error)
	CloseConversation(ctx context.Context, conversationID, adminID string) (*entity.Conversation, error)
	ListVisitorConversations(ctx context.Context, visitorID, status string) (*core.VisitorChats, error)
	ListAdminConversations(ctx context.Context, adminID, status string, page, limit int) (*entity.Page[entity.Conversation], error)
	ListAllConversations(ctx context.Context, status string, page, limit int) (*entity.Page[entity.Conversation], error)
}
