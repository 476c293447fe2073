package core

import (
	"SourceHub/entity"
	"SourceHub/internal/lib/metrics"
	"SourceHub/internal/service/autoreply"
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	visitorChatsLimit = 20
	adminChatsLimit   = 20
	allChatsLimit     = 30
)

// VisitorChats is the visitor's identity with their recent conversations.
type VisitorChats struct {
	VisitorID string                `json:"userId"`
	Chats     []entity.Conversation `json:"chats"`
}

// StartChat opens a conversation with adminID on behalf of a visitor. An
// empty visitorID is replaced by a generated one.
func (c *Core) StartChat(ctx context.Context, visitorID, adminID, content string) (*entity.Conversation, error) {
	msg, err := entity.NewMessage(entity.SenderVisitor, content, c.now())
	if err != nil {
		return nil, err
	}
	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return nil, fmt.Errorf("%w: admin id is required", entity.ErrInvalidInput)
	}
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		visitorID = entity.NewVisitorID()
	}

	conv := entity.NewConversation(visitorID, adminID, msg)
	if err = c.repo.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	metrics.ConversationsTotal.Inc()
	metrics.RecordMessage(string(entity.SenderVisitor))

	if profiles := c.authorProfiles(ctx, []string{adminID}); profiles != nil {
		conv.Admin = profiles[adminID]
	}
	c.scheduleReply(conv.ID.Hex(), autoreply.Greeting)
	c.publishMessage(conv, visitorID, entity.AdminRoom(adminID))

	c.log.With(
		slog.String("conversation", conv.ID.Hex()),
		slog.String("visitor", visitorID),
		slog.String("admin", adminID),
	).Info("chat started")
	c.notifyOwner(fmt.Sprintf("New chat from %s: %s", visitorID, msg.Content))

	return conv, nil
}

// SendVisitorMessage appends a visitor message. A closed conversation stays
// closed and gets no auto-reply.
func (c *Core) SendVisitorMessage(ctx context.Context, conversationID, content string) (*entity.Conversation, error) {
	msg, err := entity.NewMessage(entity.SenderVisitor, content, c.now())
	if err != nil {
		return nil, err
	}

	conv, err := c.repo.AppendMessage(ctx, conversationID, msg, false)
	if err != nil {
		return nil, err
	}
	metrics.RecordMessage(string(entity.SenderVisitor))

	if !conv.IsClosed() {
		c.scheduleReply(conversationID, autoreply.FollowUp)
	}
	c.publishMessage(conv, conv.VisitorID, entity.AdminRoom(conv.AdminID))

	return conv, nil
}

// SendAdminReply appends a reply from the owning admin and reopens the conversation.
func (c *Core) SendAdminReply(ctx context.Context, conversationID, content, adminID string) (*entity.Conversation, error) {
	msg, err := entity.NewMessage(entity.SenderAdmin, content, c.now())
	if err != nil {
		return nil, err
	}
	if _, err = c.ownedConversation(ctx, conversationID, adminID, "reply"); err != nil {
		return nil, err
	}

	conv, err := c.repo.AppendMessage(ctx, conversationID, msg, true)
	if err != nil {
		return nil, err
	}
	metrics.RecordMessage(string(entity.SenderAdmin))

	c.publishMessage(conv, conv.VisitorID)
	return conv, nil
}

// CloseConversation closes an owned conversation and drops its pending auto-replies.
func (c *Core) CloseConversation(ctx context.Context, conversationID, adminID string) (*entity.Conversation, error) {
	if _, err := c.ownedConversation(ctx, conversationID, adminID, "close"); err != nil {
		return nil, err
	}

	conv, err := c.repo.SetConversationStatus(ctx, conversationID, entity.StatusClosed)
	if err != nil {
		return nil, err
	}
	if c.replies != nil {
		if n := c.replies.Cancel(conversationID); n > 0 {
			c.log.Debug("pending replies cancelled", slog.String("conversation", conversationID), slog.Int("count", n))
		}
	}
	return conv, nil
}

func (c *Core) ownedConversation(ctx context.Context, conversationID, adminID, action string) (*entity.Conversation, error) {
	conv, err := c.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsOwnedBy(adminID) {
		c.log.With(
			slog.String("conversation", conversationID),
			slog.String("admin", adminID),
			slog.String("owner", conv.AdminID),
			slog.String("action", action),
		).Warn("conversation access denied")
		return nil, fmt.Errorf("%w: conversation belongs to another admin", entity.ErrForbidden)
	}
	return conv, nil
}

// DeliverAutoReply appends a synthetic admin message unless the conversation
// was closed in the meantime.
func (c *Core) DeliverAutoReply(ctx context.Context, conversationID, content string) error {
	conv, err := c.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv.IsClosed() {
		c.log.Debug("auto reply skipped, conversation closed", slog.String("conversation", conversationID))
		return nil
	}

	msg, err := entity.NewMessage(entity.SenderAdmin, content, c.now())
	if err != nil {
		return err
	}
	conv, err = c.repo.AppendMessage(ctx, conversationID, msg, false)
	if err != nil {
		return err
	}
	metrics.RecordMessage(string(entity.SenderAdmin))

	c.publishMessage(conv, conv.VisitorID)
	return nil
}

func (c *Core) scheduleReply(conversationID string, kind autoreply.Kind) {
	if c.replies != nil {
		c.replies.Schedule(conversationID, kind)
	}
}

// publishMessage pushes the conversation's last message to each room.
func (c *Core) publishMessage(conv *entity.Conversation, rooms ...string) {
	if c.bus == nil {
		return
	}
	last := conv.LastMessage()
	if last == nil {
		return
	}
	for _, room := range rooms {
		c.bus.PublishMessage(entity.MessageReceived{
			Room:           room,
			ConversationID: conv.ID.Hex(),
			VisitorID:      conv.VisitorID,
			Message:        *last,
		})
	}
}

// ListVisitorConversations returns a visitor's most recently updated
// conversations. A missing visitorID is replaced by a fresh one.
func (c *Core) ListVisitorConversations(ctx context.Context, visitorID, status string) (*VisitorChats, error) {
	filter, err := entity.ParseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		visitorID = entity.NewVisitorID()
	}

	chats, err := c.repo.ListConversationsByVisitor(ctx, visitorID, filter, visitorChatsLimit)
	if err != nil {
		return nil, err
	}
	c.attachAdmins(ctx, chats)

	return &VisitorChats{VisitorID: visitorID, Chats: chats}, nil
}

// ListAdminConversations pages through an admin's conversations; status
// defaults to open and "all" disables the filter.
func (c *Core) ListAdminConversations(ctx context.Context, adminID, status string, page, limit int) (*entity.Page[entity.Conversation], error) {
	if strings.TrimSpace(status) == "" {
		status = string(entity.StatusOpen)
	}
	filter, err := entity.ParseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	page, limit = entity.NormalizePage(page, limit, adminChatsLimit)

	chats, total, err := c.repo.ListConversationsByAdmin(ctx, adminID, filter, page, limit)
	if err != nil {
		return nil, err
	}
	c.attachAdmins(ctx, chats)

	return &entity.Page[entity.Conversation]{
		Items:      chats,
		Pagination: entity.NewPagination(total, page, limit),
	}, nil
}

// ListAllConversations pages through every conversation for the admin dashboard.
func (c *Core) ListAllConversations(ctx context.Context, status string, page, limit int) (*entity.Page[entity.Conversation], error) {
	filter, err := entity.ParseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	page, limit = entity.NormalizePage(page, limit, allChatsLimit)

	chats, total, err := c.repo.ListConversations(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}
	c.attachAdmins(ctx, chats)

	return &entity.Page[entity.Conversation]{
		Items:      chats,
		Pagination: entity.NewPagination(total, page, limit),
	}, nil
}

// attachAdmins resolves admin profiles; lookup failures leave them empty.
func (c *Core) attachAdmins(ctx context.Context, chats []entity.Conversation) {
	if len(chats) == 0 {
		return
	}
	ids := make([]string, 0, len(chats))
	for _, chat := range chats {
		ids = append(ids, chat.AdminID)
	}
	profiles := c.authorProfiles(ctx, ids)
	for i := range chats {
		chats[i].Admin = profiles[chats[i].AdminID]
	}
}
