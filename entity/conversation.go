package entity

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Sender string

const (
	SenderVisitor Sender = "visitor"
	SenderAdmin   Sender = "admin"
)

type ConversationStatus string

const (
	StatusOpen   ConversationStatus = "open"
	StatusClosed ConversationStatus = "closed"
)

// ParseStatusFilter converts a query value into a status filter; "" and "all" mean no filter.
func ParseStatusFilter(value string) (ConversationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "all":
		return "", nil
	case string(StatusOpen):
		return StatusOpen, nil
	case string(StatusClosed):
		return StatusClosed, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, value)
	}
}

const visitorIDPrefix = "USER"

// NewVisitorID returns a weak visitor identity; collisions are not checked.
func NewVisitorID() string {
	return fmt.Sprintf("%s%d", visitorIDPrefix, rand.IntN(10000))
}

// Message is a single chat entry embedded in a Conversation.
type Message struct {
	Sender    Sender    `json:"sender" bson:"sender"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

func NewMessage(sender Sender, content string, at time.Time) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, fmt.Errorf("%w: message content is empty", ErrInvalidInput)
	}
	if sender != SenderVisitor && sender != SenderAdmin {
		return Message{}, fmt.Errorf("%w: unknown sender %q", ErrInvalidInput, sender)
	}
	return Message{
		Sender:    sender,
		Content:   content,
		Timestamp: at,
	}, nil
}

// Conversation is the chat state between one visitor and one admin.
type Conversation struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VisitorID     string             `json:"visitorId" bson:"visitor_id"`
	AdminID       string             `json:"adminId" bson:"admin_id"`
	Admin         *AdminProfile      `json:"admin,omitempty" bson:"-"`
	Messages      []Message          `json:"messages" bson:"messages"`
	Status        ConversationStatus `json:"status" bson:"status"`
	LastMessageAt time.Time          `json:"lastMessageAt" bson:"last_message_at"`
	ClosedAt      *time.Time         `json:"closedAt,omitempty" bson:"closed_at,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updated_at"`
}

func NewConversation(visitorID, adminID string, first Message) *Conversation {
	return &Conversation{
		VisitorID:     visitorID,
		AdminID:       adminID,
		Messages:      []Message{first},
		Status:        StatusOpen,
		LastMessageAt: first.Timestamp,
		CreatedAt:     first.Timestamp,
		UpdatedAt:     first.Timestamp,
	}
}

func (c *Conversation) IsOwnedBy(adminID string) bool {
	return c.AdminID != "" && c.AdminID == adminID
}

func (c *Conversation) IsClosed() bool {
	return c.Status == StatusClosed
}

func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// ConversationCounts summarizes an admin's conversations.
type ConversationCounts struct {
	Total int64 `json:"total" bson:"total"`
	Open  int64 `json:"open" bson:"open"`
}
