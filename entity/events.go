package entity

import "time"

const (
	EventMessageReceived = "message-received"
	EventContentLiked    = "content-liked"
)

// AdminRoom is the live room an admin dashboard joins to follow its conversations.
func AdminRoom(adminID string) string {
	return "admin:" + adminID
}

type MessageReceived struct {
	Room           string  `json:"room"`
	ConversationID string  `json:"conversationId"`
	VisitorID      string  `json:"visitorId"`
	Message        Message `json:"message"`
}

type ContentLiked struct {
	ContentID string    `json:"contentId"`
	Likes     int64     `json:"likes"`
	Timestamp time.Time `json:"timestamp"`
}
