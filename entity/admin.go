package entity

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AdminRole string

const (
	RoleAdmin AdminRole = "Admin"
	RoleOwner AdminRole = "Owner"
)

const DefaultPhotoURL = "/static/img/default-avatar.png"

// Admin is an authenticated operator who owns content and replies to conversations.
type Admin struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username     string             `json:"username" bson:"username"`
	Name         string             `json:"name" bson:"name"`
	Role         AdminRole          `json:"role" bson:"role"`
	Quote        string             `json:"quote" bson:"quote"`
	Hashtags     []string           `json:"hashtags" bson:"hashtags"`
	PhotoURL     string             `json:"photoUrl" bson:"photo_url"`
	PhotoKey     string             `json:"-" bson:"photo_key,omitempty"`
	PasswordHash string             `json:"-" bson:"password"`
	IsOnline     bool               `json:"isOnline" bson:"is_online"`
	LastActive   time.Time          `json:"lastActive" bson:"last_active"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updated_at"`
}

func NewAdmin(username, name string, role AdminRole, passwordHash string) *Admin {
	now := time.Now()
	if role != RoleOwner {
		role = RoleAdmin
	}
	return &Admin{
		Username:     NormalizeUsername(username),
		Name:         strings.TrimSpace(name),
		Role:         role,
		Hashtags:     []string{},
		PhotoURL:     DefaultPhotoURL,
		PasswordHash: passwordHash,
		LastActive:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (a *Admin) IDHex() string {
	return a.ID.Hex()
}

func (a *Admin) Profile() *AdminProfile {
	return &AdminProfile{
		ID:       a.ID.Hex(),
		Name:     a.Name,
		PhotoURL: a.PhotoURL,
		Role:     a.Role,
		IsOnline: a.IsOnline,
	}
}

func (a *Admin) Auth() *AdminAuth {
	return &AdminAuth{
		ID:       a.ID.Hex(),
		Username: a.Username,
		Name:     a.Name,
		Role:     a.Role,
	}
}

// AdminProfile is the public card of an admin attached to conversations and projects.
type AdminProfile struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	PhotoURL string    `json:"photoUrl"`
	Role     AdminRole `json:"role"`
	IsOnline bool      `json:"isOnline"`
}

// SplitTags turns a comma separated list into trimmed, non-empty tags.
func SplitTags(list string) []string {
	tags := make([]string, 0)
	for _, tag := range strings.Split(list, ",") {
		if t := strings.TrimSpace(tag); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
