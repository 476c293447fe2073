package core

import (
	"SourceHub/entity"
	"SourceHub/internal/lib/sl"
	"SourceHub/internal/service/autoreply"
	"context"
	"io"
	"log/slog"
	"time"
)

type ConversationStore interface {
	CreateConversation(ctx context.Context, conv *entity.Conversation) error
	GetConversation(ctx context.Context, id string) (*entity.Conversation, error)
	AppendMessage(ctx context.Context, id string, msg entity.Message, reopen bool) (*entity.Conversation, error)
	SetConversationStatus(ctx context.Context, id string, status entity.ConversationStatus) (*entity.Conversation, error)
	ListConversationsByVisitor(ctx context.Context, visitorID string, status entity.ConversationStatus, limit int) ([]entity.Conversation, error)
	ListConversationsByAdmin(ctx context.Context, adminID string, status entity.ConversationStatus, page, limit int) ([]entity.Conversation, int64, error)
	ListConversations(ctx context.Context, status entity.ConversationStatus, page, limit int) ([]entity.Conversation, int64, error)
	CountConversations(ctx context.Context, adminID string) (entity.ConversationCounts, error)
}

type AdminStore interface {
	GetAdmin(ctx context.Context, id string) (*entity.Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (*entity.Admin, error)
	GetAdminsByIDs(ctx context.Context, ids []string) (map[string]*entity.Admin, error)
	ListAdmins(ctx context.Context) ([]entity.Admin, error)
	InsertAdmin(ctx context.Context, admin *entity.Admin) error
	UpdateAdminProfile(ctx context.Context, id, name string, quote *string, hashtags []string) (*entity.Admin, error)
	UpdateAdminPassword(ctx context.Context, id, hash string) error
	UpdateAdminPhoto(ctx context.Context, id, url, key string) (*entity.Admin, error)
	SetAdminOnline(ctx context.Context, id string, online bool) error
}

type ProjectStore interface {
	ListProjects(ctx context.Context, filter entity.ProjectFilter) ([]entity.Project, int64, error)
	SearchProjects(ctx context.Context, text string, page, limit int) ([]entity.Project, int64, error)
	ListProjectsByAuthor(ctx context.Context, authorID string, limit int) ([]entity.Project, error)
	GetProject(ctx context.Context, id string) (*entity.Project, error)
	ViewProject(ctx context.Context, id string) (*entity.Project, error)
	IncrementProjectLikes(ctx context.Context, id string) (*entity.Project, error)
	IncrementProjectDownloads(ctx context.Context, id string) (*entity.Project, error)
	CreateProject(ctx context.Context, project *entity.Project) error
	ReplaceProject(ctx context.Context, project *entity.Project) error
	DeleteProject(ctx context.Context, id string) error
	ProjectTotals(ctx context.Context, authorID string) (entity.CounterTotals, error)
	PopularLanguages(ctx context.Context, limit int) ([]entity.LanguageCount, error)
}

type Repository interface {
	ConversationStore
	AdminStore
	ProjectStore
}

// EventBus pushes live events to connected clients.
type EventBus interface {
	PublishMessage(event entity.MessageReceived)
	BroadcastLike(event entity.ContentLiked)
}

type AutoReplier interface {
	Schedule(conversationID string, kind autoreply.Kind)
	Cancel(conversationID string) int
}

// LikeTracker remembers which caller liked which project.
type LikeTracker interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type FileStore interface {
	Upload(ctx context.Context, filename string, reader io.Reader, limit int64, meta entity.FileMetadata) (*entity.StoredFile, error)
	Open(ctx context.Context, key string) (string, entity.FileMetadata, io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type AuthService interface {
	IssueToken(admin *entity.AdminAuth) (string, error)
	ValidateToken(token string) (*entity.AdminAuth, error)
	RevokeToken(token string) error
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) bool
}

// MessageService notifies the site owner.
type MessageService interface {
	SendMessage(msg string)
}

type Core struct {
	repo        Repository
	bus         EventBus
	replies     AutoReplier
	likes       LikeTracker
	files       FileStore
	authService AuthService
	ms          MessageService
	now         func() time.Time
	started     time.Time
	log         *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		now:     time.Now,
		started: time.Now(),
		log:     log.With(sl.Module("core")),
	}
}

func (c *Core) SetRepository(repo Repository) {
	c.repo = repo
}

func (c *Core) SetEventBus(bus EventBus) {
	c.bus = bus
}

func (c *Core) SetAutoReplier(replies AutoReplier) {
	c.replies = replies
}

func (c *Core) SetLikeTracker(likes LikeTracker) {
	c.likes = likes
}

func (c *Core) SetFileStore(files FileStore) {
	c.files = files
}

func (c *Core) SetAuthService(auth AuthService) {
	c.authService = auth
}

func (c *Core) SetMessageService(ms MessageService) {
	c.ms = ms
}

// notifyOwner sends a message to the owner without blocking the caller.
func (c *Core) notifyOwner(text string) {
	if c.ms == nil {
		return
	}
	go c.ms.SendMessage(text)
}
