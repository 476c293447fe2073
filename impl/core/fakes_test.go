package core

import (
	"SourceHub/entity"
	"SourceHub/internal/service/autoreply"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memRepo struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	admins        map[string]*entity.Admin
	projects      map[string]*entity.Project
	appends       int
	failLikes     bool
	// now is the store clock; like the database it stamps every message.
	now func() time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		conversations: make(map[string]*entity.Conversation),
		admins:        make(map[string]*entity.Admin),
		projects:      make(map[string]*entity.Project),
		now:           tickingClock(),
	}
}

// appendMessage mirrors the pipeline append of the Mongo repository.
func appendMessage(c *entity.Conversation, msg entity.Message, reopen bool, at time.Time) {
	msg.Timestamp = at
	c.Messages = append(c.Messages, msg)
	c.LastMessageAt = at
	c.UpdatedAt = at
	if reopen {
		c.Status = entity.StatusOpen
		c.ClosedAt = nil
	}
}

func copyConversation(c *entity.Conversation) *entity.Conversation {
	cp := *c
	cp.Messages = append([]entity.Message(nil), c.Messages...)
	return &cp
}

func (r *memRepo) addAdmin(username string, role entity.AdminRole) *entity.Admin {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin := entity.NewAdmin(username, strings.ToUpper(username), role, "hash:secret")
	admin.ID = primitive.NewObjectID()
	r.admins[admin.IDHex()] = admin
	return admin
}

func (r *memRepo) addProject(p entity.Project) *entity.Project {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = primitive.NewObjectID()
	r.projects[p.ID.Hex()] = &p
	return &p
}

func (r *memRepo) conversation(id string) *entity.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conversations[id]; ok {
		return copyConversation(c)
	}
	return nil
}

func (r *memRepo) CreateConversation(_ context.Context, conv *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[conv.AdminID]; !ok {
		return fmt.Errorf("admin: %w", entity.ErrNotFound)
	}
	at := r.now()
	conv.ID = primitive.NewObjectID()
	for i := range conv.Messages {
		conv.Messages[i].Timestamp = at
	}
	conv.LastMessageAt, conv.CreatedAt, conv.UpdatedAt = at, at, at
	r.conversations[conv.ID.Hex()] = copyConversation(conv)
	return nil
}

func (r *memRepo) GetConversation(_ context.Context, id string) (*entity.Conversation, error) {
	if c := r.conversation(id); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("conversation: %w", entity.ErrNotFound)
}

func (r *memRepo) AppendMessage(_ context.Context, id string, msg entity.Message, reopen bool) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation: %w", entity.ErrNotFound)
	}
	appendMessage(c, msg, reopen, r.now())
	r.appends++
	return copyConversation(c), nil
}

func (r *memRepo) SetConversationStatus(_ context.Context, id string, status entity.ConversationStatus) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation: %w", entity.ErrNotFound)
	}
	at := r.now()
	c.Status = status
	c.UpdatedAt = at
	if status == entity.StatusClosed {
		c.ClosedAt = &at
	} else {
		c.ClosedAt = nil
	}
	return copyConversation(c), nil
}

func (r *memRepo) filterConversations(match func(*entity.Conversation) bool) []entity.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Conversation, 0)
	for _, c := range r.conversations {
		if match(c) {
			out = append(out, *copyConversation(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func pageOf[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (r *memRepo) ListConversationsByVisitor(_ context.Context, visitorID string, status entity.ConversationStatus, limit int) ([]entity.Conversation, error) {
	out := r.filterConversations(func(c *entity.Conversation) bool {
		return c.VisitorID == visitorID && (status == "" || c.Status == status)
	})
	return pageOf(out, 1, limit), nil
}

func (r *memRepo) ListConversationsByAdmin(_ context.Context, adminID string, status entity.ConversationStatus, page, limit int) ([]entity.Conversation, int64, error) {
	out := r.filterConversations(func(c *entity.Conversation) bool {
		return c.AdminID == adminID && (status == "" || c.Status == status)
	})
	return pageOf(out, page, limit), int64(len(out)), nil
}

func (r *memRepo) ListConversations(_ context.Context, status entity.ConversationStatus, page, limit int) ([]entity.Conversation, int64, error) {
	out := r.filterConversations(func(c *entity.Conversation) bool {
		return status == "" || c.Status == status
	})
	return pageOf(out, page, limit), int64(len(out)), nil
}

func (r *memRepo) CountConversations(_ context.Context, adminID string) (entity.ConversationCounts, error) {
	var counts entity.ConversationCounts
	for _, c := range r.filterConversations(func(c *entity.Conversation) bool { return c.AdminID == adminID }) {
		counts.Total++
		if c.Status == entity.StatusOpen {
			counts.Open++
		}
	}
	return counts, nil
}

func (r *memRepo) GetAdmin(_ context.Context, id string) (*entity.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.admins[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, fmt.Errorf("admin: %w", entity.ErrNotFound)
}

func (r *memRepo) GetAdminByUsername(_ context.Context, username string) (*entity.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Username == entity.NormalizeUsername(username) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("admin: %w", entity.ErrNotFound)
}

func (r *memRepo) GetAdminsByIDs(_ context.Context, ids []string) (map[string]*entity.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*entity.Admin)
	for _, id := range ids {
		if a, ok := r.admins[id]; ok {
			cp := *a
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *memRepo) ListAdmins(_ context.Context) ([]entity.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Admin, 0, len(r.admins))
	for _, a := range r.admins {
		out = append(out, *a)
	}
	return out, nil
}

func (r *memRepo) InsertAdmin(_ context.Context, admin *entity.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin.ID = primitive.NewObjectID()
	cp := *admin
	r.admins[admin.IDHex()] = &cp
	return nil
}

func (r *memRepo) updateAdmin(id string, apply func(a *entity.Admin)) (*entity.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[id]
	if !ok {
		return nil, fmt.Errorf("admin: %w", entity.ErrNotFound)
	}
	apply(a)
	cp := *a
	return &cp, nil
}

func (r *memRepo) UpdateAdminProfile(_ context.Context, id, name string, quote *string, hashtags []string) (*entity.Admin, error) {
	return r.updateAdmin(id, func(a *entity.Admin) {
		a.Name = name
		a.Hashtags = hashtags
		if quote != nil {
			a.Quote = *quote
		}
	})
}

func (r *memRepo) UpdateAdminPassword(_ context.Context, id, hash string) error {
	_, err := r.updateAdmin(id, func(a *entity.Admin) { a.PasswordHash = hash })
	return err
}

func (r *memRepo) UpdateAdminPhoto(_ context.Context, id, url, key string) (*entity.Admin, error) {
	return r.updateAdmin(id, func(a *entity.Admin) {
		a.PhotoURL = url
		a.PhotoKey = key
	})
}

func (r *memRepo) SetAdminOnline(_ context.Context, id string, online bool) error {
	_, err := r.updateAdmin(id, func(a *entity.Admin) { a.IsOnline = online })
	return err
}

func (r *memRepo) ListProjects(_ context.Context, filter entity.ProjectFilter) ([]entity.Project, int64, error) {
	r.mu.Lock()
	out := make([]entity.Project, 0)
	for _, p := range r.projects {
		if filter.Type == "" || p.Type == filter.Type {
			out = append(out, *p)
		}
	}
	r.mu.Unlock()
	return pageOf(out, filter.Page, filter.Limit), int64(len(out)), nil
}

func (r *memRepo) SearchProjects(_ context.Context, text string, page, limit int) ([]entity.Project, int64, error) {
	r.mu.Lock()
	out := make([]entity.Project, 0)
	for _, p := range r.projects {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(text)) {
			out = append(out, *p)
		}
	}
	r.mu.Unlock()
	return pageOf(out, page, limit), int64(len(out)), nil
}

func (r *memRepo) ListProjectsByAuthor(_ context.Context, authorID string, limit int) ([]entity.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Project, 0)
	for _, p := range r.projects {
		if p.AuthorID == authorID {
			out = append(out, *p)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) GetProject(_ context.Context, id string) (*entity.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.projects[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, fmt.Errorf("project: %w", entity.ErrNotFound)
}

func (r *memRepo) increment(id string, apply func(p *entity.Project)) (*entity.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, fmt.Errorf("project: %w", entity.ErrNotFound)
	}
	apply(p)
	cp := *p
	return &cp, nil
}

func (r *memRepo) ViewProject(_ context.Context, id string) (*entity.Project, error) {
	return r.increment(id, func(p *entity.Project) { p.Views++ })
}

func (r *memRepo) IncrementProjectLikes(_ context.Context, id string) (*entity.Project, error) {
	if r.failLikes {
		return nil, fmt.Errorf("storage unavailable")
	}
	return r.increment(id, func(p *entity.Project) { p.Likes++ })
}

func (r *memRepo) IncrementProjectDownloads(_ context.Context, id string) (*entity.Project, error) {
	return r.increment(id, func(p *entity.Project) { p.Downloads++ })
}

func (r *memRepo) CreateProject(_ context.Context, project *entity.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project.ID = primitive.NewObjectID()
	cp := *project
	r.projects[project.ID.Hex()] = &cp
	return nil
}

func (r *memRepo) ReplaceProject(_ context.Context, project *entity.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[project.ID.Hex()]; !ok {
		return fmt.Errorf("project: %w", entity.ErrNotFound)
	}
	cp := *project
	r.projects[project.ID.Hex()] = &cp
	return nil
}

func (r *memRepo) DeleteProject(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return fmt.Errorf("project: %w", entity.ErrNotFound)
	}
	delete(r.projects, id)
	return nil
}

func (r *memRepo) ProjectTotals(_ context.Context, authorID string) (entity.CounterTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var t entity.CounterTotals
	for _, p := range r.projects {
		if authorID == "" || p.AuthorID == authorID {
			t.Projects++
			t.Likes += p.Likes
			t.Downloads += p.Downloads
		}
	}
	return t, nil
}

func (r *memRepo) PopularLanguages(_ context.Context, limit int) ([]entity.LanguageCount, error) {
	r.mu.Lock()
	counts := make(map[string]int64)
	for _, p := range r.projects {
		counts[p.Language]++
	}
	r.mu.Unlock()
	out := make([]entity.LanguageCount, 0, len(counts))
	for lang, n := range counts {
		out = append(out, entity.LanguageCount{Language: lang, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Language < out[j].Language
		}
		return out[i].Count > out[j].Count
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memBus struct {
	mu       sync.Mutex
	messages []entity.MessageReceived
	likes    []entity.ContentLiked
}

func (b *memBus) PublishMessage(event entity.MessageReceived) {
	b.mu.Lock()
	b.messages = append(b.messages, event)
	b.mu.Unlock()
}

func (b *memBus) BroadcastLike(event entity.ContentLiked) {
	b.mu.Lock()
	b.likes = append(b.likes, event)
	b.mu.Unlock()
}

func (b *memBus) inRoom(room string) []entity.MessageReceived {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entity.MessageReceived, 0)
	for _, m := range b.messages {
		if m.Room == room {
			out = append(out, m)
		}
	}
	return out
}

type scheduled struct {
	conversationID string
	kind           autoreply.Kind
}

type memReplier struct {
	mu        sync.Mutex
	scheduled []scheduled
	cancelled []string
}

func (r *memReplier) Schedule(conversationID string, kind autoreply.Kind) {
	r.mu.Lock()
	r.scheduled = append(r.scheduled, scheduled{conversationID, kind})
	r.mu.Unlock()
}

func (r *memReplier) Cancel(conversationID string) int {
	r.mu.Lock()
	r.cancelled = append(r.cancelled, conversationID)
	r.mu.Unlock()
	return 1
}

type memLikes struct {
	mu     sync.Mutex
	claims map[string]bool
}

func (l *memLikes) Claim(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.claims[key] {
		return false, nil
	}
	l.claims[key] = true
	return true, nil
}

func (l *memLikes) Release(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.claims, key)
	l.mu.Unlock()
	return nil
}

// plainAuth stores passwords as "hash:<password>" and tokens as "token:<id>".
type plainAuth struct {
	mu      sync.Mutex
	revoked map[string]bool
	issued  map[string]*entity.AdminAuth
}

func newPlainAuth() *plainAuth {
	return &plainAuth{revoked: make(map[string]bool), issued: make(map[string]*entity.AdminAuth)}
}

func (a *plainAuth) IssueToken(admin *entity.AdminAuth) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	token := "token:" + admin.ID
	a.issued[token] = admin
	return token, nil
}

func (a *plainAuth) ValidateToken(token string) (*entity.AdminAuth, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	admin, ok := a.issued[token]
	if !ok || a.revoked[token] {
		return nil, entity.ErrUnauthorized
	}
	return admin, nil
}

func (a *plainAuth) RevokeToken(token string) error {
	a.mu.Lock()
	a.revoked[token] = true
	a.mu.Unlock()
	return nil
}

func (a *plainAuth) HashPassword(password string) (string, error) {
	return "hash:" + password, nil
}

func (a *plainAuth) CheckPassword(hash, password string) bool {
	return hash == "hash:"+password
}

type memFiles struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	deleted chan string
}

func newMemFiles() *memFiles {
	return &memFiles{blobs: make(map[string][]byte), deleted: make(chan string, 8)}
}

func (f *memFiles) Upload(_ context.Context, filename string, reader io.Reader, limit int64, _ entity.FileMetadata) (*entity.StoredFile, error) {
	data, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, entity.FileTooLargeError(filename, int64(len(data)), limit)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("file-%d", len(f.blobs)+1)
	f.blobs[key] = data
	return &entity.StoredFile{Key: key, URL: "/api/files/" + key, Size: int64(len(data))}, nil
}

func (f *memFiles) Open(_ context.Context, key string) (string, entity.FileMetadata, io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[key]
	if !ok {
		return "", entity.FileMetadata{}, nil, entity.ErrNotFound
	}
	return key, entity.FileMetadata{}, io.NopCloser(strings.NewReader(string(data))), nil
}

func (f *memFiles) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	delete(f.blobs, key)
	f.mu.Unlock()
	f.deleted <- key
	return nil
}

type fixture struct {
	core    *Core
	repo    *memRepo
	bus     *memBus
	replies *memReplier
	files   *memFiles
	auth    *plainAuth
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture() *fixture {
	f := &fixture{
		repo:    newMemRepo(),
		bus:     &memBus{},
		replies: &memReplier{},
		files:   newMemFiles(),
		auth:    newPlainAuth(),
	}
	f.core = New(discardLogger())
	f.core.SetRepository(f.repo)
	f.core.SetEventBus(f.bus)
	f.core.SetAutoReplier(f.replies)
	f.core.SetLikeTracker(&memLikes{claims: make(map[string]bool)})
	f.core.SetFileStore(f.files)
	f.core.SetAuthService(f.auth)
	return f
}
