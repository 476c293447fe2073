package chat

import (
	"SourceHub/entity"
	"SourceHub/impl/core"
	"SourceHub/internal/lib/api/cont"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type fakeCore struct {
	started  []string
	replies  []string
	statuses []string
}

func (f *fakeCore) StartChat(_ context.Context, visitorID, adminID, content string) (*entity.Conversation, error) {
	if adminID == "missing" {
		return nil, fmt.Errorf("admin: %w", entity.ErrNotFound)
	}
	f.started = append(f.started, content)
	if visitorID == "" {
		visitorID = "USER1"
	}
	msg, _ := entity.NewMessage(entity.SenderVisitor, content, time.Now())
	return entity.NewConversation(visitorID, adminID, msg), nil
}

func (f *fakeCore) SendVisitorMessage(_ context.Context, _ string, _ string) (*entity.Conversation, error) {
	return nil, fmt.Errorf("chat: %w", entity.ErrNotFound)
}

func (f *fakeCore) SendAdminReply(_ context.Context, conversationID, content, adminID string) (*entity.Conversation, error) {
	if adminID != "a1" {
		return nil, entity.ErrForbidden
	}
	f.replies = append(f.replies, conversationID+":"+content)
	return &entity.Conversation{AdminID: adminID}, nil
}

func (f *fakeCore) CloseConversation(_ context.Context, _ string, _ string) (*entity.Conversation, error) {
	return &entity.Conversation{Status: entity.StatusClosed}, nil
}

func (f *fakeCore) ListVisitorConversations(_ context.Context, visitorID, _ string) (*core.VisitorChats, error) {
	return &core.VisitorChats{VisitorID: visitorID}, nil
}

func (f *fakeCore) ListAdminConversations(_ context.Context, _ string, status string, page, limit int) (*entity.Page[entity.Conversation], error) {
	f.statuses = append(f.statuses, status)
	return &entity.Page[entity.Conversation]{Pagination: entity.NewPagination(0, page, 20)}, nil
}

func (f *fakeCore) ListAllConversations(_ context.Context, status string, page, limit int) (*entity.Page[entity.Conversation], error) {
	return &entity.Page[entity.Conversation]{Pagination: entity.NewPagination(0, page, 30)}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func router(f *fakeCore, admin *entity.AdminAuth) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if admin != nil {
				req = req.WithContext(cont.PutAdmin(req.Context(), admin))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Post("/chats", Start(discard(), f))
	r.Get("/chats/admin/{adminId}", AdminChats(discard(), f))
	r.Get("/chats/{visitorId}", VisitorChats(discard(), f))
	r.Post("/chats/{chatId}/messages", SendMessage(discard(), f))
	r.Post("/admin/chats/{chatId}/reply", Reply(discard(), f))
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStart(t *testing.T) {
	f := &fakeCore{}
	h := router(f, nil)

	rec := do(h, http.MethodPost, "/chats", `{"adminId":"a1","message":"  hi there  "}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	if len(f.started) != 1 || f.started[0] != "hi there" {
		t.Errorf("started = %v, want trimmed message", f.started)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			VisitorID string `json:"visitorId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success {
		t.Error("success = false")
	}
}

func TestStartValidation(t *testing.T) {
	h := router(&fakeCore{}, nil)

	cases := map[string]struct {
		body   string
		status int
	}{
		"empty message": {`{"adminId":"a1","message":"   "}`, http.StatusBadRequest},
		"no admin":      {`{"message":"hi"}`, http.StatusBadRequest},
		"unknown admin": {`{"adminId":"missing","message":"hi"}`, http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/chats", tc.body)
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}
}

func TestSendMessageUnknownChat(t *testing.T) {
	rec := do(router(&fakeCore{}, nil), http.MethodPost, "/chats/nope/messages", `{"message":"hello"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestReplyRequiresOwner(t *testing.T) {
	f := &fakeCore{}

	rec := do(router(f, nil), http.MethodPost, "/admin/chats/c1/reply", `{"message":"hello"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	rec = do(router(f, &entity.AdminAuth{ID: "a2"}), http.MethodPost, "/admin/chats/c1/reply", `{"message":"hello"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("other admin status = %d, want 403", rec.Code)
	}

	rec = do(router(f, &entity.AdminAuth{ID: "a1"}), http.MethodPost, "/admin/chats/c1/reply", `{"message":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner status = %d, want 200", rec.Code)
	}
	if len(f.replies) != 1 || f.replies[0] != "c1:hello" {
		t.Errorf("replies = %v", f.replies)
	}
}

func TestAdminChatsPassesStatus(t *testing.T) {
	f := &fakeCore{}
	h := router(f, nil)

	do(h, http.MethodGet, "/chats/admin/a1", "")
	do(h, http.MethodGet, "/chats/admin/a1?status=all", "")

	if len(f.statuses) != 2 || f.statuses[0] != "" || f.statuses[1] != "all" {
		t.Errorf("statuses = %q", f.statuses)
	}
}

func TestVisitorChats(t *testing.T) {
	rec := do(router(&fakeCore{}, nil), http.MethodGet, "/chats/USER42", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"userId":"USER42"`) {
		t.Errorf("body = %s", rec.Body)
	}
}
