package entity

import (
	"SourceHub/internal/lib/validate"
	"fmt"
	"net/http"
	"strings"
)

func bindError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

type StartChatRequest struct {
	VisitorID string `json:"visitorId" validate:"omitempty,max=64"`
	AdminID   string `json:"adminId" validate:"required"`
	Message   string `json:"message" validate:"required,max=4000"`
}

func (s *StartChatRequest) Bind(_ *http.Request) error {
	s.VisitorID = strings.TrimSpace(s.VisitorID)
	s.AdminID = strings.TrimSpace(s.AdminID)
	s.Message = strings.TrimSpace(s.Message)
	return bindError(validate.Struct(s))
}

type ChatMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

func (m *ChatMessageRequest) Bind(_ *http.Request) error {
	m.Message = strings.TrimSpace(m.Message)
	return bindError(validate.Struct(m))
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (l *LoginRequest) Bind(_ *http.Request) error {
	l.Username = NormalizeUsername(l.Username)
	return bindError(validate.Struct(l))
}

type ProfileRequest struct {
	Name     string  `json:"name" validate:"omitempty,max=100"`
	Quote    *string `json:"quote" validate:"omitempty,max=280"`
	Hashtags string  `json:"hashtags"`
}

func (p *ProfileRequest) Bind(_ *http.Request) error {
	p.Name = strings.TrimSpace(p.Name)
	return bindError(validate.Struct(p))
}

type PasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

func (p *PasswordRequest) Bind(_ *http.Request) error {
	return bindError(validate.Struct(p))
}

// ProjectRequest creates or updates a project; on update empty fields are left unchanged.
type ProjectRequest struct {
	Name       string      `json:"name" validate:"required,max=200"`
	Language   string      `json:"language" validate:"required,max=50"`
	Type       ProjectType `json:"type" validate:"required,oneof=CODE FILE"`
	Content    string      `json:"content"`
	FileURL    string      `json:"fileUrl" validate:"omitempty,url"`
	Notes      string      `json:"notes" validate:"max=2000"`
	PreviewURL string      `json:"previewUrl" validate:"omitempty,url"`
	Tags       string      `json:"tags"`
	IsFeatured bool        `json:"isFeatured"`
}

func (p *ProjectRequest) Bind(_ *http.Request) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Language = strings.TrimSpace(p.Language)
	p.Type = ProjectType(strings.ToUpper(strings.TrimSpace(string(p.Type))))
	p.Notes = strings.TrimSpace(p.Notes)
	p.PreviewURL = strings.TrimSpace(p.PreviewURL)
	p.FileURL = strings.TrimSpace(p.FileURL)
	if err := validate.Struct(p); err != nil {
		return bindError(err)
	}
	if p.Type == ProjectCode && strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("%w: content is required for CODE type", ErrInvalidInput)
	}
	return nil
}

// ProjectFromForm reads a multipart project form into a request.
func ProjectFromForm(r *http.Request) *ProjectRequest {
	return &ProjectRequest{
		Name:       r.FormValue("name"),
		Language:   r.FormValue("language"),
		Type:       ProjectType(r.FormValue("type")),
		Content:    r.FormValue("content"),
		FileURL:    r.FormValue("fileUrl"),
		Notes:      r.FormValue("notes"),
		PreviewURL: r.FormValue("previewUrl"),
		Tags:       r.FormValue("tags"),
		IsFeatured: r.FormValue("isFeatured") == "true",
	}
}

type ProjectUpdate struct {
	Name       *string   `json:"name" validate:"omitempty,min=1,max=200"`
	Language   *string   `json:"language" validate:"omitempty,min=1,max=50"`
	Content    *string   `json:"content"`
	Notes      *string   `json:"notes" validate:"omitempty,max=2000"`
	PreviewURL *string   `json:"previewUrl" validate:"omitempty,url"`
	Tags       *[]string `json:"tags"`
	IsFeatured *bool     `json:"isFeatured"`
}

func (p *ProjectUpdate) Bind(_ *http.Request) error {
	return bindError(validate.Struct(p))
}
