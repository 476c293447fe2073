package entity

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectType string

const (
	ProjectCode ProjectType = "CODE"
	ProjectFile ProjectType = "FILE"
)

type ProjectSort string

const (
	SortNewest         ProjectSort = "newest"
	SortPopular        ProjectSort = "popular"
	SortMostDownloaded ProjectSort = "most-downloaded"
	SortMostLiked      ProjectSort = "most-liked"
)

// Project is a published code snippet or file.
type Project struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name"`
	Language   string             `json:"language" bson:"language"`
	Type       ProjectType        `json:"type" bson:"type"`
	Content    string             `json:"content,omitempty" bson:"content,omitempty"`
	FileURL    string             `json:"fileUrl,omitempty" bson:"file_url,omitempty"`
	FileKey    string             `json:"-" bson:"file_key,omitempty"`
	Notes      string             `json:"notes,omitempty" bson:"notes,omitempty"`
	PreviewURL string             `json:"previewUrl,omitempty" bson:"preview_url,omitempty"`
	Tags       []string           `json:"tags" bson:"tags"`
	Likes      int64              `json:"likes" bson:"likes"`
	Downloads  int64              `json:"downloads" bson:"downloads"`
	Views      int64              `json:"views" bson:"views"`
	AuthorID   string             `json:"authorId" bson:"author_id"`
	Author     *AdminProfile      `json:"author,omitempty" bson:"-"`
	IsFeatured bool               `json:"isFeatured" bson:"is_featured"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updated_at"`
}

func (p *Project) IsOwnedBy(adminID string) bool {
	return p.AuthorID != "" && p.AuthorID == adminID
}

// DownloadName is the attachment file name for CODE projects.
func (p *Project) DownloadName() string {
	name := strings.ToLower(strings.Join(strings.Fields(p.Name), "-"))
	if name == "" {
		name = "project"
	}
	return name + ".txt"
}

// ProjectFilter selects and orders public project listings.
type ProjectFilter struct {
	Type     ProjectType
	Language string
	Sort     ProjectSort
	Page     int
	Limit    int
}

// Normalize drops unknown type and sort values and clamps paging.
func (f *ProjectFilter) Normalize() {
	switch f.Type {
	case "", ProjectCode, ProjectFile:
	default:
		// unknown types are ignored, listings stay unfiltered
		f.Type = ""
	}
	switch f.Sort {
	case SortNewest, SortPopular, SortMostDownloaded, SortMostLiked:
	default:
		f.Sort = SortNewest
	}
	f.Page, f.Limit = NormalizePage(f.Page, f.Limit, 20)
}

// LanguagePattern matches language case-insensitively as a substring.
func (f *ProjectFilter) LanguagePattern() string {
	if f.Language == "" {
		return ""
	}
	return "(?i)" + regexp.QuoteMeta(strings.TrimSpace(f.Language))
}

// CounterResult is returned by like and download actions.
type CounterResult struct {
	ProjectID   string `json:"projectId"`
	Likes       int64  `json:"likes,omitempty"`
	Downloads   int64  `json:"downloads,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}
