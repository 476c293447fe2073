package entity

import (
	"errors"
	"fmt"
)

const (
	MaxProjectFileSize = 50 << 20
	MaxAvatarSize      = 5 << 20
)

// ErrFileTooLarge is returned when an uploaded file exceeds its limit.
var ErrFileTooLarge = errors.New("file too large")

func FileTooLargeError(filename string, size, limit int64) error {
	return fmt.Errorf("%w: %q is %d bytes, limit is %d MB", ErrFileTooLarge, filename, size, limit>>20)
}

// FileMetadata is stored next to every uploaded blob.
type FileMetadata struct {
	MIMEType string `bson:"mime_type"`
	Folder   string `bson:"folder"`
	Uploader string `bson:"uploader"`
}

// StoredFile describes a blob after upload.
type StoredFile struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

const (
	FolderProjects = "projects"
	FolderAvatars  = "avatars"
)
