package core

import (
	"SourceHub/entity"
	"SourceHub/internal/lib/metrics"
	"SourceHub/internal/lib/sl"
	"SourceHub/internal/service/likes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

const (
	minSearchLength   = 2
	popularLanguages  = 5
	recentProjects    = 5
	legendProjects    = 10
	downloadFileRoute = "/api/projects/%s/download-file"
)

// Upload is a file received with a multipart request.
type Upload struct {
	Name     string
	Size     int64
	MIMEType string
	Reader   io.Reader
}

func (c *Core) ListProjects(ctx context.Context, filter entity.ProjectFilter) (*entity.Page[entity.Project], error) {
	filter.Normalize()
	projects, total, err := c.repo.ListProjects(ctx, filter)
	if err != nil {
		return nil, err
	}
	c.attachAuthors(ctx, projects)
	return &entity.Page[entity.Project]{
		Items:      projects,
		Pagination: entity.NewPagination(total, filter.Page, filter.Limit),
	}, nil
}

func (c *Core) SearchProjects(ctx context.Context, query string, page, limit int) (*entity.Page[entity.Project], error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchLength {
		return nil, fmt.Errorf("%w: search query must be at least %d characters", entity.ErrInvalidInput, minSearchLength)
	}
	page, limit = entity.NormalizePage(page, limit, 20)

	projects, total, err := c.repo.SearchProjects(ctx, query, page, limit)
	if err != nil {
		return nil, err
	}
	c.attachAuthors(ctx, projects)
	return &entity.Page[entity.Project]{
		Items:      projects,
		Pagination: entity.NewPagination(total, page, limit),
	}, nil
}

// GetProject returns a project and counts the view.
func (c *Core) GetProject(ctx context.Context, id string) (*entity.Project, error) {
	project, err := c.repo.ViewProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if profiles := c.authorProfiles(ctx, []string{project.AuthorID}); profiles != nil {
		project.Author = profiles[project.AuthorID]
	}
	return project, nil
}

// LikeProject adds one like per caller and project and broadcasts the new count.
func (c *Core) LikeProject(ctx context.Context, id, caller string) (*entity.CounterResult, error) {
	key := likes.Key(caller, id)
	if c.likes != nil {
		claimed, err := c.likes.Claim(ctx, key)
		if err != nil {
			metrics.RecordCounterAction("like", "error")
			return nil, err
		}
		if !claimed {
			metrics.RecordCounterAction("like", "duplicate")
			return nil, fmt.Errorf("%w: project %s", entity.ErrAlreadyLiked, id)
		}
	}

	project, err := c.repo.IncrementProjectLikes(ctx, id)
	if err != nil {
		if c.likes != nil {
			if relErr := c.likes.Release(ctx, key); relErr != nil {
				c.log.Warn("release like claim", slog.String("project", id), sl.Err(relErr))
			}
		}
		metrics.RecordCounterAction("like", "error")
		return nil, err
	}
	metrics.RecordCounterAction("like", "accepted")

	if c.bus != nil {
		c.bus.BroadcastLike(entity.ContentLiked{
			ContentID: id,
			Likes:     project.Likes,
			Timestamp: c.now(),
		})
	}

	return &entity.CounterResult{ProjectID: id, Likes: project.Likes}, nil
}

// DownloadProject counts a download and returns where the content can be fetched.
func (c *Core) DownloadProject(ctx context.Context, id string) (*entity.CounterResult, error) {
	project, err := c.repo.IncrementProjectDownloads(ctx, id)
	if err != nil {
		metrics.RecordCounterAction("download", "error")
		return nil, err
	}
	metrics.RecordCounterAction("download", "accepted")

	url := project.FileURL
	if project.Type == entity.ProjectCode {
		url = fmt.Sprintf(downloadFileRoute, id)
	}
	return &entity.CounterResult{
		ProjectID:   id,
		Downloads:   project.Downloads,
		DownloadURL: url,
	}, nil
}

// ProjectSource returns a CODE project for the plain text download.
func (c *Core) ProjectSource(ctx context.Context, id string) (*entity.Project, error) {
	project, err := c.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.Type != entity.ProjectCode {
		return nil, fmt.Errorf("project %s is not a CODE project: %w", id, entity.ErrNotFound)
	}
	return project, nil
}

// OpenFile streams a stored file; the caller closes the reader.
func (c *Core) OpenFile(ctx context.Context, key string) (string, entity.FileMetadata, io.ReadCloser, error) {
	if c.files == nil {
		return "", entity.FileMetadata{}, nil, fmt.Errorf("file storage: %w", entity.ErrNotFound)
	}
	return c.files.Open(ctx, key)
}

func (c *Core) CreateProject(ctx context.Context, admin *entity.AdminAuth, req *entity.ProjectRequest, upload *Upload) (*entity.Project, error) {
	now := c.now()
	project := &entity.Project{
		Name:       req.Name,
		Language:   req.Language,
		Type:       req.Type,
		Notes:      req.Notes,
		PreviewURL: req.PreviewURL,
		Tags:       entity.SplitTags(req.Tags),
		AuthorID:   admin.ID,
		IsFeatured: req.IsFeatured,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	switch req.Type {
	case entity.ProjectCode:
		project.Content = req.Content
	case entity.ProjectFile:
		if upload != nil {
			stored, err := c.storeUpload(ctx, admin, upload, entity.FolderProjects, entity.MaxProjectFileSize)
			if err != nil {
				return nil, err
			}
			project.FileURL = stored.URL
			project.FileKey = stored.Key
		} else {
			project.FileURL = req.FileURL
		}
		if project.FileURL == "" {
			return nil, fmt.Errorf("%w: file url or upload is required for FILE type", entity.ErrInvalidInput)
		}
	}

	if err := c.repo.CreateProject(ctx, project); err != nil {
		c.removeFile(project.FileKey)
		return nil, err
	}
	c.log.With(
		slog.String("project", project.ID.Hex()),
		slog.String("admin", admin.Username),
	).Info("project created")
	return project, nil
}

func (c *Core) storeUpload(ctx context.Context, admin *entity.AdminAuth, upload *Upload, folder string, limit int64) (*entity.StoredFile, error) {
	if c.files == nil {
		return nil, fmt.Errorf("%w: file uploads are disabled", entity.ErrInvalidInput)
	}
	if upload.Size > limit {
		return nil, entity.FileTooLargeError(upload.Name, upload.Size, limit)
	}
	return c.files.Upload(ctx, upload.Name, upload.Reader, limit, entity.FileMetadata{
		MIMEType: upload.MIMEType,
		Folder:   folder,
		Uploader: admin.ID,
	})
}

// removeFile deletes a blob in the background; failures are only logged.
func (c *Core) removeFile(key string) {
	if key == "" || c.files == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.files.Delete(ctx, key); err != nil {
			c.log.Warn("delete file", slog.String("key", key), sl.Err(err))
		}
	}()
}

func (c *Core) ownedProject(ctx context.Context, id string, admin *entity.AdminAuth, action string) (*entity.Project, error) {
	project, err := c.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !project.IsOwnedBy(admin.ID) {
		c.log.With(
			slog.String("project", id),
			slog.String("admin", admin.Username),
			slog.String("action", action),
		).Warn("project access denied")
		return nil, fmt.Errorf("%w: project belongs to another admin", entity.ErrForbidden)
	}
	return project, nil
}

func (c *Core) UpdateProject(ctx context.Context, admin *entity.AdminAuth, id string, update *entity.ProjectUpdate) (*entity.Project, error) {
	project, err := c.ownedProject(ctx, id, admin, "update")
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		project.Name = strings.TrimSpace(*update.Name)
	}
	if update.Language != nil {
		project.Language = strings.TrimSpace(*update.Language)
	}
	if update.Content != nil {
		if project.Type == entity.ProjectCode && strings.TrimSpace(*update.Content) == "" {
			return nil, fmt.Errorf("%w: content is required for CODE type", entity.ErrInvalidInput)
		}
		project.Content = *update.Content
	}
	if update.Notes != nil {
		project.Notes = strings.TrimSpace(*update.Notes)
	}
	if update.PreviewURL != nil {
		project.PreviewURL = strings.TrimSpace(*update.PreviewURL)
	}
	if update.Tags != nil {
		project.Tags = entity.SplitTags(strings.Join(*update.Tags, ","))
	}
	if update.IsFeatured != nil {
		project.IsFeatured = *update.IsFeatured
	}

	if err = c.repo.ReplaceProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (c *Core) DeleteProject(ctx context.Context, admin *entity.AdminAuth, id string) error {
	project, err := c.ownedProject(ctx, id, admin, "delete")
	if err != nil {
		return err
	}
	if err = c.repo.DeleteProject(ctx, id); err != nil {
		return err
	}
	c.removeFile(project.FileKey)
	c.log.With(
		slog.String("project", id),
		slog.String("admin", admin.Username),
	).Info("project deleted")
	return nil
}

func (c *Core) MyProjects(ctx context.Context, admin *entity.AdminAuth) ([]entity.Project, error) {
	projects, err := c.repo.ListProjectsByAuthor(ctx, admin.ID, 0)
	if err != nil {
		return nil, err
	}
	c.attachAuthors(ctx, projects)
	return projects, nil
}

func (c *Core) PlatformStats(ctx context.Context) (*entity.PlatformStats, error) {
	totals, err := c.repo.ProjectTotals(ctx, "")
	if err != nil {
		return nil, err
	}
	languages, err := c.repo.PopularLanguages(ctx, popularLanguages)
	if err != nil {
		return nil, err
	}
	return &entity.PlatformStats{
		TotalProjects:    totals.Projects,
		TotalLikes:       totals.Likes,
		TotalDownloads:   totals.Downloads,
		PopularLanguages: languages,
	}, nil
}

func (c *Core) authorProfiles(ctx context.Context, ids []string) map[string]*entity.AdminProfile {
	admins, err := c.repo.GetAdminsByIDs(ctx, ids)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.log.Warn("author profiles", sl.Err(err))
		}
		return nil
	}
	profiles := make(map[string]*entity.AdminProfile, len(admins))
	for id, admin := range admins {
		profiles[id] = admin.Profile()
	}
	return profiles
}

func (c *Core) attachAuthors(ctx context.Context, projects []entity.Project) {
	if len(projects) == 0 {
		return
	}
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.AuthorID)
	}
	profiles := c.authorProfiles(ctx, ids)
	for i := range projects {
		projects[i].Author = profiles[projects[i].AuthorID]
	}
}
