package project

import (
	"SourceHub/entity"
	"SourceHub/impl/core"
	"context"
)

type Core interface {
	ListProjects(ctx context.Context, filter entity.ProjectFilter) (*entity.Page[entity.Project], error)
	SearchProjects(ctx context.Context, query string, page, limit int) (*entity.Page[entity.Project], error)
	GetProject(ctx context.Context, id string) (*entity.Project, error)
	LikeProject(ctx context.Context, id, caller string) (*entity.CounterResult, error)
	DownloadProject(ctx context.Context, id string) (*entity.CounterResult, error)
	ProjectSource(ctx context.Context, id string) (*entity.Project, error)
	CreateProject(ctx context.Context, admin *entity.AdminAuth, req *entity.ProjectRequest, upload *core.Upload) (*entity.Project, error)
	UpdateProject(ctx context.Context, admin *entity.AdminAuth, id string, update *entity.ProjectUpdate) (*entity.Project, error)
	DeleteProject(ctx context.Context, admin *entity.AdminAuth, id string) error
	MyProjects(ctx context.Context, admin *entity.AdminAuth) ([]entity.Project, error)
	PlatformStats(ctx context.Context) (*entity.PlatformStats, error)
}
