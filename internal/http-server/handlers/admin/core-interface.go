package admin

import (
	"SourceHub/entity"
	"SourceHub/impl/core"
	"context"
)

type Core interface {
	Login(ctx context.Context, username, password string) (*entity.LoginResult, error)
	Logout(ctx context.Context, admin *entity.AdminAuth, token string) error
	CurrentAdmin(ctx context.Context, admin *entity.AdminAuth) (*entity.Admin, error)
	UpdateProfile(ctx context.Context, admin *entity.AdminAuth, req *entity.ProfileRequest) (*entity.Admin, error)
	ChangePassword(ctx context.Context, admin *entity.AdminAuth, oldPassword, newPassword string) error
	UpdatePhoto(ctx context.Context, admin *entity.AdminAuth, upload *core.Upload) (*entity.Admin, error)
	AdminStats(ctx context.Context, admin *entity.AdminAuth) (*entity.AdminStats, error)
}
