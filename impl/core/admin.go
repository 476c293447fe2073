package core

import (
	"SourceHub/entity"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// AdminSeed is an admin account created at startup when missing.
type AdminSeed struct {
	Username string
	Name     string
	Role     string
	Password string
}

// SeedAdmins creates configured admins that do not exist yet; existing ones are left untouched.
func (c *Core) SeedAdmins(ctx context.Context, seeds []AdminSeed) error {
	for _, seed := range seeds {
		username := entity.NormalizeUsername(seed.Username)
		if username == "" || seed.Password == "" {
			c.log.Warn("admin seed skipped", slog.String("username", seed.Username))
			continue
		}

		_, err := c.repo.GetAdminByUsername(ctx, username)
		if err == nil {
			continue
		}
		if !errors.Is(err, entity.ErrNotFound) {
			return err
		}

		hash, err := c.authService.HashPassword(seed.Password)
		if err != nil {
			return err
		}
		name := seed.Name
		if name == "" {
			name = seed.Username
		}
		admin := entity.NewAdmin(username, name, entity.AdminRole(seed.Role), hash)
		if err = c.repo.InsertAdmin(ctx, admin); err != nil {
			return err
		}
		c.log.Info("admin seeded", slog.String("username", username), slog.String("role", string(admin.Role)))
	}
	return nil
}

func (c *Core) Login(ctx context.Context, username, password string) (*entity.LoginResult, error) {
	invalid := fmt.Errorf("%w: invalid credentials", entity.ErrUnauthorized)

	admin, err := c.repo.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if !c.authService.CheckPassword(admin.PasswordHash, password) {
		c.log.Warn("failed login", slog.String("username", admin.Username))
		return nil, invalid
	}

	token, err := c.authService.IssueToken(admin.Auth())
	if err != nil {
		return nil, err
	}
	if err = c.repo.SetAdminOnline(ctx, admin.IDHex(), true); err != nil {
		return nil, err
	}
	admin.IsOnline = true

	c.log.Info("admin logged in", slog.String("username", admin.Username))
	return &entity.LoginResult{Token: token, Admin: admin}, nil
}

func (c *Core) Logout(ctx context.Context, admin *entity.AdminAuth, token string) error {
	if err := c.authService.RevokeToken(token); err != nil {
		return err
	}
	return c.repo.SetAdminOnline(ctx, admin.ID, false)
}

// AuthenticateByToken resolves a bearer token to the admin it was issued for.
func (c *Core) AuthenticateByToken(token string) (*entity.AdminAuth, error) {
	if c.authService == nil {
		return nil, fmt.Errorf("%w: authentication is not configured", entity.ErrUnauthorized)
	}
	return c.authService.ValidateToken(token)
}

func (c *Core) CurrentAdmin(ctx context.Context, admin *entity.AdminAuth) (*entity.Admin, error) {
	current, err := c.repo.GetAdmin(ctx, admin.ID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, fmt.Errorf("%w: admin no longer exists", entity.ErrUnauthorized)
	}
	return current, err
}

func (c *Core) UpdateProfile(ctx context.Context, admin *entity.AdminAuth, req *entity.ProfileRequest) (*entity.Admin, error) {
	current, err := c.CurrentAdmin(ctx, admin)
	if err != nil {
		return nil, err
	}

	name := current.Name
	if req.Name != "" {
		name = req.Name
	}
	hashtags := current.Hashtags
	if req.Hashtags != "" {
		hashtags = entity.SplitTags(req.Hashtags)
	}
	var quote *string
	if req.Quote != nil {
		q := strings.TrimSpace(*req.Quote)
		quote = &q
	}
	return c.repo.UpdateAdminProfile(ctx, admin.ID, name, quote, hashtags)
}

func (c *Core) ChangePassword(ctx context.Context, admin *entity.AdminAuth, oldPassword, newPassword string) error {
	current, err := c.CurrentAdmin(ctx, admin)
	if err != nil {
		return err
	}
	if !c.authService.CheckPassword(current.PasswordHash, oldPassword) {
		return fmt.Errorf("%w: current password is incorrect", entity.ErrInvalidInput)
	}

	hash, err := c.authService.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err = c.repo.UpdateAdminPassword(ctx, admin.ID, hash); err != nil {
		return err
	}
	c.log.Info("password changed", slog.String("username", admin.Username))
	return nil
}

func (c *Core) UpdatePhoto(ctx context.Context, admin *entity.AdminAuth, upload *Upload) (*entity.Admin, error) {
	if !strings.HasPrefix(upload.MIMEType, "image/") {
		return nil, fmt.Errorf("%w: avatar must be an image", entity.ErrInvalidInput)
	}
	current, err := c.CurrentAdmin(ctx, admin)
	if err != nil {
		return nil, err
	}

	stored, err := c.storeUpload(ctx, admin, upload, entity.FolderAvatars, entity.MaxAvatarSize)
	if err != nil {
		return nil, err
	}
	updated, err := c.repo.UpdateAdminPhoto(ctx, admin.ID, stored.URL, stored.Key)
	if err != nil {
		c.removeFile(stored.Key)
		return nil, err
	}
	c.removeFile(current.PhotoKey)
	return updated, nil
}

func (c *Core) Legends(ctx context.Context) ([]entity.Admin, error) {
	return c.repo.ListAdmins(ctx)
}

func (c *Core) LegendByUsername(ctx context.Context, username string) (*entity.Legend, error) {
	admin, err := c.repo.GetAdminByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	projects, err := c.repo.ListProjectsByAuthor(ctx, admin.IDHex(), legendProjects)
	if err != nil {
		return nil, err
	}
	totals, err := c.repo.ProjectTotals(ctx, admin.IDHex())
	if err != nil {
		return nil, err
	}
	return &entity.Legend{Admin: admin, Projects: projects, Stats: totals}, nil
}

func (c *Core) AdminStats(ctx context.Context, admin *entity.AdminAuth) (*entity.AdminStats, error) {
	totals, err := c.repo.ProjectTotals(ctx, admin.ID)
	if err != nil {
		return nil, err
	}
	recent, err := c.repo.ListProjectsByAuthor(ctx, admin.ID, recentProjects)
	if err != nil {
		return nil, err
	}
	chats, err := c.repo.CountConversations(ctx, admin.ID)
	if err != nil {
		return nil, err
	}

	stats := &entity.AdminStats{Chats: chats}
	stats.Projects.Total = totals.Projects
	stats.Projects.Likes = totals.Likes
	stats.Projects.Downloads = totals.Downloads
	stats.Projects.Recent = recent
	return stats, nil
}
