package cont

import (
	"SourceHub/entity"
	"context"
)

type ctxKey string

const (
	adminKey ctxKey = "admin"
	tokenKey ctxKey = "token"
)

func PutAdmin(ctx context.Context, admin *entity.AdminAuth) context.Context {
	return context.WithValue(ctx, adminKey, admin)
}

func GetAdmin(ctx context.Context) *entity.AdminAuth {
	admin, ok := ctx.Value(adminKey).(*entity.AdminAuth)
	if !ok {
		return nil
	}
	return admin
}

func PutToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
