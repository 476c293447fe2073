package legend

import (
	"SourceHub/entity"
	"context"
)

type Core interface {
	Legends(ctx context.Context) ([]entity.Admin, error)
	LegendByUsername(ctx context.Context, username string) (*entity.Legend, error)
}
