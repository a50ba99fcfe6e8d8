package task

import (
	"context"

	"taskpay/internal/common"
)

type ListFilter struct {
	CategoryID *common.UUID
	LocationID *common.UUID
}

type Repository interface {
	Create(ctx context.Context, t Task) (*Task, error)
	Update(ctx context.Context, t Task) (*Task, error)
	GetByID(ctx context.Context, id common.UUID) (*Task, error)
	ListOpen(ctx context.Context, limit, offset int, filter ListFilter) ([]Task, int, error)
	ListByClient(ctx context.Context, clientID common.UUID, statuses []Status) ([]Task, error)
	Stats(ctx context.Context, clientID common.UUID) (*ClientStats, error)
}
