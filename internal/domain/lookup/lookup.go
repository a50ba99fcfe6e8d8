package lookup

import (
	"context"

	"taskpay/internal/common"
)

type Category struct {
	ID   common.UUID `json:"id"`
	Name string      `json:"name"`
}

type Location struct {
	ID   common.UUID `json:"id"`
	Name string      `json:"name"`
}

type Repository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListLocations(ctx context.Context) ([]Location, error)
}
