package user

import (
	"context"

	"taskpay/internal/common"
)

type Repository interface {
	// Create inserts the user, its single role row and, for applicants, the
	// paired profile stub, all inside one transaction.
	Create(ctx context.Context, email, passwordHash string, role Role) (*User, error)
	GetByID(ctx context.Context, id common.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListRoles(ctx context.Context, id common.UUID) ([]Role, error)
}
