package profile

import (
	"context"

	"taskpay/internal/common"
)

type Repository interface {
	// GetByUserID returns the profile with every child collection loaded and
	// experience companies resolved. Missing profile is a not_found error,
	// never an empty object.
	GetByUserID(ctx context.Context, userID common.UUID) (*Profile, error)
	// Replace applies one form submission atomically: personal fields are
	// updated, the three child sets are deleted and reinserted, and the single
	// preference row is swapped, all in one transaction. Companies named by
	// experience entries are resolved get-or-create by unique name.
	Replace(ctx context.Context, userID common.UUID, form Form) error
	// ListApplicants pages through all profiles with their graphs, for the
	// admin roster. Returns the page and the total row count.
	ListApplicants(ctx context.Context, limit, offset int) ([]Profile, int, error)
}
