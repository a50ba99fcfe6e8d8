package application

import (
	"context"

	"taskpay/internal/common"
)

type Repository interface {
	Create(ctx context.Context, app Application) (*Application, error)
	GetByID(ctx context.Context, id common.UUID) (*Application, error)
	FindByTaskAndApplicant(ctx context.Context, taskID, applicantID common.UUID) (*Application, error)
	ListByApplicant(ctx context.Context, applicantID common.UUID, statuses []Status, limit, offset int) ([]Application, int, error)
	ListByTask(ctx context.Context, taskID common.UUID) ([]Application, error)
	UpdateStatus(ctx context.Context, id common.UUID, status Status) (*Application, error)
	// RejectOthersByTask moves every non-final application for the task except
	// the given one to rejected. Used by the hire auto-reject policy.
	RejectOthersByTask(ctx context.Context, taskID, keepID common.UUID) error
}
