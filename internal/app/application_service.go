package app

import (
	"context"
	"fmt"
	"strings"

	"taskpay/internal/common"
	"taskpay/internal/domain/application"
	"taskpay/internal/domain/task"
	"taskpay/internal/domain/user"
)

type ApplicationService struct {
	repo   application.Repository
	tasks  task.Repository
	users  user.Repository
	logger Logger
}

func NewApplicationService(repo application.Repository, tasks task.Repository, users user.Repository, logger Logger) *ApplicationService {
	return &ApplicationService{repo: repo, tasks: tasks, users: users, logger: logger}
}

func (s *ApplicationService) Apply(ctx context.Context, applicantID, taskID common.UUID, coverLetter string, proposedBudget int64) (*application.Application, error) {
	roles, err := s.users.ListRoles(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	hasApplicantRole := false
	for _, role := range roles {
		if role == user.RoleApplicant {
			hasApplicantRole = true
			break
		}
	}
	if !hasApplicantRole {
		return nil, common.NewError(common.CodeForbidden, "applicant role required", nil)
	}
	if proposedBudget < 0 {
		return nil, common.NewValidationError("invalid application", map[string]string{"proposed_budget": "budget must not be negative"})
	}
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status != task.StatusOpen {
		return nil, common.NewError(common.CodeValidation, "task is not open for applications", nil)
	}
	if _, err := s.repo.FindByTaskAndApplicant(ctx, taskID, applicantID); err == nil {
		return nil, common.NewError(common.CodeConflict, "already applied to this task", nil)
	} else if !common.Is(err, common.CodeNotFound) {
		return nil, err
	}
	created, err := s.repo.Create(ctx, application.Application{
		TaskID:         taskID,
		ApplicantID:    applicantID,
		CoverLetter:    strings.TrimSpace(coverLetter),
		ProposedBudget: proposedBudget,
		Status:         application.StatusPending,
	})
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info(fmt.Sprintf("application created application_id=%s task_id=%s", created.ID, taskID))
	}
	return created, nil
}

func (s *ApplicationService) Withdraw(ctx context.Context, applicantID, applicationID common.UUID) (*application.Application, error) {
	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != applicantID {
		return nil, common.NewError(common.CodeForbidden, "application belongs to another applicant", nil)
	}
	if !application.CanTransition(app.Status, application.StatusWithdrawn) {
		return nil, common.NewError(common.CodeValidation, "application cannot be withdrawn in its current status", nil)
	}
	return s.repo.UpdateStatus(ctx, applicationID, application.StatusWithdrawn)
}

// UpdateStatusByAdmin moves an application along the lifecycle on behalf of
// an admin reviewer.
func (s *ApplicationService) UpdateStatusByAdmin(ctx context.Context, applicationID common.UUID, status application.Status) (*application.Application, error) {
	normalized := application.Status(strings.ToLower(strings.TrimSpace(string(status))))
	if !application.KnownStatus(normalized) {
		return nil, common.NewValidationError("invalid status", map[string]string{"status": "unknown application status"})
	}
	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if normalized == app.Status {
		return app, nil
	}
	if application.IsFinal(app.Status) {
		return nil, common.NewError(common.CodeValidation, "application status is final", nil)
	}
	if !application.CanTransition(app.Status, normalized) {
		return nil, common.NewError(common.CodeValidation, "invalid status transition", nil)
	}
	return s.repo.UpdateStatus(ctx, applicationID, normalized)
}

func (s *ApplicationService) ListMine(ctx context.Context, applicantID common.UUID, statuses []application.Status, page, limit int) ([]application.Application, int, error) {
	for _, status := range statuses {
		if !application.KnownStatus(status) {
			return nil, 0, common.NewValidationError("invalid status filter", map[string]string{"status": "unknown application status"})
		}
	}
	limit, offset := normalizePage(page, limit)
	return s.repo.ListByApplicant(ctx, applicantID, statuses, limit, offset)
}

func (s *ApplicationService) ListByTask(ctx context.Context, taskID common.UUID) ([]application.Application, error) {
	return s.repo.ListByTask(ctx, taskID)
}
