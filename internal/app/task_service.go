package app

import (
	"context"
	"fmt"
	"strings"

	"taskpay/internal/common"
	"taskpay/internal/domain/application"
	"taskpay/internal/domain/task"
)

type TaskService struct {
	repo         task.Repository
	applications application.Repository
	logger       Logger
	// hireAutoReject controls whether hiring one applicant rejects the rest.
	hireAutoReject bool
}

func NewTaskService(repo task.Repository, applications application.Repository, logger Logger, hireAutoReject bool) *TaskService {
	return &TaskService{repo: repo, applications: applications, logger: logger, hireAutoReject: hireAutoReject}
}

func (s *TaskService) Create(ctx context.Context, t task.Task) (*task.Task, error) {
	fields := map[string]string{}
	if strings.TrimSpace(t.Title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(t.Description) == "" {
		fields["description"] = "description is required"
	}
	if t.Budget < 0 {
		fields["budget"] = "budget must not be negative"
	}
	if len(fields) > 0 {
		return nil, common.NewValidationError("invalid task", fields)
	}
	if t.Status == "" {
		t.Status = task.StatusOpen
	}
	if !task.KnownStatus(t.Status) {
		return nil, common.NewValidationError("invalid task", map[string]string{"status": "unknown task status"})
	}
	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info(fmt.Sprintf("task created task_id=%s", created.ID))
	}
	return created, nil
}

// Update merges the edit onto the stored row, so a payload that only carries
// a budget never blanks the title or description.
func (s *TaskService) Update(ctx context.Context, clientID, taskID common.UUID, upd task.Update) (*task.Task, error) {
	current, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(current, clientID); err != nil {
		return nil, err
	}
	if upd.Title != nil {
		current.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		current.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Budget != nil {
		current.Budget = *upd.Budget
	}
	if upd.CategoryID != nil {
		current.CategoryID = upd.CategoryID
	}
	if upd.LocationID != nil {
		current.LocationID = upd.LocationID
	}
	if upd.Deadline != nil {
		current.Deadline = upd.Deadline
	}
	fields := map[string]string{}
	if current.Title == "" {
		fields["title"] = "title is required"
	}
	if current.Description == "" {
		fields["description"] = "description is required"
	}
	if current.Budget < 0 {
		fields["budget"] = "budget must not be negative"
	}
	if len(fields) > 0 {
		return nil, common.NewValidationError("invalid task", fields)
	}
	if upd.Status != nil {
		next := task.Status(strings.ToLower(strings.TrimSpace(string(*upd.Status))))
		if !task.KnownStatus(next) {
			return nil, common.NewValidationError("invalid task", map[string]string{"status": "unknown task status"})
		}
		if next != current.Status && !task.CanTransition(current.Status, next) {
			return nil, common.NewError(common.CodeValidation, "invalid task status transition", nil)
		}
		current.Status = next
	}
	return s.repo.Update(ctx, *current)
}

func (s *TaskService) UpdateStatus(ctx context.Context, clientID, taskID common.UUID, status task.Status) (*task.Task, error) {
	normalized := task.Status(strings.ToLower(strings.TrimSpace(string(status))))
	if !task.KnownStatus(normalized) {
		return nil, common.NewValidationError("invalid task status", map[string]string{"status": "unknown task status"})
	}
	current, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(current, clientID); err != nil {
		return nil, err
	}
	if normalized == current.Status {
		return current, nil
	}
	if !task.CanTransition(current.Status, normalized) {
		return nil, common.NewError(common.CodeValidation, "invalid task status transition", nil)
	}
	current.Status = normalized
	return s.repo.Update(ctx, *current)
}

func (s *TaskService) Get(ctx context.Context, id common.UUID) (*task.Task, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TaskService) ListAvailable(ctx context.Context, page, limit int, filter task.ListFilter) ([]task.Task, int, error) {
	limit, offset := normalizePage(page, limit)
	return s.repo.ListOpen(ctx, limit, offset, filter)
}

func (s *TaskService) ListByClient(ctx context.Context, clientID common.UUID) ([]task.Task, error) {
	return s.repo.ListByClient(ctx, clientID, nil)
}

func (s *TaskService) ListCompletedByClient(ctx context.Context, clientID common.UUID) ([]task.Task, error) {
	return s.repo.ListByClient(ctx, clientID, []task.Status{task.StatusCompleted})
}

func (s *TaskService) Stats(ctx context.Context, clientID common.UUID) (*task.ClientStats, error) {
	return s.repo.Stats(ctx, clientID)
}

// Hire approves the chosen applicant's application and fills the task.
// Competing applications are left untouched unless auto-reject is enabled.
func (s *TaskService) Hire(ctx context.Context, clientID, taskID, applicantID common.UUID) (*application.Application, error) {
	current, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(current, clientID); err != nil {
		return nil, err
	}
	if !task.CanTransition(current.Status, task.StatusFilled) {
		return nil, common.NewError(common.CodeValidation, "task cannot be filled in its current status", nil)
	}
	app, err := s.applications.FindByTaskAndApplicant(ctx, taskID, applicantID)
	if err != nil {
		return nil, err
	}
	if !hireable(app.Status) {
		return nil, common.NewError(common.CodeValidation, "application cannot be approved in its current status", nil)
	}
	approved, err := s.applications.UpdateStatus(ctx, app.ID, application.StatusApproved)
	if err != nil {
		return nil, err
	}
	current.Status = task.StatusFilled
	if _, err := s.repo.Update(ctx, *current); err != nil {
		return nil, err
	}
	if s.hireAutoReject {
		if err := s.applications.RejectOthersByTask(ctx, taskID, approved.ID); err != nil {
			return nil, err
		}
	}
	if s.logger != nil {
		s.logger.Info(fmt.Sprintf("applicant hired task_id=%s application_id=%s", taskID, approved.ID))
	}
	return approved, nil
}

// hireable covers every pre-decision status: a client may hire straight from
// the inbox without the admin having shortlisted first.
func hireable(status application.Status) bool {
	switch status {
	case application.StatusPending, application.StatusViewedByAdmin, application.StatusShortlisted:
		return true
	default:
		return false
	}
}

func requireOwner(t *task.Task, clientID common.UUID) error {
	if t.ClientID == nil || *t.ClientID != clientID {
		return common.NewError(common.CodeForbidden, "task belongs to another client", nil)
	}
	return nil
}
