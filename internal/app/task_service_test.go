package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"taskpay/internal/common"
	"taskpay/internal/domain/application"
	"taskpay/internal/domain/task"
)

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[common.UUID]*task.Task
	order []common.UUID
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[common.UUID]*task.Task)}
}

func (r *fakeTaskRepo) Create(ctx context.Context, t task.Task) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = common.NewUUID()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	stored := t
	r.tasks[t.ID] = &stored
	r.order = append(r.order, t.ID)
	copy := stored
	return &copy, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, t task.Task) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.tasks[t.ID]
	if stored == nil {
		return nil, common.NewError(common.CodeNotFound, "task not found", nil)
	}
	t.CreatedAt = stored.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	updated := t
	r.tasks[t.ID] = &updated
	copy := updated
	return &copy, nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, id common.UUID) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.tasks[id]
	if stored == nil {
		return nil, common.NewError(common.CodeNotFound, "task not found", nil)
	}
	copy := *stored
	return &copy, nil
}

func (r *fakeTaskRepo) ListOpen(ctx context.Context, limit, offset int, filter task.ListFilter) ([]task.Task, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []task.Task{}
	for _, id := range r.order {
		t := r.tasks[id]
		if t.Status != task.StatusOpen {
			continue
		}
		if filter.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.LocationID != nil && (t.LocationID == nil || *t.LocationID != *filter.LocationID) {
			continue
		}
		matched = append(matched, *t)
	}
	total := len(matched)
	if offset >= total {
		return []task.Task{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *fakeTaskRepo) ListByClient(ctx context.Context, clientID common.UUID, statuses []task.Status) ([]task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []task.Task{}
	for _, id := range r.order {
		t := r.tasks[id]
		if t.ClientID == nil || *t.ClientID != clientID {
			continue
		}
		if len(statuses) > 0 {
			keep := false
			for _, status := range statuses {
				if t.Status == status {
					keep = true
					break
				}
			}
			if !keep {
				continue
			}
		}
		items = append(items, *t)
	}
	return items, nil
}

func (r *fakeTaskRepo) Stats(ctx context.Context, clientID common.UUID) (*task.ClientStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &task.ClientStats{}
	for _, t := range r.tasks {
		if t.ClientID == nil || *t.ClientID != clientID {
			continue
		}
		stats.TotalTasks++
		switch t.Status {
		case task.StatusOpen:
			stats.OpenTasks++
		case task.StatusFilled:
			stats.FilledTasks++
		case task.StatusCompleted:
			stats.CompletedTasks++
		}
	}
	return stats, nil
}

type fakeApplicationRepo struct {
	mu   sync.Mutex
	apps map[common.UUID]*application.Application
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{apps: make(map[common.UUID]*application.Application)}
}

func (r *fakeApplicationRepo) Create(ctx context.Context, app application.Application) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.apps {
		if existing.TaskID == app.TaskID && existing.ApplicantID == app.ApplicantID {
			return nil, common.NewError(common.CodeConflict, "already applied to this task", nil)
		}
	}
	app.ID = common.NewUUID()
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	stored := app
	r.apps[app.ID] = &stored
	copy := stored
	return &copy, nil
}

func (r *fakeApplicationRepo) GetByID(ctx context.Context, id common.UUID) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.apps[id]
	if stored == nil {
		return nil, common.NewError(common.CodeNotFound, "application not found", nil)
	}
	copy := *stored
	return &copy, nil
}

func (r *fakeApplicationRepo) FindByTaskAndApplicant(ctx context.Context, taskID, applicantID common.UUID) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.apps {
		if stored.TaskID == taskID && stored.ApplicantID == applicantID {
			copy := *stored
			return &copy, nil
		}
	}
	return nil, common.NewError(common.CodeNotFound, "application not found", nil)
}

func (r *fakeApplicationRepo) ListByApplicant(ctx context.Context, applicantID common.UUID, statuses []application.Status, limit, offset int) ([]application.Application, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []application.Application{}
	for _, stored := range r.apps {
		if stored.ApplicantID != applicantID {
			continue
		}
		if len(statuses) > 0 {
			keep := false
			for _, status := range statuses {
				if stored.Status == status {
					keep = true
					break
				}
			}
			if !keep {
				continue
			}
		}
		matched = append(matched, *stored)
	}
	total := len(matched)
	if offset >= total {
		return []application.Application{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *fakeApplicationRepo) ListByTask(ctx context.Context, taskID common.UUID) ([]application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []application.Application{}
	for _, stored := range r.apps {
		if stored.TaskID == taskID {
			items = append(items, *stored)
		}
	}
	return items, nil
}

func (r *fakeApplicationRepo) UpdateStatus(ctx context.Context, id common.UUID, status application.Status) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.apps[id]
	if stored == nil {
		return nil, common.NewError(common.CodeNotFound, "application not found", nil)
	}
	stored.Status = status
	stored.UpdatedAt = time.Now().UTC()
	copy := *stored
	return &copy, nil
}

func (r *fakeApplicationRepo) RejectOthersByTask(ctx context.Context, taskID, keepID common.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.apps {
		if stored.TaskID != taskID || stored.ID == keepID {
			continue
		}
		if application.IsFinal(stored.Status) {
			continue
		}
		stored.Status = application.StatusRejected
	}
	return nil
}

func seedTask(t *testing.T, repo *fakeTaskRepo, clientID common.UUID, status task.Status) *task.Task {
	t.Helper()
	created, err := repo.Create(context.Background(), task.Task{
		ClientID:    &clientID,
		Title:       "Fix the roof",
		Description: "Replace broken tiles",
		Budget:      500,
		Status:      status,
	})
	if err != nil {
		t.Fatalf("expected task created, got %v", err)
	}
	return created
}

func TestTaskServiceCreate_DefaultsToOpen(t *testing.T) {
	repo := newFakeTaskRepo()
	service := NewTaskService(repo, newFakeApplicationRepo(), nil, false)
	clientID := common.NewUUID()

	created, err := service.Create(context.Background(), task.Task{ClientID: &clientID, Title: "Fix the roof", Description: "Tiles", Budget: 100})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if created.Status != task.StatusOpen {
		t.Fatalf("expected open status, got %q", created.Status)
	}
}

func TestTaskServiceCreate_ValidatesFields(t *testing.T) {
	service := NewTaskService(newFakeTaskRepo(), newFakeApplicationRepo(), nil, false)

	_, err := service.Create(context.Background(), task.Task{Budget: -5})
	if !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := common.FieldsOf(err)
	for _, key := range []string{"title", "description", "budget"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("expected field %q in %v", key, fields)
		}
	}
}

func TestTaskServiceUpdateStatus_FollowsMachine(t *testing.T) {
	repo := newFakeTaskRepo()
	service := NewTaskService(repo, newFakeApplicationRepo(), nil, false)
	clientID := common.NewUUID()
	created := seedTask(t, repo, clientID, task.StatusOpen)

	if _, err := service.UpdateStatus(context.Background(), clientID, created.ID, task.StatusCompleted); !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error for open->completed, got %v", err)
	}
	updated, err := service.UpdateStatus(context.Background(), clientID, created.ID, task.StatusInProgress)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if updated.Status != task.StatusInProgress {
		t.Fatalf("expected in_progress, got %q", updated.Status)
	}
	if _, err := service.UpdateStatus(context.Background(), clientID, created.ID, task.StatusCompleted); err != nil {
		t.Fatalf("expected in_progress->completed allowed, got %v", err)
	}
}

func TestTaskServiceUpdate_OtherClientForbidden(t *testing.T) {
	repo := newFakeTaskRepo()
	service := NewTaskService(repo, newFakeApplicationRepo(), nil, false)
	created := seedTask(t, repo, common.NewUUID(), task.StatusOpen)

	_, err := service.Update(context.Background(), common.NewUUID(), created.ID, task.Update{Title: stringPtr("Hijacked")})
	if !common.Is(err, common.CodeForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestTaskServiceUpdate_PartialKeepsStoredFields(t *testing.T) {
	repo := newFakeTaskRepo()
	service := NewTaskService(repo, newFakeApplicationRepo(), nil, false)
	clientID := common.NewUUID()
	created := seedTask(t, repo, clientID, task.StatusOpen)

	budget := int64(700)
	updated, err := service.Update(context.Background(), clientID, created.ID, task.Update{Budget: &budget})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if updated.Budget != 700 {
		t.Fatalf("expected budget 700, got %d", updated.Budget)
	}
	if updated.Title != "Fix the roof" || updated.Description != "Replace broken tiles" {
		t.Fatalf("expected stored fields kept, got title=%q description=%q", updated.Title, updated.Description)
	}
	stored, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("expected task, got %v", err)
	}
	if stored.Title != "Fix the roof" || stored.Status != task.StatusOpen {
		t.Fatalf("unexpected stored task %+v", stored)
	}
}

func TestTaskServiceUpdate_RejectsBlankRequiredFields(t *testing.T) {
	repo := newFakeTaskRepo()
	service := NewTaskService(repo, newFakeApplicationRepo(), nil, false)
	clientID := common.NewUUID()
	created := seedTask(t, repo, clientID, task.StatusOpen)

	_, err := service.Update(context.Background(), clientID, created.ID, task.Update{Title: stringPtr("   ")})
	if !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := common.FieldsOf(err)["title"]; !ok {
		t.Fatalf("expected title field error, got %v", common.FieldsOf(err))
	}
	stored, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("expected task, got %v", err)
	}
	if stored.Title != "Fix the roof" {
		t.Fatalf("expected title unchanged, got %q", stored.Title)
	}
}

func TestTaskServiceUpdate_StatusFollowsMachine(t *testing.T) {
	repo := newFakeTaskRepo()
	service := NewTaskService(repo, newFakeApplicationRepo(), nil, false)
	clientID := common.NewUUID()
	created := seedTask(t, repo, clientID, task.StatusOpen)

	bad := task.StatusCompleted
	if _, err := service.Update(context.Background(), clientID, created.ID, task.Update{Status: &bad}); !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error for open->completed, got %v", err)
	}
	next := task.StatusClosed
	updated, err := service.Update(context.Background(), clientID, created.ID, task.Update{Status: &next})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if updated.Status != task.StatusClosed {
		t.Fatalf("expected closed, got %q", updated.Status)
	}
}

func TestTaskServiceHire_ApprovesAndFills(t *testing.T) {
	taskRepo := newFakeTaskRepo()
	appRepo := newFakeApplicationRepo()
	service := NewTaskService(taskRepo, appRepo, nil, false)
	clientID := common.NewUUID()
	created := seedTask(t, taskRepo, clientID, task.StatusOpen)

	chosen := common.NewUUID()
	other := common.NewUUID()
	if _, err := appRepo.Create(context.Background(), application.Application{TaskID: created.ID, ApplicantID: chosen, Status: application.StatusPending}); err != nil {
		t.Fatalf("expected application created, got %v", err)
	}
	competitor, err := appRepo.Create(context.Background(), application.Application{TaskID: created.ID, ApplicantID: other, Status: application.StatusPending})
	if err != nil {
		t.Fatalf("expected application created, got %v", err)
	}

	approved, err := service.Hire(context.Background(), clientID, created.ID, chosen)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if approved.Status != application.StatusApproved {
		t.Fatalf("expected approved, got %q", approved.Status)
	}
	filled, err := taskRepo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("expected task, got %v", err)
	}
	if filled.Status != task.StatusFilled {
		t.Fatalf("expected filled task, got %q", filled.Status)
	}
	untouched, err := appRepo.GetByID(context.Background(), competitor.ID)
	if err != nil {
		t.Fatalf("expected competitor application, got %v", err)
	}
	if untouched.Status != application.StatusPending {
		t.Fatalf("expected competitor untouched, got %q", untouched.Status)
	}
}

func TestTaskServiceHire_AutoRejectsCompetitors(t *testing.T) {
	taskRepo := newFakeTaskRepo()
	appRepo := newFakeApplicationRepo()
	service := NewTaskService(taskRepo, appRepo, nil, true)
	clientID := common.NewUUID()
	created := seedTask(t, taskRepo, clientID, task.StatusOpen)

	chosen := common.NewUUID()
	if _, err := appRepo.Create(context.Background(), application.Application{TaskID: created.ID, ApplicantID: chosen, Status: application.StatusPending}); err != nil {
		t.Fatalf("expected application created, got %v", err)
	}
	competitor, err := appRepo.Create(context.Background(), application.Application{TaskID: created.ID, ApplicantID: common.NewUUID(), Status: application.StatusPending})
	if err != nil {
		t.Fatalf("expected application created, got %v", err)
	}
	withdrawn, err := appRepo.Create(context.Background(), application.Application{TaskID: created.ID, ApplicantID: common.NewUUID(), Status: application.StatusWithdrawn})
	if err != nil {
		t.Fatalf("expected application created, got %v", err)
	}

	if _, err := service.Hire(context.Background(), clientID, created.ID, chosen); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	rejected, _ := appRepo.GetByID(context.Background(), competitor.ID)
	if rejected.Status != application.StatusRejected {
		t.Fatalf("expected competitor rejected, got %q", rejected.Status)
	}
	final, _ := appRepo.GetByID(context.Background(), withdrawn.ID)
	if final.Status != application.StatusWithdrawn {
		t.Fatalf("expected withdrawn application untouched, got %q", final.Status)
	}
}

func TestTaskServiceHire_ClosedTaskRejected(t *testing.T) {
	taskRepo := newFakeTaskRepo()
	appRepo := newFakeApplicationRepo()
	service := NewTaskService(taskRepo, appRepo, nil, false)
	clientID := common.NewUUID()
	created := seedTask(t, taskRepo, clientID, task.StatusClosed)

	applicantID := common.NewUUID()
	if _, err := appRepo.Create(context.Background(), application.Application{TaskID: created.ID, ApplicantID: applicantID, Status: application.StatusPending}); err != nil {
		t.Fatalf("expected application created, got %v", err)
	}
	_, err := service.Hire(context.Background(), clientID, created.ID, applicantID)
	if !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTaskServiceStats_CountsByStatus(t *testing.T) {
	taskRepo := newFakeTaskRepo()
	service := NewTaskService(taskRepo, newFakeApplicationRepo(), nil, false)
	clientID := common.NewUUID()
	seedTask(t, taskRepo, clientID, task.StatusOpen)
	seedTask(t, taskRepo, clientID, task.StatusOpen)
	seedTask(t, taskRepo, clientID, task.StatusCompleted)
	seedTask(t, taskRepo, common.NewUUID(), task.StatusOpen)

	stats, err := service.Stats(context.Background(), clientID)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if stats.TotalTasks != 3 || stats.OpenTasks != 2 || stats.CompletedTasks != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
