package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"taskpay/internal/common"
	"taskpay/internal/domain/user"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	roles map[common.UUID][]user.Role
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{roles: make(map[common.UUID][]user.Role)}
}

func (r *fakeUserRepo) Create(ctx context.Context, email, passwordHash string, role user.Role) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account := &user.User{ID: common.NewUUID(), Email: email, PasswordHash: passwordHash, Roles: []user.Role{role}}
	r.roles[account.ID] = account.Roles
	return account, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id common.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roles, ok := r.roles[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "user not found", nil)
	}
	return &user.User{ID: id, Roles: roles}, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, common.NewError(common.CodeNotFound, "user not found", nil)
}

func (r *fakeUserRepo) ListRoles(ctx context.Context, id common.UUID) ([]user.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roles, ok := r.roles[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "user not found", nil)
	}
	return append([]user.Role(nil), roles...), nil
}

func guardRequest(userID common.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/client/tasks", nil)
	ctx := context.WithValue(req.Context(), ContextUserIDKey, userID)
	return req.WithContext(ctx)
}

func TestRoleGuardRequire_AllowsStoredRole(t *testing.T) {
	repo := newFakeUserRepo()
	account, err := repo.Create(context.Background(), "client@example.com", "hash", user.RoleClient)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	called := false
	handler := NewRoleGuard(repo).Require(user.RoleClient)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, guardRequest(account.ID))

	if !called {
		t.Fatal("expected request to reach the handler")
	}
}

func TestRoleGuardRequire_MissingRoleForbidden(t *testing.T) {
	repo := newFakeUserRepo()
	account, err := repo.Create(context.Background(), "applicant@example.com", "hash", user.RoleApplicant)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	handler := NewRoleGuard(repo).Require(user.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expected request blocked")
	}))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, guardRequest(account.ID))

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
}

func TestRoleGuardRequire_DeletedUserUnauthorized(t *testing.T) {
	repo := newFakeUserRepo()

	handler := NewRoleGuard(repo).Require(user.RoleClient)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expected request blocked")
	}))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, guardRequest(common.NewUUID()))

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a deleted user, got %d", recorder.Code)
	}
}
