package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"taskpay/internal/common"
	"taskpay/internal/domain/auth"
	"taskpay/internal/domain/user"
	"taskpay/internal/security"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*user.User
	byID    map[common.UUID]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: make(map[string]*user.User),
		byID:    make(map[common.UUID]*user.User),
	}
}

func (r *fakeUserRepo) Create(ctx context.Context, email, passwordHash string, role user.Role) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[email]; ok {
		return nil, common.NewError(common.CodeConflict, "email already registered", nil)
	}
	now := time.Now().UTC()
	account := &user.User{
		ID:           common.NewUUID(),
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        []user.Role{role},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byEmail[email] = account
	r.byID[account.ID] = account
	return cloneUser(account), nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id common.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account := r.byID[id]
	if account == nil {
		return nil, common.NewError(common.CodeNotFound, "user not found", nil)
	}
	return cloneUser(account), nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account := r.byEmail[email]
	if account == nil {
		return nil, common.NewError(common.CodeNotFound, "user not found", nil)
	}
	return cloneUser(account), nil
}

func (r *fakeUserRepo) ListRoles(ctx context.Context, id common.UUID) ([]user.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account := r.byID[id]
	if account == nil {
		return nil, common.NewError(common.CodeNotFound, "user not found", nil)
	}
	return append([]user.Role(nil), account.Roles...), nil
}

func (r *fakeUserRepo) addRole(id common.UUID, role user.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account := r.byID[id]; account != nil {
		account.Roles = append(account.Roles, role)
	}
}

func cloneUser(account *user.User) *user.User {
	copy := *account
	copy.Roles = append([]user.Role(nil), account.Roles...)
	return &copy
}

type fakeRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]auth.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[string]auth.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Store(ctx context.Context, token auth.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Token] = token
	return nil
}

func (r *fakeRefreshTokenRepo) GetByToken(ctx context.Context, token string) (*auth.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.tokens[token]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "refresh token not found", nil)
	}
	copy := value
	return &copy, nil
}

func (r *fakeRefreshTokenRepo) Revoke(ctx context.Context, token string, revokedAtUnix int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.tokens[token]
	if !ok {
		return common.NewError(common.CodeNotFound, "refresh token not found", nil)
	}
	revokedAt := time.Unix(revokedAtUnix, 0).UTC()
	value.RevokedAt = &revokedAt
	r.tokens[token] = value
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeAll(ctx context.Context, userID common.UUID, revokedAtUnix int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	revokedAt := time.Unix(revokedAtUnix, 0).UTC()
	for key, value := range r.tokens {
		if value.UserID == userID {
			value.RevokedAt = &revokedAt
			r.tokens[key] = value
		}
	}
	return nil
}

func newAuthService(userRepo *fakeUserRepo, refreshRepo *fakeRefreshTokenRepo) *AuthService {
	jwtProvider := security.NewJWTProvider("secret")
	return NewAuthService(userRepo, refreshRepo, jwtProvider, nil, time.Minute, time.Hour)
}

func TestAuthServiceRegister_CreatesApplicant(t *testing.T) {
	userRepo := newFakeUserRepo()
	refreshRepo := newFakeRefreshTokenRepo()
	service := newAuthService(userRepo, refreshRepo)

	pair, account, err := service.Register(context.Background(), "Ada@Example.COM", "secret1", user.RoleApplicant)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if pair == nil || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if account.Email != "ada@example.com" {
		t.Fatalf("expected lowercased email, got %q", account.Email)
	}
	if !account.HasRole(user.RoleApplicant) {
		t.Fatal("expected applicant role to be assigned")
	}
	stored, err := refreshRepo.GetByToken(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("expected refresh token stored, got %v", err)
	}
	if stored.Role != string(user.RoleApplicant) {
		t.Fatalf("expected applicant role on refresh token, got %q", stored.Role)
	}
}

func TestAuthServiceRegister_DuplicateEmail(t *testing.T) {
	userRepo := newFakeUserRepo()
	service := newAuthService(userRepo, newFakeRefreshTokenRepo())

	if _, _, err := service.Register(context.Background(), "ada@example.com", "secret1", user.RoleApplicant); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	_, _, err := service.Register(context.Background(), "ada@example.com", "secret1", user.RoleClient)
	if !common.Is(err, common.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestAuthServiceRegister_RejectsAdminRole(t *testing.T) {
	service := newAuthService(newFakeUserRepo(), newFakeRefreshTokenRepo())

	_, _, err := service.Register(context.Background(), "ada@example.com", "secret1", user.RoleAdmin)
	if !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := common.FieldsOf(err)["selected_role"]; !ok {
		t.Fatalf("expected selected_role field, got %v", common.FieldsOf(err))
	}
}

func TestAuthServiceRegister_ListsEveryInvalidField(t *testing.T) {
	service := newAuthService(newFakeUserRepo(), newFakeRefreshTokenRepo())

	_, _, err := service.Register(context.Background(), "not-an-email", "short", "")
	if !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := common.FieldsOf(err)
	for _, key := range []string{"email", "password", "selected_role"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("expected field %q in %v", key, fields)
		}
	}
}

func TestAuthServiceLogin_BadCredentialsIndistinguishable(t *testing.T) {
	userRepo := newFakeUserRepo()
	service := newAuthService(userRepo, newFakeRefreshTokenRepo())
	if _, _, err := service.Register(context.Background(), "ada@example.com", "secret1", user.RoleApplicant); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	_, _, wrongPassword := service.Login(context.Background(), "ada@example.com", "nope123", user.RoleApplicant)
	_, _, unknownEmail := service.Login(context.Background(), "ghost@example.com", "secret1", user.RoleApplicant)
	if !common.Is(wrongPassword, common.CodeUnauthorized) || !common.Is(unknownEmail, common.CodeUnauthorized) {
		t.Fatalf("expected unauthorized errors, got %v and %v", wrongPassword, unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("expected identical messages, got %q and %q", wrongPassword, unknownEmail)
	}
}

func TestAuthServiceLogin_RoleMismatch(t *testing.T) {
	userRepo := newFakeUserRepo()
	service := newAuthService(userRepo, newFakeRefreshTokenRepo())
	if _, _, err := service.Register(context.Background(), "ada@example.com", "secret1", user.RoleApplicant); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	_, _, err := service.Login(context.Background(), "ada@example.com", "secret1", user.RoleClient)
	if !common.Is(err, common.CodeForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestAuthServiceRefresh_RotatesToken(t *testing.T) {
	userRepo := newFakeUserRepo()
	refreshRepo := newFakeRefreshTokenRepo()
	service := newAuthService(userRepo, refreshRepo)
	pair, _, err := service.Register(context.Background(), "ada@example.com", "secret1", user.RoleApplicant)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	next, _, err := service.Refresh(context.Background(), pair.RefreshToken, "")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("expected a new refresh token")
	}
	if _, _, err := service.Refresh(context.Background(), pair.RefreshToken, ""); !common.Is(err, common.CodeUnauthorized) {
		t.Fatalf("expected unauthorized on reused token, got %v", err)
	}
}

func TestAuthServiceRefresh_SwitchesHeldRole(t *testing.T) {
	userRepo := newFakeUserRepo()
	refreshRepo := newFakeRefreshTokenRepo()
	service := newAuthService(userRepo, refreshRepo)
	pair, account, err := service.Register(context.Background(), "ada@example.com", "secret1", user.RoleApplicant)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	userRepo.addRole(account.ID, user.RoleClient)

	next, _, err := service.Refresh(context.Background(), pair.RefreshToken, user.RoleClient)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	stored, err := refreshRepo.GetByToken(context.Background(), next.RefreshToken)
	if err != nil {
		t.Fatalf("expected refresh token stored, got %v", err)
	}
	if stored.Role != string(user.RoleClient) {
		t.Fatalf("expected client role on new token, got %q", stored.Role)
	}
}

func TestAuthServiceRefresh_UnheldRoleForbidden(t *testing.T) {
	userRepo := newFakeUserRepo()
	service := newAuthService(userRepo, newFakeRefreshTokenRepo())
	pair, _, err := service.Register(context.Background(), "ada@example.com", "secret1", user.RoleApplicant)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	_, _, err = service.Refresh(context.Background(), pair.RefreshToken, user.RoleAdmin)
	if !common.Is(err, common.CodeForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestAuthServiceLogout_RevokesToken(t *testing.T) {
	userRepo := newFakeUserRepo()
	refreshRepo := newFakeRefreshTokenRepo()
	service := newAuthService(userRepo, refreshRepo)
	pair, _, err := service.Register(context.Background(), "ada@example.com", "secret1", user.RoleApplicant)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if err := service.Logout(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if _, _, err := service.Refresh(context.Background(), pair.RefreshToken, ""); !common.Is(err, common.CodeUnauthorized) {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}
}

func TestAuthServiceLogoutAll_RevokesEverySession(t *testing.T) {
	userRepo := newFakeUserRepo()
	refreshRepo := newFakeRefreshTokenRepo()
	service := newAuthService(userRepo, refreshRepo)
	first, _, err := service.Register(context.Background(), "ada@example.com", "secret1", user.RoleApplicant)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	second, _, err := service.Login(context.Background(), "ada@example.com", "secret1", user.RoleApplicant)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if err := service.LogoutAll(context.Background(), second.RefreshToken); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	for _, token := range []string{first.RefreshToken, second.RefreshToken} {
		if _, _, err := service.Refresh(context.Background(), token, ""); !common.Is(err, common.CodeUnauthorized) {
			t.Fatalf("expected unauthorized after logout everywhere, got %v", err)
		}
	}
}

func TestAuthServiceLogoutAll_UnknownTokenUnauthorized(t *testing.T) {
	service := newAuthService(newFakeUserRepo(), newFakeRefreshTokenRepo())

	if err := service.LogoutAll(context.Background(), "missing"); !common.Is(err, common.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestAuthServiceAuthorizeRole_UsesStoredRoles(t *testing.T) {
	userRepo := newFakeUserRepo()
	service := newAuthService(userRepo, newFakeRefreshTokenRepo())
	_, account, err := service.Register(context.Background(), "ada@example.com", "secret1", user.RoleApplicant)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if err := service.AuthorizeRole(context.Background(), account.ID, user.RoleApplicant); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	err = service.AuthorizeRole(context.Background(), account.ID, user.RoleAdmin)
	if !common.Is(err, common.CodeForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if !strings.Contains(err.Error(), "insufficient role") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
