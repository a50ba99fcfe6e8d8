package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
	"time"

	"taskpay/internal/common"
	"taskpay/internal/domain/auth"
	"taskpay/internal/domain/user"
	"taskpay/internal/security"
)

type Logger interface {
	Info(msg string)
	Error(msg string)
}

// AuthService owns registration, login and token rotation. Permission checks
// always go back to the stored role set; the role claim inside a token only
// selects which dashboard the client renders.
type AuthService struct {
	users         user.Repository
	refreshTokens auth.RefreshTokenRepository
	jwtProvider   *security.JWTProvider
	logger        Logger
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(users user.Repository, refreshTokens auth.RefreshTokenRepository, jwtProvider *security.JWTProvider, logger Logger, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:         users,
		refreshTokens: refreshTokens,
		jwtProvider:   jwtProvider,
		logger:        logger,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 6

func (s *AuthService) Register(ctx context.Context, email, password string, role user.Role) (*auth.TokenPair, *user.User, error) {
	fields := map[string]string{}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		fields["email"] = "email is required"
	} else if !emailPattern.MatchString(email) {
		fields["email"] = "invalid email"
	}
	if len(password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("password must be at least %d characters", minPasswordLength)
	}
	normalized, err := normalizeRegistrationRole(role)
	if err != nil {
		fields["selected_role"] = "role must be applicant or client"
	}
	if len(fields) > 0 {
		return nil, nil, common.NewValidationError("invalid registration", fields)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, nil, common.NewError(common.CodeInternal, "failed to hash password", err)
	}
	account, err := s.users.Create(ctx, email, hash, normalized)
	if err != nil {
		return nil, nil, err
	}
	s.logInfo(fmt.Sprintf("user registered user_id=%s role=%s", account.ID, normalized))
	pair, err := s.issueTokens(ctx, account, normalized)
	if err != nil {
		return nil, nil, err
	}
	return pair, account, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string, role user.Role) (*auth.TokenPair, *user.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	account, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if common.Is(err, common.CodeNotFound) {
			// Same message as a bad password so emails cannot be probed.
			return nil, nil, common.NewError(common.CodeUnauthorized, "invalid email or password", nil)
		}
		return nil, nil, err
	}
	if !security.CheckPassword(account.PasswordHash, password) {
		return nil, nil, common.NewError(common.CodeUnauthorized, "invalid email or password", nil)
	}
	normalized := user.Role(strings.ToLower(strings.TrimSpace(string(role))))
	if normalized == "" && len(account.Roles) == 1 {
		normalized = account.Roles[0]
	}
	if !account.HasRole(normalized) {
		return nil, nil, common.NewError(common.CodeForbidden, "role mismatch", nil)
	}
	pair, err := s.issueTokens(ctx, account, normalized)
	if err != nil {
		return nil, nil, err
	}
	s.logInfo(fmt.Sprintf("user logged in user_id=%s role=%s", account.ID, normalized))
	return pair, account, nil
}

func (s *AuthService) Refresh(ctx context.Context, token string, role user.Role) (*auth.TokenPair, *user.User, error) {
	stored, err := s.refreshTokens.GetByToken(ctx, token)
	if err != nil {
		if common.Is(err, common.CodeNotFound) {
			return nil, nil, common.NewError(common.CodeUnauthorized, "invalid refresh token", nil)
		}
		return nil, nil, err
	}
	if stored.RevokedAt != nil {
		return nil, nil, common.NewError(common.CodeUnauthorized, "refresh token revoked", nil)
	}
	if stored.ExpiresAt.Before(time.Now().UTC()) {
		return nil, nil, common.NewError(common.CodeUnauthorized, "refresh token expired", nil)
	}
	account, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		if common.Is(err, common.CodeNotFound) {
			return nil, nil, common.NewError(common.CodeUnauthorized, "user no longer exists", nil)
		}
		return nil, nil, err
	}
	activeRole := user.Role(strings.TrimSpace(stored.Role))
	if requested := user.Role(strings.ToLower(strings.TrimSpace(string(role)))); requested != "" {
		activeRole = requested
	}
	if !account.HasRole(activeRole) {
		return nil, nil, common.NewError(common.CodeForbidden, "role mismatch", nil)
	}
	// Rotation: the old token dies with every refresh.
	if err := s.refreshTokens.Revoke(ctx, token, time.Now().UTC().Unix()); err != nil {
		return nil, nil, err
	}
	pair, err := s.issueTokens(ctx, account, activeRole)
	if err != nil {
		return nil, nil, err
	}
	return pair, account, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	err := s.refreshTokens.Revoke(ctx, token, time.Now().UTC().Unix())
	if err == nil {
		s.logInfo("user logged out")
	}
	return err
}

// LogoutAll revokes every refresh token the presented token's owner holds,
// ending all of their sessions at once.
func (s *AuthService) LogoutAll(ctx context.Context, token string) error {
	stored, err := s.refreshTokens.GetByToken(ctx, token)
	if err != nil {
		if common.Is(err, common.CodeNotFound) {
			return common.NewError(common.CodeUnauthorized, "invalid refresh token", nil)
		}
		return err
	}
	if err := s.refreshTokens.RevokeAll(ctx, stored.UserID, time.Now().UTC().Unix()); err != nil {
		return err
	}
	s.logInfo(fmt.Sprintf("user logged out everywhere user_id=%s", stored.UserID))
	return nil
}

// AuthorizeRole re-derives permission from the stored role set. A stale or
// forged active-role claim never grants access on its own.
func (s *AuthService) AuthorizeRole(ctx context.Context, userID common.UUID, required user.Role) error {
	roles, err := s.users.ListRoles(ctx, userID)
	if err != nil {
		return err
	}
	for _, existing := range roles {
		if existing == required {
			return nil
		}
	}
	return common.NewError(common.CodeForbidden, "insufficient role", nil)
}

func (s *AuthService) issueTokens(ctx context.Context, account *user.User, activeRole user.Role) (*auth.TokenPair, error) {
	roles := make([]string, len(account.Roles))
	for i, role := range account.Roles {
		roles[i] = string(role)
	}
	accessToken, expiresAt, err := s.jwtProvider.Generate(account.ID, roles, string(activeRole), s.accessTTL)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to generate access token", err)
	}
	refreshValue, err := generateRefreshToken()
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to generate refresh token", err)
	}
	refresh := auth.RefreshToken{
		ID:        common.NewUUID(),
		UserID:    account.ID,
		Token:     refreshValue,
		Role:      string(activeRole),
		ExpiresAt: time.Now().UTC().Add(s.refreshTTL),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.refreshTokens.Store(ctx, refresh); err != nil {
		return nil, err
	}
	return &auth.TokenPair{AccessToken: accessToken, RefreshToken: refreshValue, ExpiresAt: expiresAt}, nil
}

func generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", b), nil
}

func normalizeRegistrationRole(role user.Role) (user.Role, error) {
	normalized := user.Role(strings.ToLower(strings.TrimSpace(string(role))))
	// Admin accounts are provisioned out of band, never self-registered.
	if normalized != user.RoleApplicant && normalized != user.RoleClient {
		return "", common.NewValidationError("invalid role", map[string]string{"selected_role": "role must be applicant or client"})
	}
	return normalized, nil
}

func (s *AuthService) logInfo(msg string) {
	if s.logger == nil {
		return
	}
	s.logger.Info(msg)
}
