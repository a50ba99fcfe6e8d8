package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"taskpay/internal/common"
	"taskpay/internal/domain/user"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, email, passwordHash string, role user.Role) (*user.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := common.NewUUID()
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`, id, strings.ToLower(email), passwordHash, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.NewError(common.CodeConflict, "email already registered", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to create user", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2`, id, role)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to assign role", err)
	}
	// The profile stub must appear in the same transaction: an applicant-role
	// user without a profile row would break every profile operation.
	if role == user.RoleApplicant {
		_, err = tx.ExecContext(ctx, `INSERT INTO applicant_profiles (user_id, created_at, updated_at)
			VALUES ($1, $2, $3)`, id, now, now)
		if err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to create profile stub", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to commit user", err)
	}
	return &user.User{
		ID:           id,
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Roles:        []user.Role{role},
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id common.UUID) (*user.User, error) {
	return r.get(ctx, `WHERE u.id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.get(ctx, `WHERE u.email = $1`, strings.ToLower(email))
}

func (r *UserRepository) get(ctx context.Context, where string, arg any) (*user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT u.id, u.email, u.password_hash, u.created_at, u.updated_at,
			COALESCE(array_agg(r.name) FILTER (WHERE r.name IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id
		`+where+`
		GROUP BY u.id`, arg)
	var account user.User
	var roleNames []string
	if err := row.Scan(&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt, &account.UpdatedAt, pq.Array(&roleNames)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "user not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to load user", err)
	}
	for _, name := range roleNames {
		account.Roles = append(account.Roles, user.Role(name))
	}
	return &account, nil
}

// ListRoles anchors on the users row so a deleted account comes back as not
// found instead of an empty role set.
func (r *UserRepository) ListRoles(ctx context.Context, id common.UUID) ([]user.Role, error) {
	row := r.db.QueryRowContext(ctx, `SELECT COALESCE(array_agg(r.name) FILTER (WHERE r.name IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id
		WHERE u.id = $1
		GROUP BY u.id`, id)
	var roleNames []string
	if err := row.Scan(pq.Array(&roleNames)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "user not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to load roles", err)
	}
	roles := make([]user.Role, 0, len(roleNames))
	for _, name := range roleNames {
		roles = append(roles, user.Role(name))
	}
	return roles, nil
}
