package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"taskpay/internal/common"
	"taskpay/internal/domain/profile"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID common.UUID) (*profile.Profile, error) {
	return r.load(ctx, r.db, userID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *ProfileRepository) load(ctx context.Context, q querier, userID common.UUID) (*profile.Profile, error) {
	row := q.QueryRowContext(ctx, `SELECT p.user_id, u.email, p.first_name, p.last_name, p.phone, p.address, p.city, p.summary, p.created_at, p.updated_at
		FROM applicant_profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1`, userID)
	var p profile.Profile
	if err := row.Scan(&p.UserID, &p.Email, &p.FirstName, &p.LastName, &p.Phone, &p.Address, &p.City, &p.Summary, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "profile not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to load profile", err)
	}

	var err error
	if p.Education, err = r.loadEducation(ctx, q, userID); err != nil {
		return nil, err
	}
	if p.Experience, err = r.loadExperience(ctx, q, userID); err != nil {
		return nil, err
	}
	if p.Certifications, err = r.loadCertifications(ctx, q, userID); err != nil {
		return nil, err
	}
	if p.Preferences, err = r.loadPreferences(ctx, q, userID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) loadEducation(ctx context.Context, q querier, userID common.UUID) ([]profile.EducationEntry, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, level, institution, course, COALESCE(year_completed, 0)
		FROM education_entries WHERE profile_id = $1 ORDER BY year_completed DESC, institution`, userID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list education", err)
	}
	defer rows.Close()
	items := []profile.EducationEntry{}
	for rows.Next() {
		var e profile.EducationEntry
		if err := rows.Scan(&e.ID, &e.Level, &e.Institution, &e.Course, &e.YearCompleted); err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan education", err)
		}
		items = append(items, e)
	}
	return items, nil
}

func (r *ProfileRepository) loadExperience(ctx context.Context, q querier, userID common.UUID) ([]profile.ExperienceEntry, error) {
	rows, err := q.QueryContext(ctx, `SELECT w.id, w.job_title, w.company_id,
			COALESCE(c.name, w.company_name), COALESCE(c.address, w.company_address),
			w.start_date, w.end_date, w.description
		FROM work_experiences w
		LEFT JOIN companies c ON c.id = w.company_id
		WHERE w.profile_id = $1 ORDER BY w.start_date DESC NULLS LAST`, userID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list work experience", err)
	}
	defer rows.Close()
	items := []profile.ExperienceEntry{}
	for rows.Next() {
		var e profile.ExperienceEntry
		if err := rows.Scan(&e.ID, &e.JobTitle, &e.CompanyID, &e.CompanyName, &e.CompanyAddress, &e.StartDate, &e.EndDate, &e.Description); err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan work experience", err)
		}
		items = append(items, e)
	}
	return items, nil
}

func (r *ProfileRepository) loadCertifications(ctx context.Context, q querier, userID common.UUID) ([]profile.CertificationEntry, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, organization, COALESCE(issued_year, 0)
		FROM certification_entries WHERE profile_id = $1 ORDER BY issued_year DESC, name`, userID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list certifications", err)
	}
	defer rows.Close()
	items := []profile.CertificationEntry{}
	for rows.Next() {
		var c profile.CertificationEntry
		if err := rows.Scan(&c.ID, &c.Name, &c.Organization, &c.IssuedYear); err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan certification", err)
		}
		items = append(items, c)
	}
	return items, nil
}

func (r *ProfileRepository) loadPreferences(ctx context.Context, q querier, userID common.UUID) (*profile.Preferences, error) {
	row := q.QueryRowContext(ctx, `SELECT p.id, p.salary_min, p.salary_max,
			COALESCE((SELECT array_agg(pc.category_id) FROM preference_categories pc WHERE pc.preference_id = p.id), '{}'),
			COALESCE((SELECT array_agg(pl.location_id) FROM preference_locations pl WHERE pl.preference_id = p.id), '{}')
		FROM preferences p WHERE p.profile_id = $1`, userID)
	var prefs profile.Preferences
	var categoryIDs, locationIDs []string
	if err := row.Scan(&prefs.ID, &prefs.SalaryMin, &prefs.SalaryMax, pq.Array(&categoryIDs), pq.Array(&locationIDs)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, common.NewError(common.CodeInternal, "failed to load preferences", err)
	}
	for _, id := range categoryIDs {
		prefs.CategoryIDs = append(prefs.CategoryIDs, common.UUID(id))
	}
	for _, id := range locationIDs {
		prefs.LocationIDs = append(prefs.LocationIDs, common.UUID(id))
	}
	return &prefs, nil
}

// Replace runs the whole form submission in one transaction: personal fields,
// the three delete-and-reinsert child sets, and the preference swap. Any
// failure rolls the whole submission back.
func (r *ProfileRepository) Replace(ctx context.Context, userID common.UUID, form profile.Form) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Locking the profile row serializes concurrent submissions for the same
	// applicant and doubles as the existence check.
	var existing common.UUID
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM applicant_profiles WHERE user_id = $1 FOR UPDATE`, userID).Scan(&existing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.NewError(common.CodeNotFound, "profile not found", err)
		}
		return common.NewError(common.CodeInternal, "failed to lock profile", err)
	}

	if err := r.updatePersonal(ctx, tx, userID, form); err != nil {
		return err
	}
	if err := r.replaceEducation(ctx, tx, userID, form.Education); err != nil {
		return err
	}
	if err := r.replaceExperience(ctx, tx, userID, form.Experience); err != nil {
		return err
	}
	if err := r.replaceCertifications(ctx, tx, userID, form.Certifications); err != nil {
		return err
	}
	if err := r.replacePreferences(ctx, tx, userID, form.Preferences); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return common.NewError(common.CodeInternal, "failed to commit profile", err)
	}
	return nil
}

func (r *ProfileRepository) updatePersonal(ctx context.Context, tx *sql.Tx, userID common.UUID, form profile.Form) error {
	// COALESCE keeps omitted fields untouched: nil arguments fall through to
	// the stored value.
	_, err := tx.ExecContext(ctx, `UPDATE applicant_profiles SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			phone = COALESCE($4, phone),
			address = COALESCE($5, address),
			city = COALESCE($6, city),
			summary = COALESCE($7, summary),
			updated_at = $8
		WHERE user_id = $1`,
		userID, form.FirstName, form.LastName, form.Phone, form.Address, form.City, form.Summary, time.Now().UTC())
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to update personal fields", err)
	}
	return nil
}

func (r *ProfileRepository) replaceEducation(ctx context.Context, tx *sql.Tx, userID common.UUID, entries []profile.EducationEntry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM education_entries WHERE profile_id = $1`, userID); err != nil {
		return common.NewError(common.CodeInternal, "failed to clear education", err)
	}
	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `INSERT INTO education_entries (id, profile_id, level, institution, course, year_completed)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, 0))`,
			common.NewUUID(), userID, e.Level, e.Institution, e.Course, e.YearCompleted)
		if err != nil {
			if isUniqueViolation(err) {
				return common.NewValidationError("duplicate education entry", map[string]string{"education": "entries must be unique by level, institution and course"})
			}
			return common.NewError(common.CodeInternal, "failed to insert education", err)
		}
	}
	return nil
}

func (r *ProfileRepository) replaceExperience(ctx context.Context, tx *sql.Tx, userID common.UUID, entries []profile.ExperienceEntry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM work_experiences WHERE profile_id = $1`, userID); err != nil {
		return common.NewError(common.CodeInternal, "failed to clear work experience", err)
	}
	for _, e := range entries {
		var companyID *common.UUID
		companyName := strings.TrimSpace(e.CompanyName)
		if companyName != "" {
			resolved, err := r.getOrCreateCompany(ctx, tx, companyName, e.CompanyAddress)
			if err != nil {
				return err
			}
			companyID = &resolved
		}
		inlineName, inlineAddress := "", ""
		if companyID == nil {
			inlineName = companyName
			inlineAddress = e.CompanyAddress
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO work_experiences (id, profile_id, job_title, company_id, company_name, company_address, start_date, end_date, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			common.NewUUID(), userID, e.JobTitle, companyID, inlineName, inlineAddress, e.StartDate, e.EndDate, e.Description)
		if err != nil {
			return common.NewError(common.CodeInternal, "failed to insert work experience", err)
		}
	}
	return nil
}

// getOrCreateCompany resolves a shared company row by exact name. The upsert
// form is race-safe: two transactions inserting the same new name both get the
// single surviving row back.
func (r *ProfileRepository) getOrCreateCompany(ctx context.Context, tx *sql.Tx, name, address string) (common.UUID, error) {
	var id common.UUID
	err := tx.QueryRowContext(ctx, `INSERT INTO companies (id, name, address)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, common.NewUUID(), name, address).Scan(&id)
	if err != nil {
		return "", common.NewError(common.CodeInternal, "failed to resolve company", err)
	}
	return id, nil
}

func (r *ProfileRepository) replaceCertifications(ctx context.Context, tx *sql.Tx, userID common.UUID, entries []profile.CertificationEntry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM certification_entries WHERE profile_id = $1`, userID); err != nil {
		return common.NewError(common.CodeInternal, "failed to clear certifications", err)
	}
	for _, c := range entries {
		_, err := tx.ExecContext(ctx, `INSERT INTO certification_entries (id, profile_id, name, organization, issued_year)
			VALUES ($1, $2, $3, $4, NULLIF($5, 0))`,
			common.NewUUID(), userID, c.Name, c.Organization, c.IssuedYear)
		if err != nil {
			if isUniqueViolation(err) {
				return common.NewValidationError("duplicate certification entry", map[string]string{"certifications": "entries must be unique by name and organization"})
			}
			return common.NewError(common.CodeInternal, "failed to insert certification", err)
		}
	}
	return nil
}

func (r *ProfileRepository) replacePreferences(ctx context.Context, tx *sql.Tx, userID common.UUID, input *profile.PreferencesInput) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM preferences WHERE profile_id = $1`, userID); err != nil {
		return common.NewError(common.CodeInternal, "failed to clear preferences", err)
	}
	if input == nil {
		return nil
	}
	prefID := common.NewUUID()
	_, err := tx.ExecContext(ctx, `INSERT INTO preferences (id, profile_id, salary_min, salary_max)
		VALUES ($1, $2, $3, $4)`, prefID, userID, input.SalaryMin, input.SalaryMax)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to insert preferences", err)
	}
	for _, categoryID := range input.CategoryIDs {
		_, err := tx.ExecContext(ctx, `INSERT INTO preference_categories (preference_id, category_id) VALUES ($1, $2)`, prefID, categoryID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return common.NewValidationError("unknown category", map[string]string{"preferences.category_ids": "category does not exist"})
			}
			return common.NewError(common.CodeInternal, "failed to link category", err)
		}
	}
	for _, locationID := range input.LocationIDs {
		_, err := tx.ExecContext(ctx, `INSERT INTO preference_locations (preference_id, location_id) VALUES ($1, $2)`, prefID, locationID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return common.NewValidationError("unknown location", map[string]string{"preferences.location_ids": "location does not exist"})
			}
			return common.NewError(common.CodeInternal, "failed to link location", err)
		}
	}
	return nil
}

func (r *ProfileRepository) ListApplicants(ctx context.Context, limit, offset int) ([]profile.Profile, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applicant_profiles`).Scan(&total); err != nil {
		return nil, 0, common.NewError(common.CodeInternal, "failed to count applicants", err)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM applicant_profiles ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, common.NewError(common.CodeInternal, "failed to list applicants", err)
	}
	defer rows.Close()
	var ids []common.UUID
	for rows.Next() {
		var id common.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, 0, common.NewError(common.CodeInternal, "failed to scan applicant", err)
		}
		ids = append(ids, id)
	}
	items := make([]profile.Profile, 0, len(ids))
	for _, id := range ids {
		p, err := r.load(ctx, r.db, id)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *p)
	}
	return items, total, nil
}
