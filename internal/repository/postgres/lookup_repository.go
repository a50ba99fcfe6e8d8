package postgres

import (
	"context"
	"database/sql"

	"taskpay/internal/common"
	"taskpay/internal/domain/lookup"
)

type LookupRepository struct {
	db *sql.DB
}

func NewLookupRepository(db *sql.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

func (r *LookupRepository) ListCategories(ctx context.Context) ([]lookup.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM job_categories ORDER BY name`)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list categories", err)
	}
	defer rows.Close()
	items := []lookup.Category{}
	for rows.Next() {
		var c lookup.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan category", err)
		}
		items = append(items, c)
	}
	return items, nil
}

func (r *LookupRepository) ListLocations(ctx context.Context) ([]lookup.Location, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM locations ORDER BY name`)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list locations", err)
	}
	defer rows.Close()
	items := []lookup.Location{}
	for rows.Next() {
		var l lookup.Location
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan location", err)
		}
		items = append(items, l)
	}
	return items, nil
}
