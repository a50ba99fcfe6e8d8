package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"taskpay/internal/common"
	"taskpay/internal/domain/attachment"
)

type AttachmentRepository struct {
	db *sql.DB
}

func NewAttachmentRepository(db *sql.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) GetByUser(ctx context.Context, userID common.UUID) (*attachment.Attachment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, file_name, path, content_type, size, created_at
		FROM attachments WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID)
	var att attachment.Attachment
	if err := row.Scan(&att.ID, &att.UserID, &att.FileName, &att.Path, &att.ContentType, &att.Size, &att.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "attachment not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to load attachment", err)
	}
	return &att, nil
}

func (r *AttachmentRepository) Create(ctx context.Context, att attachment.Attachment) (*attachment.Attachment, error) {
	att.ID = common.NewUUID()
	att.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `INSERT INTO attachments (id, user_id, file_name, path, content_type, size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		att.ID, att.UserID, att.FileName, att.Path, att.ContentType, att.Size, att.CreatedAt)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to create attachment", err)
	}
	return &att, nil
}

func (r *AttachmentRepository) Delete(ctx context.Context, id common.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to delete attachment", err)
	}
	return nil
}
