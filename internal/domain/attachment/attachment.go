package attachment

import (
	"context"
	"time"

	"taskpay/internal/common"
)

type Attachment struct {
	ID          common.UUID `json:"id"`
	UserID      common.UUID `json:"user_id"`
	FileName    string      `json:"file_name"`
	Path        string      `json:"path"`
	ContentType string      `json:"content_type"`
	Size        int64       `json:"size"`
	CreatedAt   time.Time   `json:"created_at"`
}

type Repository interface {
	GetByUser(ctx context.Context, userID common.UUID) (*Attachment, error)
	Create(ctx context.Context, att Attachment) (*Attachment, error)
	Delete(ctx context.Context, id common.UUID) error
}
