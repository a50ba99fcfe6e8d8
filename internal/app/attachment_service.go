package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"taskpay/internal/common"
	"taskpay/internal/domain/attachment"
	"taskpay/internal/storage"
)

// sniffedTypes maps an allowed resume extension to the content types the
// first bytes of the file may detect as. A docx is a zip container and a
// legacy doc is an OLE blob, so the sniffer never reports the declared type
// for those.
var sniffedTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage", "application/octet-stream"},
	".docx": {"application/zip", "application/octet-stream"},
}

type AttachmentService struct {
	repo     attachment.Repository
	files    storage.FileStore
	logger   Logger
	maxBytes int64
}

func NewAttachmentService(repo attachment.Repository, files storage.FileStore, logger Logger, maxBytes int64) *AttachmentService {
	return &AttachmentService{repo: repo, files: files, logger: logger, maxBytes: maxBytes}
}

func (s *AttachmentService) Get(ctx context.Context, userID common.UUID) (*attachment.Attachment, error) {
	return s.repo.GetByUser(ctx, userID)
}

// ReplaceResume swaps the user's resume for a new one. At most one record per
// user survives: the old file and record are removed first, then the new file
// is written and recorded. A failed record insert removes the freshly written
// file so no orphan is left on disk.
func (s *AttachmentService) ReplaceResume(ctx context.Context, userID common.UUID, fileName, declaredType string, size int64, r io.Reader) (*attachment.Attachment, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	allowed, ok := sniffedTypes[ext]
	if !ok {
		return nil, common.NewValidationError("invalid resume", map[string]string{"file": "only pdf, doc and docx files are accepted"})
	}
	if size > s.maxBytes {
		return nil, common.NewValidationError("invalid resume", map[string]string{"file": fmt.Sprintf("file exceeds %d bytes", s.maxBytes)})
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, common.NewError(common.CodeInternal, "failed to read upload", err)
	}
	head = head[:n]
	if !typeAllowed(http.DetectContentType(head), allowed) {
		return nil, common.NewValidationError("invalid resume", map[string]string{"file": "file content does not match its extension"})
	}

	if existing, err := s.repo.GetByUser(ctx, userID); err == nil && existing != nil {
		// The file may already be gone; a dangling record must not block the
		// replacement.
		if err := s.files.Remove(existing.Path); err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to remove previous resume", err)
		}
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			return nil, err
		}
	} else if err != nil && !common.Is(err, common.CodeNotFound) {
		return nil, err
	}

	storedName := fmt.Sprintf("user_%s_%d%s", userID, time.Now().UTC().UnixNano(), ext)
	body := io.MultiReader(bytes.NewReader(head), io.LimitReader(r, s.maxBytes-int64(len(head))))
	path, err := s.files.Save(storedName, body)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to store resume", err)
	}

	created, err := s.repo.Create(ctx, attachment.Attachment{
		UserID:      userID,
		FileName:    fileName,
		Path:        path,
		ContentType: declaredType,
		Size:        size,
	})
	if err != nil {
		// Compensate so disk and database stay in step.
		_ = s.files.Remove(path)
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info(fmt.Sprintf("resume replaced user_id=%s attachment_id=%s", userID, created.ID))
	}
	return created, nil
}

func typeAllowed(detected string, allowed []string) bool {
	for _, t := range allowed {
		if strings.HasPrefix(detected, t) {
			return true
		}
	}
	return false
}
