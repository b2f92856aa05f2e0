// Package attachments handles intake, validation and tracking of the logo
// files a customer attaches to a draft. Binary content stays in this
// package's memory for the session; only metadata reaches the form store.
package attachments

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"goodboy-intake/internal/common/errors"
	"goodboy-intake/internal/common/logger"
	"goodboy-intake/internal/common/metrics"
	"goodboy-intake/internal/form"
)

// Limits are the intake rules: attachment count, per-file size and the
// content-type allow-list.
type Limits struct {
	MaxFileBytes int64
	MaxFiles     int
	AllowedTypes []string
}

// Incoming is one file as received from the transport layer.
type Incoming struct {
	Name        string
	ContentType string
	Data        []byte
}

// Rejection explains why one incoming file was not accepted.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Preview is an in-session display handle for an accepted image. It lives
// until the attachment is removed, cleared or uploaded.
type Preview struct {
	ContentType string
	Data        []byte
}

// FileResult is the per-file outcome of a remote flush.
type FileResult struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Status form.FileStatus `json:"status"`
	Error  string          `json:"error,omitempty"`
}

// UploadFunc is the external upload primitive the flush delegates to.
type UploadFunc func(ctx context.Context, itemID, filename, contentType string, data []byte) (fileID, fileURL string, err error)

type held struct {
	data    []byte
	preview *Preview
}

// Manager owns the binary side of a draft's attachments. Metadata lives in
// the form store; the byte slices and preview handles never leave here.
type Manager struct {
	limits Limits
	store  *form.Store
	logger logger.Logger

	mu   sync.Mutex
	held map[string]*held
	now  func() time.Time
}

func New(limits Limits, store *form.Store, log logger.Logger) *Manager {
	return &Manager{
		limits: limits,
		store:  store,
		logger: log,
		held:   map[string]*held{},
		now:    time.Now,
	}
}

// Intake validates a batch. The whole batch is rejected when it would push
// the attachment count over the limit; otherwise each file is checked
// independently and the valid subset is accepted.
func (m *Manager) Intake(ctx context.Context, files []Incoming) (accepted []form.FileMeta, rejected []Rejection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.store.Record().UploadedFiles
	if len(current)+len(files) > m.limits.MaxFiles {
		reason := fmt.Sprintf("Maximum %d files allowed", m.limits.MaxFiles)
		for _, f := range files {
			rejected = append(rejected, Rejection{Name: f.Name, Reason: reason})
			metrics.FilesRejected.WithLabelValues("count").Inc()
		}
		return nil, rejected
	}

	names := make(map[string]bool, len(current))
	for _, f := range current {
		names[f.Name] = true
	}

	for _, f := range files {
		if err := m.validate(f, names); err != nil {
			rejected = append(rejected, Rejection{Name: f.Name, Reason: err.Message})
			metrics.FilesRejected.WithLabelValues(rejectReason(err.Code)).Inc()
			continue
		}
		meta := m.accept(f)
		names[f.Name] = true
		accepted = append(accepted, meta)
		metrics.FilesAccepted.Inc()
	}

	if len(accepted) > 0 {
		m.persist(ctx, append(copyMetas(current), accepted...))
	}
	return accepted, rejected
}

func (m *Manager) validate(f Incoming, names map[string]bool) *errors.StandardError {
	if !m.typeAllowed(f.ContentType) {
		return errors.NewFileRejectedError(errors.ErrCodeFileTypeRejected, f.Name,
			"File type not supported. Please upload PNG, JPG, SVG, or PDF files.")
	}
	if int64(len(f.Data)) > m.limits.MaxFileBytes {
		return errors.NewFileRejectedError(errors.ErrCodeFileTooLarge, f.Name,
			fmt.Sprintf("File size must be less than %dMB", m.limits.MaxFileBytes/(1024*1024)))
	}
	if names[f.Name] {
		return errors.NewFileRejectedError(errors.ErrCodeFileDuplicate, f.Name,
			"A file with this name has already been uploaded")
	}
	return nil
}

func (m *Manager) accept(f Incoming) form.FileMeta {
	id := fmt.Sprintf("file-%d-%s", m.now().UnixMilli(), uuid.NewString()[:8])

	h := &held{data: f.Data}
	if strings.HasPrefix(f.ContentType, "image/") {
		h.preview = &Preview{ContentType: f.ContentType, Data: f.Data}
	}
	m.held[id] = h

	return form.FileMeta{
		ID:          id,
		Name:        f.Name,
		Size:        int64(len(f.Data)),
		ContentType: f.ContentType,
		Status:      form.FileProcessed,
		HasPreview:  h.preview != nil,
		UploadedAt:  m.now().UTC(),
	}
}

// Preview returns the display handle for an attachment, if one exists.
func (m *Manager) Preview(id string) (*Preview, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.held[id]
	if !ok || h.preview == nil {
		return nil, false
	}
	return h.preview, true
}

// Remove drops one attachment: metadata, binary and preview handle.
func (m *Manager) Remove(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.release(id)

	var kept []form.FileMeta
	for _, f := range m.store.Record().UploadedFiles {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	if kept == nil {
		kept = []form.FileMeta{}
	}
	m.persist(ctx, kept)
}

// ClearAll drops every attachment and its handles.
func (m *Manager) ClearAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id := range m.held {
		m.release(id)
	}
	m.persist(ctx, []form.FileMeta{})
}

// FlushToRemote uploads every attachment still holding a binary with status
// processed. Per-file failures are recorded and the rest continue; partial
// success is expected. Successful uploads drop the binary and preview.
func (m *Manager) FlushToRemote(ctx context.Context, itemID string, upload UploadFunc) []FileResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	metas := copyMetas(m.store.Record().UploadedFiles)
	var results []FileResult

	for i := range metas {
		meta := &metas[i]
		h, ok := m.held[meta.ID]
		if meta.Status != form.FileProcessed || !ok || meta.MondayFileID != "" {
			continue
		}

		meta.Status = form.FileUploading
		fileID, fileURL, err := upload(ctx, itemID, meta.Name, meta.ContentType, h.data)
		if err != nil {
			meta.Status = form.FileFailed
			m.logger.WithError(err).Error("attachment upload failed", map[string]interface{}{
				"fileName": meta.Name,
				"itemId":   itemID,
			})
			results = append(results, FileResult{ID: meta.ID, Name: meta.Name, Status: form.FileFailed, Error: err.Error()})
			continue
		}

		meta.Status = form.FileUploaded
		meta.MondayFileID = fileID
		meta.URL = fileURL
		m.release(meta.ID)
		results = append(results, FileResult{ID: meta.ID, Name: meta.Name, Status: form.FileUploaded})
	}

	m.persist(ctx, metas)
	return results
}

// release is idempotent; a second release of the same id is a no-op.
func (m *Manager) release(id string) {
	if h, ok := m.held[id]; ok {
		h.preview = nil
		h.data = nil
		delete(m.held, id)
	}
}

func (m *Manager) persist(ctx context.Context, metas []form.FileMeta) {
	m.store.MergeStep(ctx, form.Patch{UploadedFiles: metas})
}

func (m *Manager) typeAllowed(contentType string) bool {
	for _, t := range m.limits.AllowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

func copyMetas(metas []form.FileMeta) []form.FileMeta {
	return append([]form.FileMeta{}, metas...)
}

func rejectReason(code errors.ErrorCode) string {
	switch code {
	case errors.ErrCodeFileTypeRejected:
		return "type"
	case errors.ErrCodeFileTooLarge:
		return "size"
	case errors.ErrCodeFileDuplicate:
		return "duplicate"
	default:
		return "other"
	}
}
