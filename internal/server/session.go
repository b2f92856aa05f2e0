package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"goodboy-intake/internal/attachments"
	"goodboy-intake/internal/common/config"
	"goodboy-intake/internal/common/logger"
	"goodboy-intake/internal/form"
)

const draftCookie = "draft_id"

// session is one draft's working set: its form store and its attachment
// manager, both scoped to the draft id.
type session struct {
	draftID string
	store   *form.Store
	files   *attachments.Manager
}

// sessionRegistry hands out sessions by draft id, creating them lazily.
// The store loads its saved draft on first touch, so a returning customer
// resumes where they left off.
type sessionRegistry struct {
	storage form.Storage
	limits  attachments.Limits
	logger  logger.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionRegistry(storage form.Storage, uploads config.UploadsConfig, log logger.Logger) *sessionRegistry {
	return &sessionRegistry{
		storage: storage,
		limits: attachments.Limits{
			MaxFileBytes: uploads.MaxFileBytes,
			MaxFiles:     uploads.MaxFiles,
			AllowedTypes: uploads.AllowedTypes,
		},
		logger:   log,
		sessions: map[string]*session{},
	}
}

func (r *sessionRegistry) get(ctx context.Context, draftID string) *session {
	r.mu.RLock()
	s, ok := r.sessions[draftID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[draftID]; ok {
		return s
	}

	store := form.NewStore(r.storage, "draft:"+draftID, r.logger)
	store.LoadSaved(ctx)
	s = &session{
		draftID: draftID,
		store:   store,
		files:   attachments.New(r.limits, store, r.logger),
	}
	r.sessions[draftID] = s
	return s
}

func (r *sessionRegistry) drop(draftID string) {
	r.mu.Lock()
	delete(r.sessions, draftID)
	r.mu.Unlock()
}

// draftID reads the draft cookie, minting a new id (and setting the
// cookie) when absent or malformed.
func draftID(w http.ResponseWriter, req *http.Request) string {
	if c, err := req.Cookie(draftCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     draftCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
	return id
}
