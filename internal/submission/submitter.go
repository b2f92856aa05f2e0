// Package submission drives the one-time conversion of a completed draft
// into Monday.com calls: create the item, post the narrative, flush the
// attachments, and report one aggregate result.
package submission

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"goodboy-intake/internal/attachments"
	"goodboy-intake/internal/catalog"
	"goodboy-intake/internal/common/errors"
	"goodboy-intake/internal/common/logger"
	"goodboy-intake/internal/common/metrics"
	"goodboy-intake/internal/form"
	"goodboy-intake/internal/monday"
)

// Phase is the submission state machine position.
type Phase string

const (
	PhaseNotStarted           Phase = "not_started"
	PhaseCreatingRecord       Phase = "creating_record"
	PhaseAddingNarrative      Phase = "adding_narrative"
	PhaseUploadingAttachments Phase = "uploading_attachments"
	PhaseDone                 Phase = "done"
	PhaseFailed               Phase = "failed"
)

// API is the slice of the Monday client the submitter consumes.
type API interface {
	CreateItem(ctx context.Context, name string) (*monday.Item, error)
	CreateUpdate(ctx context.Context, itemID, body string) (*monday.Update, error)
	AddFileToItem(ctx context.Context, itemID, filename, contentType string, data []byte) (*monday.File, error)
}

// Draft is the slice of the form store the submitter needs: a snapshot to
// submit and the status flip on success. The flip happens inside the
// in-flight guard, so a later attempt can never observe a created item
// behind a still-draft record.
type Draft interface {
	Record() form.Record
	MarkSubmitted(ctx context.Context, submissionID, mondayItemID string)
}

// Result is the aggregate outcome of one submission attempt. A created item
// with a failed narrative still counts as success; the item exists and can
// be reconciled manually.
type Result struct {
	Success         bool                     `json:"success"`
	Phase           Phase                    `json:"phase"`
	SubmissionID    string                   `json:"submissionId,omitempty"`
	ItemID          string                   `json:"itemId,omitempty"`
	ItemURL         string                   `json:"itemUrl,omitempty"`
	ItemName        string                   `json:"itemName,omitempty"`
	NarrativePosted bool                     `json:"narrativePosted"`
	Uploads         []attachments.FileResult `json:"uploads,omitempty"`
	Err             error                    `json:"-"`
	Error           string                   `json:"error,omitempty"`
}

// Submitter guards each draft against concurrent or repeated submission.
// Monday.com offers no idempotency key, so at-most-once is enforced here:
// a second Submit for a draft that is in flight or already submitted is
// refused before any external call.
type Submitter struct {
	api     API
	catalog *catalog.Catalog
	logger  logger.Logger
	now     func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
}

func New(api API, cat *catalog.Catalog, log logger.Logger) *Submitter {
	return &Submitter{
		api:      api,
		catalog:  cat,
		logger:   log,
		now:      time.Now,
		inFlight: map[string]bool{},
	}
}

// Submit runs the state machine for one draft. files may be nil when the
// draft has no attachments. On success the draft is marked submitted
// before the in-flight guard is released.
func (s *Submitter) Submit(ctx context.Context, draftID string, draft Draft, files *attachments.Manager) Result {
	s.mu.Lock()
	if s.inFlight[draftID] {
		s.mu.Unlock()
		return failed(PhaseNotStarted, errors.NewSubmissionGuardError(
			errors.ErrCodeSubmissionInFlight, "A submission for this order is already running"))
	}
	s.inFlight[draftID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, draftID)
		s.mu.Unlock()
	}()

	// Read the record under the guard: a completed earlier attempt has
	// already flipped the status by the time its guard slot is free.
	rec := draft.Record()
	if rec.Status == form.StatusSubmitted {
		return failed(PhaseNotStarted, errors.NewSubmissionGuardError(
			errors.ErrCodeDraftAlreadySubmitted, "This order has already been submitted"))
	}

	attempt := uuid.NewString()
	log := s.logger.WithFields(map[string]interface{}{
		"draftId": draftID,
		"attempt": attempt,
	})

	start := s.now()
	result := s.run(ctx, log, rec, files)
	metrics.SubmissionDuration.Observe(s.now().Sub(start).Seconds())

	if result.Success {
		result.SubmissionID = uuid.NewString()
		draft.MarkSubmitted(ctx, result.SubmissionID, result.ItemID)
		metrics.Submissions.WithLabelValues("success").Inc()
	} else {
		metrics.Submissions.WithLabelValues("failed").Inc()
	}
	return result
}

func (s *Submitter) run(ctx context.Context, log logger.Logger, rec form.Record, files *attachments.Manager) Result {
	// CreatingRecord: the only step whose failure aborts the attempt.
	title := s.Title(rec)
	log.Info("creating monday item", map[string]interface{}{"title": title})

	item, err := s.api.CreateItem(ctx, title)
	if err != nil {
		log.WithError(err).Error("creating monday item failed", nil)
		return failed(PhaseCreatingRecord, errors.NewMondayError(
			errors.ErrCodeMondayCreateFailed, err.Error()))
	}

	result := Result{
		Success:  true,
		ItemID:   item.ID,
		ItemURL:  item.URL,
		ItemName: item.Name,
	}

	// AddingNarrative: a created-but-undocumented item beats no item.
	if _, err := s.api.CreateUpdate(ctx, item.ID, Narrative(rec, s.catalog, s.now())); err != nil {
		log.WithError(err).Warn("posting narrative failed, item kept", map[string]interface{}{
			"itemId": item.ID,
		})
	} else {
		result.NarrativePosted = true
	}

	// UploadingAttachments: best-effort per file.
	if files != nil {
		result.Uploads = files.FlushToRemote(ctx, item.ID, func(ctx context.Context, itemID, filename, contentType string, data []byte) (string, string, error) {
			f, err := s.api.AddFileToItem(ctx, itemID, filename, contentType, data)
			if err != nil {
				return "", "", err
			}
			return f.ID, f.URL, nil
		})
	}

	result.Phase = PhaseDone
	log.Info("submission complete", map[string]interface{}{
		"itemId":          item.ID,
		"narrativePosted": result.NarrativePosted,
		"uploads":         len(result.Uploads),
	})
	return result
}

// Title builds the human-readable item name: customer, project type and
// date. A missing contact name becomes "Quote Request"; an unknown project
// type keeps its raw id.
func (s *Submitter) Title(rec form.Record) string {
	name := rec.Contact.ContactName
	if name == "" {
		name = "Quote Request"
	}
	return name + " - " + s.catalog.ProjectTypeTitle(rec.ProjectType) + " (" + s.now().Format("2006-01-02") + ")"
}

func failed(phase Phase, err error) Result {
	return Result{Phase: phase, Err: err, Error: err.Error()}
}
