package form

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"goodboy-intake/internal/common/logger"
	"goodboy-intake/internal/common/metrics"
)

// knownKeys are the record's top-level JSON keys. Anything else found in a
// saved draft is preserved verbatim across persist cycles but ignored by
// logic, keeping older and newer shapes loadable.
var knownKeys = map[string]bool{
	"contactInfo":         true,
	"projectType":         true,
	"projectDescription":  true,
	"timeline":            true,
	"approximateQuantity": true,
	"selectedProducts":    true,
	"productDetails":      true,
	"customization":       true,
	"customItems":         true,
	"uploadedFiles":       true,
	"status":              true,
	"submissionId":        true,
	"mondayItemId":        true,
	"createdAt":           true,
	"updatedAt":           true,
}

// Patch is a step-scoped partial update. Nil fields mean "no change"; the
// step controller only sets what its step actually extracted.
type Patch struct {
	Contact *Contact

	ProjectType         *string
	ProjectDescription  *string
	Timeline            *string
	ApproximateQuantity *string

	// SelectedProducts replaces the selection wholesale when non-nil.
	// Detail entries for deselected products are pruned on apply.
	SelectedProducts []SelectedProduct

	// ProductDetails replaces the whole detail map when non-nil.
	ProductDetails map[string]ProductDetail

	// Customization is merged key-by-key over the existing preferences.
	Customization map[string]interface{}

	// CustomItems replaces the item list when non-nil (an empty non-nil
	// slice clears it).
	CustomItems []CustomItem

	// UploadedFiles replaces the attachment metadata when non-nil.
	UploadedFiles []FileMeta
}

// Store is the single source of truth for one draft's Record.
// It is constructed explicitly and handed to the components that need it;
// there is no package-level instance. Concurrent requests for the same
// draft share one store, so all record access goes through the mutex.
// Storage failures degrade the store to in-memory-only operation; they are
// logged and never propagated.
type Store struct {
	storage Storage
	key     string
	logger  logger.Logger

	mu     sync.RWMutex
	record Record
	extra  map[string]json.RawMessage
}

// NewStore builds a store for the draft stored under key. Call LoadSaved to
// overlay previously persisted state.
func NewStore(storage Storage, key string, log logger.Logger) *Store {
	return &Store{
		storage: storage,
		key:     key,
		logger:  log.WithFields(map[string]interface{}{"draftKey": key}),
		record:  NewRecord(),
		extra:   map[string]json.RawMessage{},
	}
}

// LoadSaved reads the durable draft and shallow-merges its top-level keys
// over the defaults. Missing or corrupt data keeps the defaults; failure is
// logged, never returned.
func (s *Store) LoadSaved(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.storage.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("loading saved draft failed, starting fresh", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return
	}

	var saved map[string]json.RawMessage
	if err := json.Unmarshal(data, &saved); err != nil {
		s.logger.Warn("saved draft is corrupt, starting fresh", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	// Shallow merge: saved top-level keys overwrite defaults wholesale,
	// absent keys keep their defaults. Nested objects are not backfilled.
	base, err := json.Marshal(s.record)
	if err != nil {
		s.logger.Error("marshal default record failed", map[string]interface{}{"error": err.Error()})
		return
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &merged); err != nil {
		s.logger.Error("remap default record failed", map[string]interface{}{"error": err.Error()})
		return
	}
	extra := map[string]json.RawMessage{}
	for k, v := range saved {
		if knownKeys[k] {
			merged[k] = v
		} else {
			extra[k] = v
		}
	}

	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		s.logger.Error("merge saved draft failed", map[string]interface{}{"error": err.Error()})
		return
	}
	var rec Record
	if err := json.Unmarshal(mergedJSON, &rec); err != nil {
		s.logger.Warn("saved draft has incompatible field types, starting fresh", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	normalize(&rec)
	s.record = rec
	s.extra = extra
}

// MergeStep applies a step's partial update, stamps UpdatedAt and persists.
// Re-applying an identical patch reproduces identical state.
func (s *Store) MergeStep(ctx context.Context, p Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Contact != nil {
		mergeContact(&s.record.Contact, p.Contact)
	}
	if p.ProjectType != nil {
		s.record.ProjectType = *p.ProjectType
	}
	if p.ProjectDescription != nil {
		s.record.ProjectDescription = *p.ProjectDescription
	}
	if p.Timeline != nil {
		s.record.Timeline = *p.Timeline
	}
	if p.ApproximateQuantity != nil {
		s.record.ApproximateQuantity = *p.ApproximateQuantity
	}
	if p.SelectedProducts != nil {
		s.record.SelectedProducts = append([]SelectedProduct(nil), p.SelectedProducts...)
		s.pruneDetails()
	}
	if p.ProductDetails != nil {
		details := make(map[string]ProductDetail, len(p.ProductDetails))
		for k, v := range p.ProductDetails {
			details[k] = v
		}
		s.record.ProductDetails = details
		s.pruneDetails()
	}
	if p.Customization != nil {
		for k, v := range p.Customization {
			s.record.Customization[k] = v
		}
	}
	if p.CustomItems != nil {
		s.record.CustomItems = append([]CustomItem(nil), p.CustomItems...)
	}
	if p.UploadedFiles != nil {
		s.record.UploadedFiles = append([]FileMeta(nil), p.UploadedFiles...)
	}

	s.touch()
	s.persistLocked(ctx)
}

// MarkSubmitted stamps the external identifiers and flips the draft to
// submitted. Called by the submission flow after a successful create.
func (s *Store) MarkSubmitted(ctx context.Context, submissionID, mondayItemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record.Status = StatusSubmitted
	s.record.SubmissionID = submissionID
	s.record.MondayItemID = mondayItemID
	s.touch()
	s.persistLocked(ctx)
}

// Persist serializes the whole record to durable storage. Failures (storage
// down, quota) are logged and swallowed: the session keeps working from
// memory.
func (s *Store) Persist(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.persistLocked(ctx)
}

// persistLocked is Persist with the mutex already held.
func (s *Store) persistLocked(ctx context.Context) {
	payload := map[string]json.RawMessage{}
	for k, v := range s.extra {
		payload[k] = v
	}
	recJSON, err := json.Marshal(s.record)
	if err != nil {
		s.logger.Error("marshal draft failed", map[string]interface{}{"error": err.Error()})
		return
	}
	var recMap map[string]json.RawMessage
	if err := json.Unmarshal(recJSON, &recMap); err != nil {
		s.logger.Error("remap draft failed", map[string]interface{}{"error": err.Error()})
		return
	}
	for k, v := range recMap {
		payload[k] = v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshal draft payload failed", map[string]interface{}{"error": err.Error()})
		return
	}

	if err := s.storage.Save(ctx, s.key, data); err != nil {
		metrics.DraftPersistFailures.Inc()
		s.logger.Warn("persisting draft failed, continuing in memory", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Clear erases the durable draft and resets the in-memory record.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(ctx, s.key); err != nil {
		s.logger.Warn("clearing stored draft failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.record = NewRecord()
	s.extra = map[string]json.RawMessage{}
}

// Record returns a copy of the current draft.
func (s *Store) Record() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Clone()
}

// IsComplete reports whether the draft can reach review: contact email and
// name, a project type and at least one product. Coarser than per-step
// validation.
func (s *Store) IsComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Contact.Email != "" &&
		s.record.Contact.ContactName != "" &&
		s.record.ProjectType != "" &&
		len(s.record.SelectedProducts) > 0
}

// CompletionPercentage counts satisfied checkpoints out of a fixed set of 8.
func (s *Store) CompletionPercentage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	completed := 0
	const total = 8

	if s.record.Contact.Email != "" && s.record.Contact.ContactName != "" {
		completed++
	}
	if s.record.ProjectType != "" {
		completed++
	}
	if len(s.record.SelectedProducts) > 0 {
		completed++
	}
	if len(s.record.ProductDetails) > 0 {
		completed++
	}
	if s.record.HasCustomization() {
		completed++
	}
	if len(s.record.CustomItems) > 0 {
		completed++
	}
	if len(s.record.UploadedFiles) > 0 {
		completed++
	}
	if s.record.SubmissionID != "" {
		completed++
	}

	return int(float64(completed)/float64(total)*100 + 0.5)
}

func (s *Store) touch() {
	now := time.Now().UTC()
	if now.After(s.record.UpdatedAt) {
		s.record.UpdatedAt = now
	}
}

// pruneDetails drops detail entries whose product is no longer selected.
// Stale entries have no way to be edited or removed once the product is
// gone, so they are pruned on deselect.
func (s *Store) pruneDetails() {
	for id := range s.record.ProductDetails {
		if !s.record.IsSelected(id) {
			delete(s.record.ProductDetails, id)
		}
	}
}

// mergeContact keeps existing values when the incoming field is empty,
// mirroring the step extraction rule that explicit non-empty values win and
// absent fields change nothing.
func mergeContact(dst, src *Contact) {
	if src.Email != "" {
		dst.Email = src.Email
	}
	if src.ContactName != "" {
		dst.ContactName = src.ContactName
	}
	if src.CompanyName != "" {
		dst.CompanyName = src.CompanyName
	}
	if src.Phone != "" {
		dst.Phone = src.Phone
	}
	if src.ReferralSource != "" {
		dst.ReferralSource = src.ReferralSource
	}
}

// normalize repairs nil collections after a load so the rest of the code
// can index and append without nil checks.
func normalize(r *Record) {
	if r.SelectedProducts == nil {
		r.SelectedProducts = []SelectedProduct{}
	}
	if r.ProductDetails == nil {
		r.ProductDetails = map[string]ProductDetail{}
	}
	if r.Customization == nil {
		r.Customization = map[string]interface{}{}
	}
	if r.CustomItems == nil {
		r.CustomItems = []CustomItem{}
	}
	if r.UploadedFiles == nil {
		r.UploadedFiles = []FileMeta{}
	}
	if r.Status == "" {
		r.Status = StatusDraft
	}
}
