package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"goodboy-intake/internal/attachments"
	stderrors "goodboy-intake/internal/common/errors"
	"goodboy-intake/internal/common/metrics"
	"goodboy-intake/internal/steps"
)

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(r.Context(), draftID(w, r))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"record":     sess.store.Record(),
		"completion": sess.store.CompletionPercentage(),
		"isComplete": sess.store.IsComplete(),
	})
}

func (s *Server) handleClearDraft(w http.ResponseWriter, r *http.Request) {
	id := draftID(w, r)
	sess := s.sessions.get(r.Context(), id)
	sess.files.ClearAll(r.Context())
	sess.store.Clear(r.Context())
	s.sessions.drop(id)
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (s *Server) handleGetStep(w http.ResponseWriter, r *http.Request) {
	step := steps.StepID(chi.URLParam(r, "step"))
	if !steps.Valid(step) {
		writeError(w, http.StatusNotFound, "unknown step")
		return
	}
	sess := s.sessions.get(r.Context(), draftID(w, r))

	fields := steps.NewFields(nil)
	s.controller.Populate(step, sess.store.Record(), fields)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"step":       step,
		"fields":     fields.Encoded(),
		"completion": sess.store.CompletionPercentage(),
	})
}

// handlePutStep saves one step's form-encoded fields. With ?advance=true
// the step is validated first and a violation comes back as 422 without
// blocking later saves.
func (s *Server) handlePutStep(w http.ResponseWriter, r *http.Request) {
	step := steps.StepID(chi.URLParam(r, "step"))
	if !steps.Valid(step) {
		writeError(w, http.StatusNotFound, "unknown step")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form body")
		return
	}

	sess := s.sessions.get(r.Context(), draftID(w, r))
	patch := s.controller.Extract(step, steps.NewFields(r.PostForm), sess.store.Record())
	sess.store.MergeStep(r.Context(), patch)
	metrics.StepsSaved.WithLabelValues(string(step)).Inc()

	response := map[string]interface{}{
		"step":       step,
		"completion": sess.store.CompletionPercentage(),
	}

	if r.URL.Query().Get("advance") == "true" {
		v := sess.store.ValidateStep(string(step))
		if !v.Valid {
			metrics.StepValidationFailures.WithLabelValues(string(step)).Inc()
			response["valid"] = false
			response["message"] = v.Message
			writeJSON(w, http.StatusUnprocessableEntity, response)
			return
		}
		response["valid"] = true
		response["next"] = steps.Next(step)
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(r.Context(), draftID(w, r))

	if err := r.ParseMultipartForm(s.cfg.Uploads.MaxFileBytes + 1<<20); err != nil {
		writeError(w, http.StatusBadRequest, "malformed multipart body")
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		writeError(w, http.StatusBadRequest, "no files in request")
		return
	}

	var incoming []attachments.Incoming
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file part")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file part")
			return
		}
		incoming = append(incoming, attachments.Incoming{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	accepted, rejected := sess.files.Intake(r.Context(), incoming)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accepted": accepted,
		"rejected": rejected,
	})
}

func (s *Server) handleFilePreview(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(r.Context(), draftID(w, r))

	preview, ok := sess.files.Preview(chi.URLParam(r, "fileID"))
	if !ok {
		writeError(w, http.StatusNotFound, "no preview for this file")
		return
	}
	w.Header().Set("Content-Type", preview.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(preview.Data)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(r.Context(), draftID(w, r))
	sess.files.Remove(r.Context(), chi.URLParam(r, "fileID"))
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id := draftID(w, r)
	sess := s.sessions.get(r.Context(), id)

	if !sess.store.IsComplete() {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"valid":   false,
			"message": "Please complete the required steps before submitting",
		})
		return
	}

	result := s.submitter.Submit(r.Context(), id, sess.store, sess.files)
	if !result.Success {
		writeJSON(w, submitStatus(result.Err), result)
		return
	}

	rec := sess.store.Record()
	s.notifier.SubmissionConfirmed(r.Context(), rec.Contact.Email, rec.Contact.ContactName, result.ItemName)

	writeJSON(w, http.StatusOK, result)
}

func submitStatus(err error) int {
	var stdErr *stderrors.StandardError
	if errors.As(err, &stdErr) {
		switch stdErr.Code {
		case stderrors.ErrCodeSubmissionInFlight, stderrors.ErrCodeDraftAlreadySubmitted:
			return http.StatusConflict
		}
	}
	return http.StatusBadGateway
}
