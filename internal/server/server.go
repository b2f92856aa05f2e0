// Package server is the HTTP surface of the intake service: draft state,
// step save/load, attachment intake and the submit endpoint.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"goodboy-intake/internal/catalog"
	"goodboy-intake/internal/common/config"
	"goodboy-intake/internal/common/logger"
	"goodboy-intake/internal/form"
	"goodboy-intake/internal/notify"
	"goodboy-intake/internal/steps"
	"goodboy-intake/internal/submission"
)

type Server struct {
	cfg        config.Config
	logger     logger.Logger
	catalog    *catalog.Catalog
	sessions   *sessionRegistry
	controller *steps.Controller
	submitter  *submission.Submitter
	notifier   *notify.EmailNotifier
}

func New(
	cfg config.Config,
	cat *catalog.Catalog,
	storage form.Storage,
	submitter *submission.Submitter,
	notifier *notify.EmailNotifier,
	log logger.Logger,
) *Server {
	return &Server{
		cfg:        cfg,
		logger:     log,
		catalog:    cat,
		sessions:   newSessionRegistry(storage, cfg.Uploads, log),
		controller: steps.NewController(cat, log),
		submitter:  submitter,
		notifier:   notifier,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(recovery(s.logger))
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)

		r.Get("/draft", s.handleGetDraft)
		r.Delete("/draft", s.handleClearDraft)

		r.Get("/steps/{step}", s.handleGetStep)
		r.Put("/steps/{step}", s.handlePutStep)

		r.Post("/files", s.handleUploadFiles)
		r.Get("/files/{fileID}/preview", s.handleFilePreview)
		r.Delete("/files/{fileID}", s.handleDeleteFile)

		r.Post("/submit", s.handleSubmit)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.cfg.App.Name,
		"version": s.cfg.App.Version,
	})
}
