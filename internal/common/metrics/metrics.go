package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StepsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_steps_saved_total",
			Help: "Total number of step extractions merged into drafts",
		},
		[]string{"step"},
	)

	StepValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_step_validation_failures_total",
			Help: "Total number of failed step validations",
		},
		[]string{"step"},
	)

	FilesAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_files_accepted_total",
			Help: "Total number of attachments accepted at intake",
		},
	)

	FilesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_files_rejected_total",
			Help: "Total number of attachments rejected at intake",
		},
		[]string{"reason"},
	)

	DraftPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_draft_persist_failures_total",
			Help: "Total number of swallowed draft persistence failures",
		},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Total number of submission attempts by outcome",
		},
		[]string{"outcome"},
	)

	SubmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "intake_submission_duration_seconds",
			Help: "Duration of full submission attempts in seconds",
		},
	)
)
