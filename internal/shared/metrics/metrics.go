package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification engine. Draft
// save failures never surface to the caller, so counters are the only
// place they become visible.
type Metrics struct {
	DraftSaves        *prometheus.CounterVec
	DraftRestores     *prometheus.CounterVec
	UploadOutcomes    *prometheus.CounterVec
	UploadRetries     prometheus.Counter
	StepsCompleted    prometheus.Counter
	SubmissionsFailed prometheus.Counter
}

// New creates a Metrics instance registered on the given registerer.
// Pass prometheus.DefaultRegisterer in production; a fresh registry in
// tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DraftSaves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sanduq_verify_draft_saves_total",
			Help: "Draft snapshot writes by outcome",
		}, []string{"outcome"}), // outcome: "ok", "error", "skipped"

		DraftRestores: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sanduq_verify_draft_restores_total",
			Help: "Draft restore attempts by outcome",
		}, []string{"outcome"}), // outcome: "ok", "empty", "corrupt", "out_of_bounds", "error"

		UploadOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sanduq_verify_document_uploads_total",
			Help: "Document upload attempts by outcome",
		}, []string{"outcome"}), // outcome: "ok", "error", "rejected"

		UploadRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "sanduq_verify_document_upload_retries_total",
			Help: "Document upload retries from the error state",
		}),

		StepsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "sanduq_verify_steps_completed_total",
			Help: "Verification steps successfully completed",
		}),

		SubmissionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "sanduq_verify_submissions_failed_total",
			Help: "Step submissions that failed in the persistence phase",
		}),
	}
}

// ObserveDraftSave records one draft write outcome.
func (m *Metrics) ObserveDraftSave(outcome string) {
	if m != nil {
		m.DraftSaves.WithLabelValues(outcome).Inc()
	}
}

// ObserveDraftRestore records one restore outcome.
func (m *Metrics) ObserveDraftRestore(outcome string) {
	if m != nil {
		m.DraftRestores.WithLabelValues(outcome).Inc()
	}
}

// ObserveUpload records one upload outcome.
func (m *Metrics) ObserveUpload(outcome string) {
	if m != nil {
		m.UploadOutcomes.WithLabelValues(outcome).Inc()
	}
}

// IncUploadRetries counts a retry from the error state.
func (m *Metrics) IncUploadRetries() {
	if m != nil {
		m.UploadRetries.Inc()
	}
}

// IncStepsCompleted counts a completed step.
func (m *Metrics) IncStepsCompleted() {
	if m != nil {
		m.StepsCompleted.Inc()
	}
}

// IncSubmissionsFailed counts a submission persistence failure.
func (m *Metrics) IncSubmissionsFailed() {
	if m != nil {
		m.SubmissionsFailed.Inc()
	}
}
