package verification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"SanduqVerify/internal/core/domain"
	"SanduqVerify/internal/core/ports"
	"SanduqVerify/internal/shared/metrics"
)

// ControllerConfig bundles the engine tunables the controller needs.
type ControllerConfig struct {
	Steps           []domain.StepDefinition
	LevelThresholds LevelThresholds
	AutosaveDelay   time.Duration
	Upload          UploadLimits
}

// VerificationSessionController orchestrates the engine and is the
// only object the UI layer talks to. It owns the session exclusively;
// everything it hands out is a copy. All I/O capabilities (draft
// store, upload transport) are injected.
type VerificationSessionController struct {
	mu         sync.Mutex
	log        zerolog.Logger
	sequencer  *StepSequencer
	drafts     *DraftPersistenceManager
	uploads    *DocumentUploadTracker
	bus        ports.EventBus
	metrics    *metrics.Metrics
	session    *domain.VerificationSession
	submitting bool
	closed     bool
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewController wires the engine together. The returned controller
// starts with a fresh session; call RestoreOrInit right after
// construction to pick up a saved draft. ctx bounds every background
// store and transport call; Close cancels it.
func NewController(
	ctx context.Context,
	cfg ControllerConfig,
	store ports.DraftStore,
	transport ports.UploadTransport,
	bus ports.EventBus,
	m *metrics.Metrics,
	baseLogger *zerolog.Logger,
) (*VerificationSessionController, error) {
	sequencer, err := NewStepSequencer(cfg.Steps, cfg.LevelThresholds)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &VerificationSessionController{
		log:       baseLogger.With().Str("component", "session_controller").Logger(),
		sequencer: sequencer,
		bus:       bus,
		metrics:   m,
		session:   domain.NewSession(sequencer.Steps()),
		ctx:       ctx,
		cancel:    cancel,
	}

	var docTypes []domain.DocumentType
	for _, step := range sequencer.Steps() {
		docTypes = append(docTypes, step.Documents...)
	}
	c.uploads = NewDocumentUploadTracker(cfg.Upload, docTypes, transport, bus, m, baseLogger)
	c.drafts = NewDraftPersistenceManager(ctx, store, bus, c.collectSnapshot, c.onDraftSaved, cfg.AutosaveDelay, m, baseLogger)
	return c, nil
}

// RestoreOrInit attempts to rehydrate the session from a saved draft.
// A missing, corrupt or out-of-bounds draft is not an error: the fresh
// session built at construction stays in place. Returns true when a
// draft was restored.
func (c *VerificationSessionController) RestoreOrInit() bool {
	snap := c.drafts.Restore(len(c.sequencer.Steps()))

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || snap == nil {
		return false
	}
	c.session = domain.RestoredSession(c.sequencer.Steps(), *snap)
	c.log.Info().Int("current_step", snap.CurrentStep).Int("fields", len(snap.FormData)).Msg("Session restored from draft")
	return true
}

// SubmitStep merges data into the form, validates the current step
// and, when valid, persists the advanced snapshot before committing
// the transition. On validation failure it returns the error map and
// mutates neither step status nor index. A persistence failure is
// returned as ErrSubmissionFailed with no transition recorded; the
// merged form data is deliberately kept (and autosaved), so typed
// input survives the failure and resubmission is safe.
func (c *VerificationSessionController) SubmitStep(data map[string]string) (domain.ValidationErrors, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.ErrSessionClosed
	}
	if c.sequencer.Terminal(c.session) {
		c.mu.Unlock()
		return nil, domain.ErrSessionVerified
	}
	if c.submitting {
		c.mu.Unlock()
		return nil, domain.ErrSubmissionInFlight
	}

	c.session.MergeFormData(data)
	c.session.Dirty = true

	index := c.session.CurrentStep
	step := c.sequencer.Steps()[index]
	errs := ValidateStep(step, c.session.FormData, c.uploads.Records())
	if !errs.Valid() {
		// The merged data still autosaves; only the transition is off.
		c.mu.Unlock()
		c.drafts.ScheduleAutosave()
		return errs, nil
	}

	c.submitting = true
	terminal := index == len(c.sequencer.Steps())-1
	snap := c.session.Snapshot(time.Now())
	if !terminal {
		snap.CurrentStep = index + 1
	}
	c.mu.Unlock()

	err := c.drafts.Commit(snap, terminal)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	if c.closed {
		return nil, domain.ErrSessionClosed
	}
	if err != nil {
		c.metrics.IncSubmissionsFailed()
		c.log.Error().Err(err).Str("step", step.ID).Msg("Step submission failed in the persistence phase")
		return nil, fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, err)
	}

	c.sequencer.MarkCompleted(c.session, index)
	c.metrics.IncStepsCompleted()

	// The saved callback ran before the transition, saw the old index
	// and left Dirty set. Now that the session caught up with the
	// committed snapshot, settle the flag here.
	if c.session.Snapshot(snap.SavedAt).Equal(snap) {
		c.session.Dirty = false
	}
	c.log.Info().Str("step", step.ID).Bool("terminal", terminal).Msg("Step completed")

	if c.bus != nil {
		_ = c.bus.Publish(context.Background(), ports.TopicStepCompleted, ports.StepCompletedEvent{
			StepID:   step.ID,
			Index:    index,
			Terminal: terminal,
			Level:    c.sequencer.Level(c.session),
		})
	}
	return nil, nil
}

// SaveDraft merges data into the form and schedules a debounced
// autosave. It never blocks on I/O.
func (c *VerificationSessionController) SaveDraft(data map[string]string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}
	c.session.MergeFormData(data)
	c.session.Dirty = true
	c.mu.Unlock()

	c.drafts.ScheduleAutosave()
	return nil
}

// GoTo navigates to the step at index. Illegal jumps are rejected
// without mutating state. A successful move marks the session dirty
// even though no form data changed: the new index must reach the
// store on the next autosave so a restore resumes on the right step.
func (c *VerificationSessionController) GoTo(index int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if c.submitting {
		c.mu.Unlock()
		return domain.ErrSubmissionInFlight
	}
	if index < 0 || index >= len(c.sequencer.Steps()) {
		c.mu.Unlock()
		return domain.ErrStepOutOfRange
	}
	if !c.sequencer.CanAdvance(c.session, c.session.CurrentStep, index) {
		c.mu.Unlock()
		return domain.ErrIllegalStepJump
	}
	c.sequencer.Navigate(c.session, index)
	c.session.Dirty = true
	c.mu.Unlock()

	c.drafts.ScheduleAutosave()
	return nil
}

// UploadDocument starts an upload for the given document type.
func (c *VerificationSessionController) UploadDocument(docType domain.DocumentType, file domain.FileDescriptor) error {
	return c.uploads.SelectFile(c.liveCtx(), docType, file)
}

// RetryUpload retries a failed upload with the original file.
func (c *VerificationSessionController) RetryUpload(docType domain.DocumentType) error {
	return c.uploads.Retry(c.liveCtx(), docType)
}

// RemoveDocument clears a terminal document record back to idle.
func (c *VerificationSessionController) RemoveDocument(docType domain.DocumentType) error {
	return c.uploads.Remove(c.liveCtx(), docType)
}

// Documents returns a copy of every document record.
func (c *VerificationSessionController) Documents() map[domain.DocumentType]*domain.DocumentRecord {
	return c.uploads.Records()
}

// ValidateCurrentStep re-runs step validation without submitting, so
// the UI can refresh inline errors after a document status change.
func (c *VerificationSessionController) ValidateCurrentStep() domain.ValidationErrors {
	c.mu.Lock()
	step := c.sequencer.Steps()[c.session.CurrentStep]
	formData := make(map[string]string, len(c.session.FormData))
	for k, v := range c.session.FormData {
		formData[k] = v
	}
	c.mu.Unlock()

	return ValidateStep(step, formData, c.uploads.Records())
}

// Session returns a copy of the session for rendering, with document
// records folded in.
func (c *VerificationSessionController) Session() *domain.VerificationSession {
	c.mu.Lock()
	view := c.session.Clone()
	c.mu.Unlock()

	view.Documents = c.uploads.Records()
	return view
}

// Steps returns the ordered step definitions.
func (c *VerificationSessionController) Steps() []domain.StepDefinition {
	return c.sequencer.Steps()
}

// Progress reports completed versus total steps.
func (c *VerificationSessionController) Progress() (completed, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sequencer.CompletedCount(c.session), len(c.sequencer.Steps())
}

// Level reports the verification level derived from the threshold
// table.
func (c *VerificationSessionController) Level() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sequencer.Level(c.session)
}

// Terminal reports whether the last step has been verified.
func (c *VerificationSessionController) Terminal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sequencer.Terminal(c.session)
}

// SubmissionComplete reports whether the store carries the terminal
// submission marker, possibly from an earlier session.
func (c *VerificationSessionController) SubmissionComplete() bool {
	return c.drafts.SubmissionComplete()
}

// Close tears the session down: pending debounce timers are cleared
// and results of in-flight saves and uploads arriving afterwards are
// dropped instead of mutating disposed state.
func (c *VerificationSessionController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.drafts.Close()
	c.uploads.Close()
	c.cancel()
	c.log.Info().Msg("Session controller closed")
}

// collectSnapshot feeds the draft manager the current persistable
// state at the moment a save fires.
func (c *VerificationSessionController) collectSnapshot() (domain.DraftSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Snapshot(time.Now()), c.session.Dirty
}

// onDraftSaved clears the dirty flag, but only when the persisted
// snapshot still matches the session: edits made while the write was
// in flight keep the session dirty.
func (c *VerificationSessionController) onDraftSaved(snap domain.DraftSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	current := c.session.Snapshot(snap.SavedAt)
	if current.Equal(snap) {
		c.session.Dirty = false
	}
	at := snap.SavedAt
	c.session.LastSavedAt = &at
}

// liveCtx returns the context bounding background work for the current
// session lifetime.
func (c *VerificationSessionController) liveCtx() context.Context {
	return c.ctx
}
