package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerificationSession is the single mutable object of the engine. It is
// owned exclusively by the session controller; everything handed out to
// callers is a copy.
type VerificationSession struct {
	ID           uuid.UUID
	StepStatuses map[string]StepStatus
	CurrentStep  int
	FormData     map[string]string
	Documents    map[DocumentType]*DocumentRecord

	// PriorStatus is the status the current step held before it became
	// current. Navigation restores it when the user leaves the step, so
	// revisiting a completed step does not erase its completion.
	PriorStatus StepStatus

	// Dirty is true iff FormData differs from the last successfully
	// persisted draft snapshot.
	Dirty       bool
	LastSavedAt *time.Time
}

// NewSession builds a fresh session: step 0 current, the rest pending.
func NewSession(steps []StepDefinition) *VerificationSession {
	statuses := make(map[string]StepStatus, len(steps))
	for i, step := range steps {
		if i == 0 {
			statuses[step.ID] = StepCurrent
		} else {
			statuses[step.ID] = StepPending
		}
	}
	return &VerificationSession{
		ID:           uuid.New(),
		StepStatuses: statuses,
		CurrentStep:  0,
		FormData:     make(map[string]string),
		Documents:    make(map[DocumentType]*DocumentRecord),
		PriorStatus:  StepPending,
	}
}

// RestoredSession rebuilds a session from a draft snapshot: every step
// before the saved index is completed, the saved index is current and
// the rest are pending. The caller must have bounds-checked the index.
func RestoredSession(steps []StepDefinition, snapshot DraftSnapshot) *VerificationSession {
	sess := NewSession(steps)
	sess.MergeFormData(snapshot.FormData)
	sess.CurrentStep = snapshot.CurrentStep
	for i, step := range steps {
		switch {
		case i < snapshot.CurrentStep:
			sess.StepStatuses[step.ID] = StepCompleted
		case i == snapshot.CurrentStep:
			sess.StepStatuses[step.ID] = StepCurrent
		default:
			sess.StepStatuses[step.ID] = StepPending
		}
	}
	at := snapshot.SavedAt
	sess.LastSavedAt = &at
	return sess
}

// MergeFormData copies the given values into the session's form data.
func (s *VerificationSession) MergeFormData(data map[string]string) {
	for k, v := range data {
		s.FormData[k] = v
	}
}

// Clone deep-copies the session so callers outside the controller can
// read it without racing the engine.
func (s *VerificationSession) Clone() *VerificationSession {
	statuses := make(map[string]StepStatus, len(s.StepStatuses))
	for k, v := range s.StepStatuses {
		statuses[k] = v
	}
	formData := make(map[string]string, len(s.FormData))
	for k, v := range s.FormData {
		formData[k] = v
	}
	documents := make(map[DocumentType]*DocumentRecord, len(s.Documents))
	for k, v := range s.Documents {
		documents[k] = v.Clone()
	}
	cp := &VerificationSession{
		ID:           s.ID,
		StepStatuses: statuses,
		CurrentStep:  s.CurrentStep,
		FormData:     formData,
		Documents:    documents,
		PriorStatus:  s.PriorStatus,
		Dirty:        s.Dirty,
	}
	if s.LastSavedAt != nil {
		at := *s.LastSavedAt
		cp.LastSavedAt = &at
	}
	return cp
}

// Snapshot captures the persistable part of the session.
func (s *VerificationSession) Snapshot(now time.Time) DraftSnapshot {
	formData := make(map[string]string, len(s.FormData))
	for k, v := range s.FormData {
		formData[k] = v
	}
	return DraftSnapshot{
		FormData:    formData,
		CurrentStep: s.CurrentStep,
		SavedAt:     now,
	}
}
