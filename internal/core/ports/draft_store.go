package ports

import "context"

// Keys of the opaque key/value contract shared with the mobile app.
// Changing these breaks drafts saved by older builds.
const (
	KeyVerificationData  = "verification_data"
	KeyCurrentStep       = "current_step"
	KeyAutosaveTimestamp = "autosave_timestamp"
	KeySubmissionStatus  = "submission_status"
)

// SubmissionComplete is the value written under KeySubmissionStatus
// once the terminal step is verified.
const SubmissionComplete = "complete"

// DraftStore is the injected persistence capability for draft
// snapshots. Implementations (memory, Redis, Postgres) must be safe
// for concurrent use; the draft manager serializes writes itself.
type DraftStore interface {
	// Put stores value under key, overwriting any previous value.
	Put(ctx context.Context, key, value string) error

	// Get returns the value for key. ok is false when the key is
	// absent; absence is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}
