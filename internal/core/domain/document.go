package domain

import "time"

// DocumentType tags one kind of required document (e.g. "id_front",
// "utility_bill"). One record exists per type per session.
type DocumentType string

const (
	DocTypeIDFront              DocumentType = "id_front"
	DocTypeIDBack               DocumentType = "id_back"
	DocTypeUtilityBill          DocumentType = "utility_bill"
	DocTypeBankStatement        DocumentType = "bank_statement"
	DocTypeBusinessRegistration DocumentType = "business_registration"
)

// UploadStatus is a custom type for the per-document upload ENUM.
type UploadStatus string

const (
	UploadIdle      UploadStatus = "idle"
	UploadInFlight  UploadStatus = "uploading"
	UploadSucceeded UploadStatus = "success"
	UploadFailed    UploadStatus = "error"
)

// FileDescriptor identifies a file the user picked for upload. The
// engine never opens the file itself; the descriptor is handed to the
// injected transport as-is.
type FileDescriptor struct {
	Name     string
	Size     int64
	MIMEType string
	Path     string
}

// DocumentRecord tracks the upload lifecycle of one document type.
type DocumentRecord struct {
	Type       DocumentType
	Status     UploadStatus
	Progress   int    // 0..100, monotonically non-decreasing per attempt
	Error      string // set while Status == UploadFailed
	StorageRef string // transport-assigned reference, set on success
	UploadedAt *time.Time
}

// Clone returns a copy safe to hand to callers outside the engine.
func (r *DocumentRecord) Clone() *DocumentRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.UploadedAt != nil {
		at := *r.UploadedAt
		cp.UploadedAt = &at
	}
	return &cp
}
