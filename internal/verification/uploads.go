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

// UploadLimits bounds what files the tracker accepts at selection time.
type UploadLimits struct {
	MaxFileSize      int64
	AllowedMIMETypes []string
}

// DocumentUploadTracker runs the per-document-type upload state machine:
// idle → uploading → success, uploading → error, error → uploading
// (retry) and success|error → idle (remove). Uploads for different
// types run in parallel; per type at most one is in flight.
type DocumentUploadTracker struct {
	mu        sync.Mutex
	log       zerolog.Logger
	transport ports.UploadTransport
	bus       ports.EventBus
	metrics   *metrics.Metrics
	maxSize   int64
	allowed   map[string]struct{}
	records   map[domain.DocumentType]*domain.DocumentRecord
	files     map[domain.DocumentType]domain.FileDescriptor
	closed    bool
}

// NewDocumentUploadTracker seeds one idle record per required document
// type. Types not in the list are rejected at selection.
func NewDocumentUploadTracker(
	limits UploadLimits,
	requiredTypes []domain.DocumentType,
	transport ports.UploadTransport,
	bus ports.EventBus,
	m *metrics.Metrics,
	baseLogger *zerolog.Logger,
) *DocumentUploadTracker {
	allowed := make(map[string]struct{}, len(limits.AllowedMIMETypes))
	for _, mime := range limits.AllowedMIMETypes {
		allowed[mime] = struct{}{}
	}
	records := make(map[domain.DocumentType]*domain.DocumentRecord, len(requiredTypes))
	for _, t := range requiredTypes {
		records[t] = &domain.DocumentRecord{Type: t, Status: domain.UploadIdle}
	}
	return &DocumentUploadTracker{
		log:       baseLogger.With().Str("component", "upload_tracker").Logger(),
		transport: transport,
		bus:       bus,
		metrics:   m,
		maxSize:   limits.MaxFileSize,
		allowed:   allowed,
		records:   records,
		files:     make(map[domain.DocumentType]domain.FileDescriptor),
	}
}

// SelectFile validates the descriptor and, if acceptable, starts the
// upload. Rejections leave the record in idle with no transition.
func (t *DocumentUploadTracker) SelectFile(ctx context.Context, docType domain.DocumentType, file domain.FileDescriptor) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return domain.ErrSessionClosed
	}
	record, ok := t.records[docType]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownDocument, docType)
	}
	switch record.Status {
	case domain.UploadInFlight:
		return domain.ErrUploadInFlight
	case domain.UploadSucceeded, domain.UploadFailed:
		return fmt.Errorf("%w: remove the %s document before selecting a new file", domain.ErrIllegalTransition, docType)
	}

	if file.Size > t.maxSize {
		t.metrics.ObserveUpload("rejected")
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", domain.ErrInvalidFile, file.Name, file.Size, t.maxSize)
	}
	if _, ok := t.allowed[file.MIMEType]; !ok {
		t.metrics.ObserveUpload("rejected")
		return fmt.Errorf("%w: type %s is not allowed", domain.ErrInvalidFile, file.MIMEType)
	}

	record.Status = domain.UploadInFlight
	record.Progress = 0
	record.Error = ""
	record.StorageRef = ""
	record.UploadedAt = nil
	t.files[docType] = file

	t.log.Info().Str("doc_type", string(docType)).Str("file", file.Name).Msg("Starting document upload")
	t.publishLocked(ctx, docType)

	go t.run(ctx, docType, file)
	return nil
}

// Retry re-enters uploading with the original file descriptor. Only
// legal from the error state.
func (t *DocumentUploadTracker) Retry(ctx context.Context, docType domain.DocumentType) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return domain.ErrSessionClosed
	}
	record, ok := t.records[docType]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownDocument, docType)
	}
	if record.Status != domain.UploadFailed {
		return fmt.Errorf("%w: retry is only legal from error, %s is %s", domain.ErrIllegalTransition, docType, record.Status)
	}
	file, ok := t.files[docType]
	if !ok {
		return fmt.Errorf("%w: no file descriptor retained for %s", domain.ErrIllegalTransition, docType)
	}

	record.Status = domain.UploadInFlight
	record.Progress = 0
	record.Error = ""
	t.metrics.IncUploadRetries()

	t.log.Info().Str("doc_type", string(docType)).Msg("Retrying document upload")
	t.publishLocked(ctx, docType)

	go t.run(ctx, docType, file)
	return nil
}

// Remove clears a terminal record back to idle so a new file can be
// selected. Only legal from success or error.
func (t *DocumentUploadTracker) Remove(ctx context.Context, docType domain.DocumentType) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return domain.ErrSessionClosed
	}
	record, ok := t.records[docType]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownDocument, docType)
	}
	if record.Status != domain.UploadSucceeded && record.Status != domain.UploadFailed {
		return fmt.Errorf("%w: cannot remove %s while %s", domain.ErrIllegalTransition, docType, record.Status)
	}

	t.records[docType] = &domain.DocumentRecord{Type: docType, Status: domain.UploadIdle}
	delete(t.files, docType)

	t.log.Info().Str("doc_type", string(docType)).Msg("Document removed")
	t.publishLocked(ctx, docType)
	return nil
}

// Records returns a copy of every record, safe to hand to the step
// validator and the UI.
func (t *DocumentUploadTracker) Records() map[domain.DocumentType]*domain.DocumentRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[domain.DocumentType]*domain.DocumentRecord, len(t.records))
	for docType, record := range t.records {
		out[docType] = record.Clone()
	}
	return out
}

// Record returns a copy of one record, or nil for unknown types.
func (t *DocumentUploadTracker) Record(docType domain.DocumentType) *domain.DocumentRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records[docType].Clone()
}

// Close marks the tracker dead. Results of in-flight uploads arriving
// afterwards are dropped instead of mutating disposed state.
func (t *DocumentUploadTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

// run drives one upload attempt on its own goroutine.
func (t *DocumentUploadTracker) run(ctx context.Context, docType domain.DocumentType, file domain.FileDescriptor) {
	ref, err := t.transport.Upload(ctx, file, func(percent int) {
		t.onProgress(ctx, docType, percent)
	})

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	record, ok := t.records[docType]
	if !ok || record.Status != domain.UploadInFlight {
		// The attempt this result belongs to is gone.
		return
	}

	if err != nil {
		record.Status = domain.UploadFailed
		record.Error = err.Error()
		t.metrics.ObserveUpload("error")
		t.log.Warn().Err(err).Str("doc_type", string(docType)).Int("progress", record.Progress).Msg("Document upload failed")
	} else {
		now := time.Now()
		record.Status = domain.UploadSucceeded
		record.Progress = 100
		record.StorageRef = ref
		record.UploadedAt = &now
		t.metrics.ObserveUpload("ok")
		t.log.Info().Str("doc_type", string(docType)).Str("storage_ref", ref).Msg("Document upload succeeded")
	}
	t.publishLocked(ctx, docType)
}

// onProgress applies a transport progress report. Progress only moves
// forward; stale or out-of-range reports are dropped.
func (t *DocumentUploadTracker) onProgress(ctx context.Context, docType domain.DocumentType, percent int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	record, ok := t.records[docType]
	if !ok || record.Status != domain.UploadInFlight {
		return
	}
	if percent <= record.Progress || percent > 100 {
		return
	}
	record.Progress = percent
	t.publishLocked(ctx, docType)
}

// publishLocked emits the record's current state on the bus. Callers
// hold t.mu.
func (t *DocumentUploadTracker) publishLocked(ctx context.Context, docType domain.DocumentType) {
	if t.bus == nil {
		return
	}
	record := t.records[docType]
	_ = t.bus.Publish(ctx, ports.TopicDocumentStatus, ports.DocumentStatusEvent{
		Type:     docType,
		Status:   record.Status,
		Progress: record.Progress,
		Error:    record.Error,
	})
}
