package ports

import (
	"context"

	"SanduqVerify/internal/core/domain"
)

// UploadTransport is the injected capability that actually moves a
// document somewhere. The engine is transport-agnostic: a local
// simulation, an HTTP multipart client and a Telegram review channel
// are equally valid implementations.
type UploadTransport interface {
	// Upload pushes the file and reports progress through onProgress
	// with percentages in 0..100. It blocks until the transfer ends
	// and returns a transport-specific storage reference on success.
	// The upload tracker runs it on its own goroutine and enforces
	// monotonic progress, so implementations may report coarsely.
	Upload(ctx context.Context, file domain.FileDescriptor, onProgress func(percent int)) (storageRef string, err error)
}
