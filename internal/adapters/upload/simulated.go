package upload

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"SanduqVerify/internal/core/domain"
	"SanduqVerify/internal/core/ports"
)

// simulatedTransport pretends to move a file somewhere, reporting
// progress in fixed increments. It backs local development and the
// demo wiring; nothing leaves the process.
type simulatedTransport struct {
	stepDelay time.Duration
	log       zerolog.Logger
}

var _ ports.UploadTransport = (*simulatedTransport)(nil) // Ensure compliance

// NewSimulatedTransport paces progress reports by stepDelay.
func NewSimulatedTransport(stepDelay time.Duration, baseLogger *zerolog.Logger) ports.UploadTransport {
	if stepDelay <= 0 {
		stepDelay = 150 * time.Millisecond
	}
	return &simulatedTransport{
		stepDelay: stepDelay,
		log:       baseLogger.With().Str("component", "simulated_transport").Logger(),
	}
}

func (t *simulatedTransport) Upload(ctx context.Context, file domain.FileDescriptor, onProgress func(percent int)) (string, error) {
	for percent := 10; percent <= 90; percent += 20 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(t.stepDelay):
		}
		onProgress(percent)
	}

	ref := "sim-" + uuid.NewString()
	t.log.Info().Str("file", file.Name).Str("storage_ref", ref).Msg("Simulated upload finished")
	return ref, nil
}
