package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"SanduqVerify/internal/adapters/draftstore"
	"SanduqVerify/internal/adapters/eventbus"
	"SanduqVerify/internal/adapters/upload"
	"SanduqVerify/internal/core/ports"
	"SanduqVerify/internal/shared/config"
	"SanduqVerify/internal/shared/logger"
	"SanduqVerify/internal/shared/metrics"
	"SanduqVerify/internal/verification"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	isDevMode := cfg.AppEnv == "dev"
	baseLogger := logger.New(isDevMode)
	baseLogger.Info().
		Str("app_env", cfg.AppEnv).
		Str("draft_store", cfg.DraftStore.Backend).
		Str("upload_transport", cfg.Upload.Transport).
		Dur("autosave_delay", cfg.AutosaveDelay).
		Msg("Configuration loaded")

	ctx := context.Background()

	// 3. Initialize the Draft Store
	var store ports.DraftStore
	switch cfg.DraftStore.Backend {
	case "redis":
		store, err = draftstore.NewRedisStore(ctx, cfg.DraftStore.RedisAddr, cfg.DraftStore.RedisDB, "kyc:draft", &baseLogger)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to initialize redis draft store")
		}
	case "postgres":
		var closePool func()
		store, closePool, err = draftstore.NewPostgresStore(ctx, cfg.DraftStore.DatabaseURL, "kyc:draft", &baseLogger)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to initialize postgres draft store")
		}
		defer closePool()
	default:
		store = draftstore.NewMemoryStore()
	}

	// 4. Initialize the Upload Transport
	var transport ports.UploadTransport
	if cfg.Upload.Transport == "telegram" {
		transport, err = upload.NewTelegramTransport(cfg.Upload.BotToken, cfg.Upload.ReviewChannelID, &baseLogger)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to initialize telegram transport")
		}
	} else {
		transport = upload.NewSimulatedTransport(cfg.Upload.SimulatedStepDelay, &baseLogger)
	}

	// 5. Initialize the Event Bus and Metrics
	bus := eventbus.NewInMemoryEventBus(&baseLogger)
	m := metrics.New(prometheus.DefaultRegisterer)

	// 6. Build the Session Controller
	controller, err := verification.NewController(ctx, verification.ControllerConfig{
		Steps:           verification.DefaultSteps(),
		LevelThresholds: cfg.LevelThresholds,
		AutosaveDelay:   cfg.AutosaveDelay,
		Upload: verification.UploadLimits{
			MaxFileSize:      cfg.Upload.MaxFileSize,
			AllowedMIMETypes: cfg.Upload.AllowedMIMETypes,
		},
	}, store, transport, bus, m, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to build session controller")
	}
	defer controller.Close()

	// 7. Subscribe observers the way a screen would
	bus.Subscribe(ports.TopicStepCompleted, func(_ context.Context, event ports.Event) error {
		if e, ok := event.Data.(ports.StepCompletedEvent); ok {
			baseLogger.Info().Str("step", e.StepID).Int("level", e.Level).Bool("terminal", e.Terminal).Msg("Step completed")
		}
		return nil
	})
	bus.Subscribe(ports.TopicDocumentStatus, func(_ context.Context, event ports.Event) error {
		if e, ok := event.Data.(ports.DocumentStatusEvent); ok {
			baseLogger.Info().Str("doc_type", string(e.Type)).Str("status", string(e.Status)).Int("progress", e.Progress).Msg("Document status")
		}
		return nil
	})

	// 8. Restore a saved draft if one exists
	restored := controller.RestoreOrInit()
	completed, total := controller.Progress()
	baseLogger.Info().
		Bool("restored", restored).
		Int("completed_steps", completed).
		Int("total_steps", total).
		Int("level", controller.Level()).
		Msg("Verification session ready")

	if controller.SubmissionComplete() {
		baseLogger.Info().Msg("A previous session already completed verification")
		return
	}

	// 9. Smoke pass: submit the personal step with sample data
	if isDevMode && !restored {
		errs, err := controller.SubmitStep(map[string]string{
			"firstName":   "Sara",
			"lastName":    "Mohammadi",
			"email":       "sara@example.com",
			"phone":       "+989121234567",
			"dateOfBirth": "1992-04-17",
		})
		if err != nil {
			baseLogger.Error().Err(err).Msg("Smoke submission failed")
		} else if !errs.Valid() {
			baseLogger.Warn().Interface("errors", errs).Msg("Smoke submission rejected by validation")
		} else {
			completed, total = controller.Progress()
			baseLogger.Info().Int("completed_steps", completed).Int("total_steps", total).Msg("Smoke submission accepted")
		}
	}

	baseLogger.Info().Msg("Engine wired. (Embed the controller in the app shell to drive it.)")
}
