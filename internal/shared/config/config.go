package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DraftStoreConfig selects and configures the draft persistence backend.
type DraftStoreConfig struct {
	Backend     string // "memory", "redis" or "postgres"
	RedisAddr   string
	RedisDB     int
	DatabaseURL string
}

// UploadConfig bounds file selection and configures the transport.
type UploadConfig struct {
	MaxFileSize      int64    // bytes
	AllowedMIMETypes []string // allow-list checked at file selection
	Transport        string   // "simulated" or "telegram"

	// Telegram review-channel transport
	BotToken        string
	ReviewChannelID int64

	// Simulated transport pacing
	SimulatedStepDelay time.Duration
}

// Config holds all configuration for the application.
type Config struct {
	AppEnv          string
	AutosaveDelay   time.Duration
	LevelThresholds []int
	DraftStore      DraftStoreConfig
	Upload          UploadConfig
}

// Load loads configuration from environment variables, optionally
// seeded from a .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	bindings := map[string]string{
		"app.env":                  "APP_ENV",
		"autosave.delay":           "AUTOSAVE_DELAY",
		"levels.thresholds":        "LEVEL_THRESHOLDS",
		"draftstore.backend":       "DRAFT_STORE_BACKEND",
		"draftstore.redis_addr":    "REDIS_ADDR",
		"draftstore.redis_db":      "REDIS_DB",
		"draftstore.database_url":  "DATABASE_URL",
		"upload.max_file_size":     "UPLOAD_MAX_FILE_SIZE",
		"upload.allowed_mime":      "UPLOAD_ALLOWED_MIME",
		"upload.transport":         "UPLOAD_TRANSPORT",
		"upload.bot_token":         "TELEGRAM_BOT_TOKEN",
		"upload.review_channel_id": "TELEGRAM_REVIEW_CHANNEL_ID",
		"upload.simulated_delay":   "UPLOAD_SIMULATED_DELAY",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	viper.SetDefault("app.env", "dev")
	viper.SetDefault("autosave.delay", "1500ms")
	// The two workflow variants ship different tables; 2,4,5 is the
	// default production one.
	viper.SetDefault("levels.thresholds", "2,4,5")
	viper.SetDefault("draftstore.backend", "memory")
	viper.SetDefault("draftstore.redis_addr", "localhost:6379")
	viper.SetDefault("draftstore.redis_db", 0)
	viper.SetDefault("upload.max_file_size", 5*1024*1024)
	viper.SetDefault("upload.allowed_mime", "image/jpeg,image/png,application/pdf")
	viper.SetDefault("upload.transport", "simulated")
	viper.SetDefault("upload.simulated_delay", "150ms")

	cfg := Config{
		AppEnv:        viper.GetString("app.env"),
		AutosaveDelay: viper.GetDuration("autosave.delay"),
		DraftStore: DraftStoreConfig{
			Backend:     viper.GetString("draftstore.backend"),
			RedisAddr:   viper.GetString("draftstore.redis_addr"),
			RedisDB:     viper.GetInt("draftstore.redis_db"),
			DatabaseURL: viper.GetString("draftstore.database_url"),
		},
		Upload: UploadConfig{
			MaxFileSize:        viper.GetInt64("upload.max_file_size"),
			AllowedMIMETypes:   splitList(viper.GetString("upload.allowed_mime")),
			Transport:          viper.GetString("upload.transport"),
			BotToken:           viper.GetString("upload.bot_token"),
			ReviewChannelID:    viper.GetInt64("upload.review_channel_id"),
			SimulatedStepDelay: viper.GetDuration("upload.simulated_delay"),
		},
	}

	thresholds, err := parseThresholds(viper.GetString("levels.thresholds"))
	if err != nil {
		return nil, err
	}
	cfg.LevelThresholds = thresholds

	if cfg.AutosaveDelay <= 0 {
		return nil, fmt.Errorf("AUTOSAVE_DELAY must be positive, got %s", cfg.AutosaveDelay)
	}
	if cfg.Upload.MaxFileSize <= 0 {
		return nil, fmt.Errorf("UPLOAD_MAX_FILE_SIZE must be positive, got %d", cfg.Upload.MaxFileSize)
	}
	switch cfg.DraftStore.Backend {
	case "memory":
	case "redis":
		if cfg.DraftStore.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required for the redis draft store")
		}
	case "postgres":
		if cfg.DraftStore.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres draft store")
		}
	default:
		return nil, fmt.Errorf("unknown draft store backend: %s", cfg.DraftStore.Backend)
	}
	switch cfg.Upload.Transport {
	case "simulated":
	case "telegram":
		if cfg.Upload.BotToken == "" || cfg.Upload.ReviewChannelID == 0 {
			return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_REVIEW_CHANNEL_ID are required for the telegram transport")
		}
	default:
		return nil, fmt.Errorf("unknown upload transport: %s", cfg.Upload.Transport)
	}

	return &cfg, nil
}

// parseThresholds parses a comma-separated, strictly increasing list of
// completed-step counts, one per verification level.
func parseThresholds(raw string) ([]int, error) {
	parts := splitList(raw)
	if len(parts) == 0 {
		return nil, fmt.Errorf("LEVEL_THRESHOLDS must not be empty")
	}
	thresholds := make([]int, 0, len(parts))
	prev := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("LEVEL_THRESHOLDS entry %q is not a number: %w", p, err)
		}
		if n <= prev {
			return nil, fmt.Errorf("LEVEL_THRESHOLDS must be strictly increasing, got %s", raw)
		}
		thresholds = append(thresholds, n)
		prev = n
	}
	return thresholds, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
