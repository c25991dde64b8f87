package upload

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"SanduqVerify/internal/core/domain"
	"SanduqVerify/internal/core/ports"
)

// telegramTransport ships documents to a private review channel where
// compliance staff inspect them. The channel message ID becomes the
// storage reference.
type telegramTransport struct {
	api       *tgbotapi.BotAPI
	channelID int64
	log       zerolog.Logger
}

var _ ports.UploadTransport = (*telegramTransport)(nil) // Ensure compliance

// NewTelegramTransport connects the bot API and targets the given
// review channel.
func NewTelegramTransport(token string, channelID int64, baseLogger *zerolog.Logger) (ports.UploadTransport, error) {
	log := baseLogger.With().Str("component", "telegram_transport").Logger()

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot api: %w", err)
	}
	log.Info().Str("username", api.Self.UserName).Msg("Bot API connected")

	return &telegramTransport{api: api, channelID: channelID, log: log}, nil
}

func (t *telegramTransport) Upload(ctx context.Context, file domain.FileDescriptor, onProgress func(percent int)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The bot API has no transfer-level progress; report coarsely
	// around the single send call.
	onProgress(10)

	doc := tgbotapi.NewDocument(t.channelID, tgbotapi.FilePath(file.Path))
	doc.Caption = fmt.Sprintf("Document: %s\nFile: %s (%d bytes, %s)", file.Name, file.Path, file.Size, file.MIMEType)

	msg, err := t.api.Send(doc)
	if err != nil {
		t.log.Error().Err(err).Str("file", file.Name).Msg("Failed to send document to review channel")
		return "", err
	}

	onProgress(95)
	ref := fmt.Sprintf("%d", msg.MessageID)
	t.log.Info().Str("file", file.Name).Str("storage_ref", ref).Msg("Document posted to review channel")
	return ref, nil
}
