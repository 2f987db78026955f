package telemetry

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramEmitter pushes lifecycle events to an ops chat. Sends happen on a
// separate goroutine and failures are logged and dropped, keeping the emitter
// non-blocking.
type TelegramEmitter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

// NewTelegramEmitter connects the bot. An invalid token is an error so the
// caller can fall back to a log-only emitter.
func NewTelegramEmitter(token string, chatID int64, log zerolog.Logger) (*TelegramEmitter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram emitter: %w", err)
	}
	return &TelegramEmitter{bot: bot, chatID: chatID, log: log}, nil
}

func (t *TelegramEmitter) Emit(ev Event) {
	text := formatEvent(ev)
	go func() {
		msg := tgbotapi.NewMessage(t.chatID, text)
		if _, err := t.bot.Send(msg); err != nil {
			t.log.Warn().Err(err).Str("event", ev.Type).Msg("telegram emit dropped")
		}
	}()
}

func formatEvent(ev Event) string {
	switch ev.Type {
	case EventPartnerJoined:
		return fmt.Sprintf("%s: %s paired with %s", ev.Type, ev.ParticipantID, ev.PartnerID)
	case EventSessionEnd:
		return fmt.Sprintf("%s: %s (%ds)", ev.Type, ev.ParticipantID, ev.SessionSeconds)
	default:
		return fmt.Sprintf("%s: %s", ev.Type, ev.ParticipantID)
	}
}
