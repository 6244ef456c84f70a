package sources

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"threat-monitor/internal/models"
)

// maxBufferedPosts bounds the adapter's post buffer between cycles; older
// posts are dropped first once the cap is reached.
const maxBufferedPosts = 1000

// TelegramAdapter serves channel posts and messages visible to the
// configured bot. The bot library delivers updates through registered
// handlers rather than an exposed poll call, so the adapter buffers posts
// from a default handler and Fetch drains the batch accumulated since the
// previous cycle.
type TelegramAdapter struct {
	bot *bot.Bot

	mu      sync.Mutex
	records []models.Record
}

// NewTelegramAdapter initializes the bot client for the given token and
// wires the update handler into the adapter's buffer.
func NewTelegramAdapter(token string) (*TelegramAdapter, error) {
	a := &TelegramAdapter{}
	b, err := bot.New(token, bot.WithDefaultHandler(a.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	a.bot = b
	return a, nil
}

// Start runs the bot's long-poll loop until the context is cancelled.
func (a *TelegramAdapter) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.bot.Start(ctx)
	}()
}

func (a *TelegramAdapter) handleUpdate(_ context.Context, _ *bot.Bot, upd *tgmodels.Update) {
	msg := upd.ChannelPost
	if msg == nil {
		msg = upd.Message
	}
	if msg == nil || msg.Text == "" {
		return
	}

	rec := models.Record{
		Fields: map[string]string{
			"channel": chatTitle(msg),
			"text":    msg.Text,
		},
		Raw: map[string]any{
			"channel":    chatTitle(msg),
			"text":       msg.Text,
			"message_id": msg.ID,
			"date":       msg.Date,
		},
	}

	a.mu.Lock()
	if len(a.records) >= maxBufferedPosts {
		a.records = a.records[1:]
	}
	a.records = append(a.records, rec)
	a.mu.Unlock()
}

func (a *TelegramAdapter) Fetch(_ context.Context, _ models.MonitoringSource) ([]models.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.records
	a.records = nil
	return out, nil
}

func chatTitle(msg *tgmodels.Message) string {
	if msg.Chat.Title != "" {
		return msg.Chat.Title
	}
	return msg.Chat.Username
}
