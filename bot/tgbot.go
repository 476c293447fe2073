package bot

import (
	"SourceHub/entity"
	"SourceHub/internal/lib/sl"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
)

// StatsSource provides the numbers behind the /stats command.
type StatsSource interface {
	PlatformStats(ctx context.Context) (*entity.PlatformStats, error)
}

// TgBot delivers owner notifications and answers owner commands.
type TgBot struct {
	log     *slog.Logger
	api     *tgbotapi.Bot
	adminId int64
	stats   StatsSource
}

func NewTgBot(apiKey string, adminId int64, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:     log.With(sl.Module("tgbot")),
		adminId: adminId,
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

func (t *TgBot) SetStatsSource(stats StatsSource) {
	t.stats = stats
}

// Start polls for updates until ctx is cancelled.
func (t *TgBot) Start(ctx context.Context) error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Warn("handling update", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	updater := ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("stats", t.handleStats))

	err := updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}
	t.log.Info("telegram bot started", slog.String("username", t.api.Username))

	<-ctx.Done()
	updater.Stop()
	return nil
}

// handleStats answers the owner only; other chats are ignored.
func (t *TgBot) handleStats(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if ctx.EffectiveChat == nil || ctx.EffectiveChat.Id != t.adminId {
		return nil
	}
	if t.stats == nil {
		t.plainResponse(t.adminId, "Statistics are not available")
		return nil
	}

	stats, err := t.stats.PlatformStats(context.Background())
	if err != nil {
		t.log.Error("platform stats", sl.Err(err))
		return err
	}
	t.plainResponse(t.adminId, FormatStats(stats))
	return nil
}

// FormatStats renders platform totals as a short plain text report.
func FormatStats(stats *entity.PlatformStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Projects: %d\nLikes: %d\nDownloads: %d", stats.TotalProjects, stats.TotalLikes, stats.TotalDownloads)
	if len(stats.PopularLanguages) > 0 {
		b.WriteString("\nTop languages:")
		for _, lang := range stats.PopularLanguages {
			fmt.Fprintf(&b, "\n  %s: %d", lang.Language, lang.Count)
		}
	}
	return b.String()
}

// SendMessage notifies the owner.
func (t *TgBot) SendMessage(msg string) {
	t.plainResponse(t.adminId, msg)
}

func (t *TgBot) plainResponse(chatId int64, text string) {
	sanitized := sanitize(text)
	if sanitized == "" {
		t.log.With(
			slog.Int64("id", chatId),
		).Debug("empty message")
		return
	}

	_, err := t.api.SendMessage(chatId, sanitized, &tgbotapi.SendMessageOpts{
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		t.log.With(
			slog.Int64("id", chatId),
		).Warn("sending message", sl.Err(err))
		// retry without markup
		_, err = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{})
		if err != nil {
			t.log.With(
				slog.Int64("id", chatId),
			).Error("sending safe message", sl.Err(err))
		}
	}
}

const reservedChars = "\\`_*{}#+-.!|()[]=~>"

// sanitize escapes MarkdownV2 reserved characters.
func sanitize(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
