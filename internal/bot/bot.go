package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"slotgen/internal/cache"
	"slotgen/internal/config"
	"slotgen/internal/db"
	"slotgen/internal/export"
	"slotgen/internal/metrics"
	"slotgen/internal/slots"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	SelfUser() tgbotapi.User
}

type realTelegramClient struct {
	api *tgbotapi.BotAPI
}

func (c *realTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.api.Send(msg)
}

func (c *realTelegramClient) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.api.Request(msg)
}

func (c *realTelegramClient) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(cfg)
}

func (c *realTelegramClient) SelfUser() tgbotapi.User {
	return c.api.Self
}

const timeFormatHint = "Time must be in HH:MM format, e.g., 09:30"

const helpText = `Commands:
/generate – create a new batch of time slots
/generate <profile> – generate using a named profile
/last – show the last generated batch
/settings – view and change generation settings
/profile – list available profiles
/reset – restore the default settings
/cancel – abort the current input
/help – show this message`

// Bot wires the slot generator to Telegram chats.
type Bot struct {
	tg      telegramClient
	db      *db.DB
	cache   *cache.BatchCache
	sheets  *export.SheetsExporter
	gen     *slots.Generator
	limiter *rate.Limiter
	state   *stateStore
	logger  *zerolog.Logger

	mu       sync.RWMutex
	profiles *config.ProfilesConfig
}

func New(
	token string,
	debug bool,
	database *db.DB,
	batches *cache.BatchCache,
	sheets *export.SheetsExporter,
	limiter *rate.Limiter,
	logger *zerolog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = debug
	return newBot(&realTelegramClient{api: api}, database, batches, sheets, limiter, logger)
}

// NewWithTelegramClient allows injecting a mocked Telegram client for tests.
func NewWithTelegramClient(
	tg telegramClient,
	database *db.DB,
	batches *cache.BatchCache,
	sheets *export.SheetsExporter,
	limiter *rate.Limiter,
	logger *zerolog.Logger,
) (*Bot, error) {
	return newBot(tg, database, batches, sheets, limiter, logger)
}

func newBot(
	tg telegramClient,
	database *db.DB,
	batches *cache.BatchCache,
	sheets *export.SheetsExporter,
	limiter *rate.Limiter,
	logger *zerolog.Logger,
) (*Bot, error) {
	if tg == nil {
		return nil, fmt.Errorf("telegram client is nil")
	}
	if database == nil {
		return nil, fmt.Errorf("database is nil")
	}
	return &Bot{
		tg:      tg,
		db:      database,
		cache:   batches,
		sheets:  sheets,
		gen:     slots.NewGenerator(),
		limiter: limiter,
		state:   newStateStore(),
		logger:  logger,
	}, nil
}

// SetProfiles replaces the active profile set. Safe to call from the config
// watcher while the bot is running.
func (b *Bot) SetProfiles(p *config.ProfilesConfig) {
	b.mu.Lock()
	b.profiles = p
	b.mu.Unlock()
}

func (b *Bot) currentProfiles() *config.ProfilesConfig {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.profiles
}

// Start begins polling updates and handles them until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("Bot authorized")

	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			requestID := uuid.New().String()
			l := b.logger.With().Str("request_id", requestID).Logger()
			updateCtx := l.WithContext(ctx)
			b.handleUpdate(updateCtx, &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	l := zerolog.Ctx(ctx)
	if update.CallbackQuery != nil {
		metrics.IncBotUpdate("callback")
		l.Debug().
			Int64("user_id", update.CallbackQuery.From.ID).
			Str("data", update.CallbackQuery.Data).
			Msg("Handling callback query")
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil {
		kind := "message"
		if strings.HasPrefix(update.Message.Text, "/") {
			kind = "command"
		}
		metrics.IncBotUpdate(kind)
		l.Debug().
			Int64("user_id", update.Message.From.ID).
			Str("text", update.Message.Text).
			Msg("Handling message")
		b.handleMessage(ctx, update.Message)
		return
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.From == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)

	// Commands interrupt any active input flow.
	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, msg, text)
		return
	}

	st := b.state.get(msg.From.ID)
	if st.Step == stepNone {
		b.reply(ctx, msg.Chat.ID, "Use /generate to create time slots, or /help for the command list.")
		return
	}
	b.handleInput(ctx, msg.Chat.ID, msg.From.ID, st, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, text string) {
	cmd := text
	args := ""
	if i := strings.IndexByte(text, ' '); i > 0 {
		cmd, args = text[:i], strings.TrimSpace(text[i+1:])
	}
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/start":
		b.state.reset(msg.From.ID)
		b.reply(ctx, msg.Chat.ID, "Hi! I generate randomized, non-overlapping appointment time slots.\n\n"+helpText)
	case "/help":
		b.reply(ctx, msg.Chat.ID, helpText)
	case "/generate":
		b.state.reset(msg.From.ID)
		b.handleGenerate(ctx, msg.Chat.ID, msg.From.ID, args)
	case "/last":
		b.handleLast(ctx, msg.Chat.ID)
	case "/settings":
		b.state.reset(msg.From.ID)
		b.sendSettings(ctx, msg.Chat.ID, msg.From.ID)
	case "/profile":
		b.handleProfiles(ctx, msg.Chat.ID)
	case "/reset":
		b.handleReset(ctx, msg.Chat.ID, msg.From.ID)
	case "/cancel":
		b.state.reset(msg.From.ID)
		b.reply(ctx, msg.Chat.ID, "Cancelled.")
	default:
		b.reply(ctx, msg.Chat.ID, "Unknown command. /help lists what I can do.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq == nil || cq.Message == nil {
		return
	}
	data := cq.Data
	_ = b.answerCallback(cq.ID)
	if data == "noop" {
		return
	}

	chatID := cq.Message.Chat.ID
	userID := cq.From.ID
	msgID := cq.Message.MessageID

	switch {
	case strings.HasPrefix(data, "set:"):
		b.handleSetCallback(ctx, chatID, userID, strings.TrimPrefix(data, "set:"))
	case data == "days:menu":
		b.sendDayGrid(ctx, chatID, userID, msgID)
	case strings.HasPrefix(data, "day:"):
		b.handleDayToggle(ctx, chatID, userID, msgID, strings.TrimPrefix(data, "day:"))
	case data == "avoid:menu":
		b.sendAvoidTimes(ctx, chatID, userID, msgID)
	case data == "avoid:add":
		b.sendWeekdayPick(ctx, chatID, msgID)
	case strings.HasPrefix(data, "aday:"):
		b.handleAvoidDayPick(ctx, chatID, userID, strings.TrimPrefix(data, "aday:"))
	case strings.HasPrefix(data, "avoid:del:"):
		b.handleAvoidDelete(ctx, chatID, userID, msgID, strings.TrimPrefix(data, "avoid:del:"))
	case data == "back:settings":
		b.editSettings(ctx, chatID, userID, msgID)
	case strings.HasPrefix(data, "page:"):
		b.handlePage(ctx, chatID, msgID, strings.TrimPrefix(data, "page:"))
	case strings.HasPrefix(data, "export:"):
		b.handleExport(ctx, chatID, strings.TrimPrefix(data, "export:"))
	case data == "regen":
		b.handleRegenerate(ctx, chatID, userID)
	case strings.HasPrefix(data, "profile:"):
		b.handleGenerate(ctx, chatID, userID, strings.TrimPrefix(data, "profile:"))
	}
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	msg, err := b.tg.Send(c)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Send failed")
	}
	return msg, err
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, _ = b.send(ctx, msg)
}

func (b *Bot) answerCallback(id string) error {
	_, err := b.tg.Request(tgbotapi.NewCallback(id, ""))
	return err
}
