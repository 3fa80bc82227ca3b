package bot

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"slotgen/internal/cache"
	"slotgen/internal/config"
	"slotgen/internal/db"
)

type fakeTelegram struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeTelegram) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegram) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func (f *fakeTelegram) SelfUser() tgbotapi.User {
	return tgbotapi.User{UserName: "slotgen_test_bot"}
}

func (f *fakeTelegram) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

func (f *fakeTelegram) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTelegram) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msgs := f.messages()
	require.NotEmpty(t, msgs, "expected at least one message to be sent")
	return msgs[len(msgs)-1]
}

func (f *fakeTelegram) edits() []tgbotapi.EditMessageTextConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range f.sent {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeTelegram) lastEdit(t *testing.T) tgbotapi.EditMessageTextConfig {
	t.Helper()
	edits := f.edits()
	require.NotEmpty(t, edits, "expected at least one message edit")
	return edits[len(edits)-1]
}

func (f *fakeTelegram) documents() []tgbotapi.DocumentConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.DocumentConfig
	for _, c := range f.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			out = append(out, d)
		}
	}
	return out
}

func newTestBot(t *testing.T) (*Bot, *fakeTelegram) {
	t.Helper()

	database, err := db.NewDB(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	tg := &fakeTelegram{}
	logger := zerolog.Nop()
	b, err := NewWithTelegramClient(tg, database, cache.NewBatchCache(nil, time.Hour), nil, nil, &logger)
	require.NoError(t, err)

	// Tuesday, September 1st. Fixed so day walks are reproducible.
	b.gen.UseRand(rand.New(rand.NewSource(1)))
	b.gen.UseClock(func() time.Time {
		return time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)
	})
	return b, tg
}

func messageUpdate(chatID, userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: userID},
			Chat:      &tgbotapi.Chat{ID: chatID},
			Text:      text,
		},
	}
}

func callbackUpdate(chatID, userID int64, msgID int, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb",
			From: &tgbotapi.User{ID: userID},
			Data: data,
			Message: &tgbotapi.Message{
				MessageID: msgID,
				Chat:      &tgbotapi.Chat{ID: chatID},
			},
		},
	}
}

func TestStartShowsHelp(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	u := messageUpdate(100, 7, "/start")
	b.handleUpdate(ctx, &u)

	text := tg.lastMessage(t).Text
	assert.Contains(t, text, "Hi! I generate randomized, non-overlapping appointment time slots.")
	assert.Contains(t, text, "/generate – create a new batch of time slots")
	assert.Contains(t, text, "/settings – view and change generation settings")
}

func TestUnknownCommand(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	u := messageUpdate(100, 7, "/frobnicate")
	b.handleUpdate(ctx, &u)

	assert.Equal(t, "Unknown command. /help lists what I can do.", tg.lastMessage(t).Text)
}

func TestIdleMessageHint(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	u := messageUpdate(100, 7, "hello there")
	b.handleUpdate(ctx, &u)

	assert.Equal(t, "Use /generate to create time slots, or /help for the command list.", tg.lastMessage(t).Text)
}

func TestGenerateDefaults(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	u := messageUpdate(100, 7, "/generate")
	b.handleUpdate(ctx, &u)

	msg := tg.lastMessage(t)
	require.True(t, strings.HasPrefix(msg.Text, "Randomly generated time slots!"), "batch message must start with the banner")
	assert.Contains(t, msg.Text, "- Time slots: 10")
	assert.Contains(t, msg.Text, "- Duration: 2h 30m")
	assert.Contains(t, msg.Text, "- Generate between 9:00 and 16:30")
	assert.Contains(t, msg.Text, "- Avoid entire days: Sat, Sun")
	assert.Contains(t, msg.Text, "- Avoid specific times: none")

	// Ten slots fit on one page, so no pagination header.
	assert.NotContains(t, msg.Text, "Page 1")
	assert.Equal(t, 10, strings.Count(msg.Text, ", from "))
	assert.NotContains(t, msg.Text, "could be placed")

	mk, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "batch message must carry an inline keyboard")
	require.Len(t, mk.InlineKeyboard, 2)
	assert.Len(t, mk.InlineKeyboard[0], 2)
	require.Len(t, mk.InlineKeyboard[1], 1)
	require.NotNil(t, mk.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "regen", *mk.InlineKeyboard[1][0].CallbackData)
}

func TestGenerateInvalidSettings(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	s, err := b.db.GetUserSettings(ctx, 7)
	require.NoError(t, err)
	s.DurationMinutes = 600 // does not fit the 9:00-16:30 window
	require.NoError(t, b.db.UpsertUserSettings(ctx, s))

	u := messageUpdate(100, 7, "/generate")
	b.handleUpdate(ctx, &u)

	text := tg.lastMessage(t).Text
	assert.Contains(t, text, "Cannot generate with these settings:")
	assert.Contains(t, text, "Change them with /settings.")
}

func TestGenerateUnderfulfilled(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	s, err := b.db.GetUserSettings(ctx, 7)
	require.NoError(t, err)
	s.SlotCount = 20
	s.DaysFromToday = 0
	s.AvoidDays = []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday,
		time.Thursday, time.Friday, time.Saturday,
	}
	require.NoError(t, b.db.UpsertUserSettings(ctx, s))

	u := messageUpdate(100, 7, "/generate")
	b.handleUpdate(ctx, &u)

	// Only Wednesdays are eligible: 13 of them in the 90 day scan from
	// September 1st, one slot each.
	text := tg.lastMessage(t).Text
	assert.Contains(t, text, "(only 13 of 20 slots could be placed)")
	assert.Equal(t, 13, strings.Count(text, ", from "))
}

func TestGeneratePagination(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	s, err := b.db.GetUserSettings(ctx, 7)
	require.NoError(t, err)
	s.SlotCount = 25
	s.MaxSlotsPerDay = 3
	s.DaysFromToday = 0
	require.NoError(t, b.db.UpsertUserSettings(ctx, s))

	u := messageUpdate(100, 7, "/generate")
	b.handleUpdate(ctx, &u)

	msg := tg.lastMessage(t)
	assert.Contains(t, msg.Text, "Page 1 of 3")
	assert.Equal(t, 10, strings.Count(msg.Text, ", from "))

	mk, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, mk.InlineKeyboard, 3)
	// First page: no previous arrow, just the counter and the next arrow.
	nav := mk.InlineKeyboard[0]
	require.Len(t, nav, 2)
	assert.Equal(t, "1/3", nav[0].Text)
	require.NotNil(t, nav[1].CallbackData)
	assert.Equal(t, "page:1", *nav[1].CallbackData)

	cb := callbackUpdate(100, 7, 42, "page:1")
	b.handleUpdate(ctx, &cb)

	edit := tg.lastEdit(t)
	assert.Equal(t, 42, edit.MessageID)
	assert.Contains(t, edit.Text, "Page 2 of 3")
	assert.Equal(t, 10, strings.Count(edit.Text, ", from "))
	require.NotNil(t, edit.ReplyMarkup)
	assert.Len(t, edit.ReplyMarkup.InlineKeyboard[0], 3)

	cb = callbackUpdate(100, 7, 42, "page:2")
	b.handleUpdate(ctx, &cb)

	edit = tg.lastEdit(t)
	assert.Contains(t, edit.Text, "Page 3 of 3")
	assert.Equal(t, 5, strings.Count(edit.Text, ", from "))
}

func TestLastCommand(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	u := messageUpdate(100, 7, "/last")
	b.handleUpdate(ctx, &u)
	assert.Equal(t, "No generated batch yet. Use /generate first.", tg.lastMessage(t).Text)

	u = messageUpdate(100, 7, "/generate")
	b.handleUpdate(ctx, &u)
	generated := tg.lastMessage(t).Text

	tg.reset()
	u = messageUpdate(100, 7, "/last")
	b.handleUpdate(ctx, &u)
	assert.Equal(t, generated, tg.lastMessage(t).Text, "last batch must replay from the cache unchanged")
}

func TestSettingsMenu(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	u := messageUpdate(100, 7, "/settings")
	b.handleUpdate(ctx, &u)

	msg := tg.lastMessage(t)
	assert.Contains(t, msg.Text, "Your generation settings.")
	assert.Contains(t, msg.Text, "- Time slots: 10")
	assert.Contains(t, msg.Text, "Tap a value below to change it.")

	mk, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, mk.InlineKeyboard, 5)
	assert.Equal(t, "Time slots: 10", mk.InlineKeyboard[0][0].Text)
	assert.Equal(t, "Avoid times (0)...", mk.InlineKeyboard[4][1].Text)
}

func TestSlotCountInput(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	cb := callbackUpdate(100, 7, 5, "set:slots")
	b.handleUpdate(ctx, &cb)
	assert.Equal(t, "Send the number of time slots to generate:", tg.lastMessage(t).Text)

	u := messageUpdate(100, 7, "lots")
	b.handleUpdate(ctx, &u)
	assert.Equal(t, "Send a positive number.", tg.lastMessage(t).Text)

	// The step survives a bad value, so a corrected one still lands.
	u = messageUpdate(100, 7, "25")
	b.handleUpdate(ctx, &u)
	assert.Contains(t, tg.lastMessage(t).Text, "- Time slots: 25")

	s, err := b.db.GetUserSettings(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 25, s.SlotCount)

	// Flow is finished, plain text goes back to the idle hint.
	u = messageUpdate(100, 7, "30")
	b.handleUpdate(ctx, &u)
	assert.Equal(t, "Use /generate to create time slots, or /help for the command list.", tg.lastMessage(t).Text)
}

func TestWindowStartInput(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	cb := callbackUpdate(100, 7, 5, "set:window_start")
	b.handleUpdate(ctx, &cb)
	assert.Equal(t, "Send the earliest start time (HH:MM):", tg.lastMessage(t).Text)

	u := messageUpdate(100, 7, "9am")
	b.handleUpdate(ctx, &u)
	assert.Equal(t, "Time must be in HH:MM format, e.g., 09:30", tg.lastMessage(t).Text)

	u = messageUpdate(100, 7, "8:15")
	b.handleUpdate(ctx, &u)
	assert.Contains(t, tg.lastMessage(t).Text, "- Generate between 8:15 and 16:30")

	s, err := b.db.GetUserSettings(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "8:15", s.WindowStart)
}

func TestCancelCommand(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	cb := callbackUpdate(100, 7, 5, "set:slots")
	b.handleUpdate(ctx, &cb)

	u := messageUpdate(100, 7, "/cancel")
	b.handleUpdate(ctx, &u)
	assert.Equal(t, "Cancelled.", tg.lastMessage(t).Text)

	u = messageUpdate(100, 7, "25")
	b.handleUpdate(ctx, &u)
	assert.Equal(t, "Use /generate to create time slots, or /help for the command list.", tg.lastMessage(t).Text)

	s, err := b.db.GetUserSettings(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, s.SlotCount)
}

func TestDayToggle(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	cb := callbackUpdate(100, 7, 5, "days:menu")
	b.handleUpdate(ctx, &cb)

	edit := tg.lastEdit(t)
	assert.Contains(t, edit.Text, "Tap a day to toggle")
	require.NotNil(t, edit.ReplyMarkup)
	assert.Equal(t, "Wed", edit.ReplyMarkup.InlineKeyboard[0][2].Text)
	assert.Equal(t, "🚫 Sat", edit.ReplyMarkup.InlineKeyboard[1][1].Text)

	cb = callbackUpdate(100, 7, 5, "day:3")
	b.handleUpdate(ctx, &cb)

	edit = tg.lastEdit(t)
	require.NotNil(t, edit.ReplyMarkup)
	assert.Equal(t, "🚫 Wed", edit.ReplyMarkup.InlineKeyboard[0][2].Text)

	s, err := b.db.GetUserSettings(ctx, 7)
	require.NoError(t, err)
	assert.Contains(t, s.AvoidDays, time.Wednesday)

	// A second tap flips it back.
	cb = callbackUpdate(100, 7, 5, "day:3")
	b.handleUpdate(ctx, &cb)

	s, err = b.db.GetUserSettings(ctx, 7)
	require.NoError(t, err)
	assert.NotContains(t, s.AvoidDays, time.Wednesday)
}

func TestAvoidTimeFlow(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	cb := callbackUpdate(100, 7, 5, "avoid:menu")
	b.handleUpdate(ctx, &cb)
	assert.Equal(t, "No avoided intervals yet.", tg.lastEdit(t).Text)

	cb = callbackUpdate(100, 7, 5, "avoid:add")
	b.handleUpdate(ctx, &cb)
	assert.Equal(t, "Pick the weekday for the new interval:", tg.lastEdit(t).Text)

	cb = callbackUpdate(100, 7, 5, "aday:1")
	b.handleUpdate(ctx, &cb)
	assert.Equal(t, "Send the interval for Monday as HH:MM-HH:MM:", tg.lastMessage(t).Text)

	u := messageUpdate(100, 7, "whenever")
	b.handleUpdate(ctx, &u)
	assert.Equal(t, "Send the interval as HH:MM-HH:MM, e.g., 09:00-10:30", tg.lastMessage(t).Text)

	u = messageUpdate(100, 7, "10:00-09:00")
	b.handleUpdate(ctx, &u)
	assert.Equal(t, "The end time must be after the start time.", tg.lastMessage(t).Text)

	u = messageUpdate(100, 7, "09:00-10:30")
	b.handleUpdate(ctx, &u)
	assert.Contains(t, tg.lastMessage(t).Text, "- Avoid specific times: Mon 9:00 – 10:30")

	times, err := b.db.ListAvoidTimes(ctx, 7)
	require.NoError(t, err)
	require.Len(t, times, 1)
	assert.Equal(t, time.Monday, times[0].Weekday)
	assert.Equal(t, "09:00", times[0].Start)
	assert.Equal(t, "10:30", times[0].End)

	// Adding the same interval again is refused.
	cb = callbackUpdate(100, 7, 5, "aday:1")
	b.handleUpdate(ctx, &cb)
	u = messageUpdate(100, 7, "09:00-10:30")
	b.handleUpdate(ctx, &u)
	assert.Equal(t, "That interval is already in the list.", tg.lastMessage(t).Text)

	// The interval list now shows one removable entry.
	tg.reset()
	cb = callbackUpdate(100, 7, 5, "avoid:menu")
	b.handleUpdate(ctx, &cb)
	edit := tg.lastEdit(t)
	assert.Contains(t, edit.Text, "Tap one to remove it:")
	require.NotNil(t, edit.ReplyMarkup)
	require.Len(t, edit.ReplyMarkup.InlineKeyboard, 3)
	assert.Equal(t, "🗑 Mon 9:00 – 10:30", edit.ReplyMarkup.InlineKeyboard[0][0].Text)
}

func TestAvoidTimeDelete(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	id, err := b.db.AddAvoidTime(ctx, 7, time.Friday, "13:00", "14:00")
	require.NoError(t, err)

	cb := callbackUpdate(100, 7, 5, fmt.Sprintf("avoid:del:%d", id))
	b.handleUpdate(ctx, &cb)

	assert.Equal(t, "No avoided intervals yet.", tg.lastEdit(t).Text)

	times, err := b.db.ListAvoidTimes(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, times)
}

func TestResetCommand(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	s, err := b.db.GetUserSettings(ctx, 7)
	require.NoError(t, err)
	s.SlotCount = 99
	require.NoError(t, b.db.UpsertUserSettings(ctx, s))
	_, err = b.db.AddAvoidTime(ctx, 7, time.Monday, "09:00", "10:00")
	require.NoError(t, err)

	u := messageUpdate(100, 7, "/reset")
	b.handleUpdate(ctx, &u)

	msgs := tg.messages()
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, "Settings restored to defaults.", msgs[len(msgs)-2].Text)
	assert.Contains(t, msgs[len(msgs)-1].Text, "- Time slots: 10")

	s, err = b.db.GetUserSettings(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, s.SlotCount)

	times, err := b.db.ListAvoidTimes(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, times)
}

func writeTestProfiles(t *testing.T) *config.ProfilesConfig {
	t.Helper()

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	data := `profiles:
  - name: clinic
    description: Morning clinic hours
    slot_count: 3
    duration_minutes: 60
    window_start: "10:00"
    window_end: "13:00"
    increment_minutes: 30
    days_from_today: 1
    max_slots_per_day: 3
    avoid_days: []
  - name: workshop
    slot_count: 2
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	profiles, err := config.LoadProfiles(path)
	require.NoError(t, err)
	return profiles
}

func TestProfilesNotConfigured(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	u := messageUpdate(100, 7, "/profile")
	b.handleUpdate(ctx, &u)
	assert.Equal(t, "No profiles are configured.", tg.lastMessage(t).Text)

	u = messageUpdate(100, 7, "/generate clinic")
	b.handleUpdate(ctx, &u)
	assert.Equal(t, "No profiles are configured.", tg.lastMessage(t).Text)
}

func TestProfiles(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()
	b.SetProfiles(writeTestProfiles(t))

	u := messageUpdate(100, 7, "/profile")
	b.handleUpdate(ctx, &u)

	msg := tg.lastMessage(t)
	assert.Contains(t, msg.Text, "clinic – Morning clinic hours")
	assert.Contains(t, msg.Text, "workshop")
	mk, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, mk.InlineKeyboard, 2)

	u = messageUpdate(100, 7, "/generate clinic")
	b.handleUpdate(ctx, &u)
	text := tg.lastMessage(t).Text
	assert.Contains(t, text, "- Time slots: 3")
	assert.Contains(t, text, "- Duration: 1h 0m")
	assert.Contains(t, text, "- Generate between 10:00 and 13:00")
	assert.Equal(t, 3, strings.Count(text, ", from "))

	u = messageUpdate(100, 7, "/generate nope")
	b.handleUpdate(ctx, &u)
	assert.Equal(t, `Unknown profile "nope". Use /profile to list them.`, tg.lastMessage(t).Text)

	// Tapping a profile button generates too.
	cb := callbackUpdate(100, 7, 5, "profile:workshop")
	b.handleUpdate(ctx, &cb)
	assert.Contains(t, tg.lastMessage(t).Text, "- Time slots: 2")
}

func TestExportXlsx(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	u := messageUpdate(100, 7, "/generate")
	b.handleUpdate(ctx, &u)

	cb := callbackUpdate(100, 7, 5, "export:xlsx")
	b.handleUpdate(ctx, &cb)

	docs := tg.documents()
	require.Len(t, docs, 1)
	fb, ok := docs[0].File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(fb.Name, "slots_"), "file name %q", fb.Name)
	assert.True(t, strings.HasSuffix(fb.Name, ".xlsx"), "file name %q", fb.Name)
	assert.NotEmpty(t, fb.Bytes)
}

func TestExportSheetsNotConfigured(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	u := messageUpdate(100, 7, "/generate")
	b.handleUpdate(ctx, &u)

	cb := callbackUpdate(100, 7, 5, "export:sheets")
	b.handleUpdate(ctx, &cb)
	assert.Equal(t, "Google Sheets export is not configured.", tg.lastMessage(t).Text)
}

func TestExportWithoutBatch(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	cb := callbackUpdate(100, 7, 5, "export:xlsx")
	b.handleUpdate(ctx, &cb)
	assert.Equal(t, "That batch has expired. Use /generate for a fresh one.", tg.lastMessage(t).Text)
}

func TestRegenerateKeepsProfile(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()
	b.SetProfiles(writeTestProfiles(t))

	u := messageUpdate(100, 7, "/generate clinic")
	b.handleUpdate(ctx, &u)
	assert.Contains(t, tg.lastMessage(t).Text, "- Time slots: 3")

	cb := callbackUpdate(100, 7, 5, "regen")
	b.handleUpdate(ctx, &cb)

	text := tg.lastMessage(t).Text
	assert.Contains(t, text, "- Time slots: 3")
	assert.Contains(t, text, "- Generate between 10:00 and 13:00")
}

func TestRegenerateWithoutBatch(t *testing.T) {
	b, tg := newTestBot(t)
	ctx := context.Background()

	// No cached batch: regenerate falls back to the stored settings.
	cb := callbackUpdate(100, 7, 5, "regen")
	b.handleUpdate(ctx, &cb)
	assert.Contains(t, tg.lastMessage(t).Text, "- Time slots: 10")
}

func TestRateLimitedSendKeepsAllMessages(t *testing.T) {
	b, tg := newTestBot(t)
	b.limiter = rate.NewLimiter(rate.Limit(1000), 1)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		u := messageUpdate(100, 7, "/help")
		b.handleUpdate(ctx, &u)
	}
	assert.Len(t, tg.messages(), 20)
}
