package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"slotgen/internal/db"
	"slotgen/internal/export"
	"slotgen/internal/metrics"
	"slotgen/internal/model"
	"slotgen/internal/slots"
)

// handleGenerate builds a configuration from stored settings or a named
// profile, generates a batch and sends its first page.
func (b *Bot) handleGenerate(ctx context.Context, chatID, userID int64, profileName string) {
	l := zerolog.Ctx(ctx)

	var cfg slots.Config
	if profileName != "" {
		profiles := b.currentProfiles()
		if profiles == nil {
			b.reply(ctx, chatID, "No profiles are configured.")
			return
		}
		p := profiles.GetProfile(profileName)
		if p == nil {
			b.reply(ctx, chatID, fmt.Sprintf("Unknown profile %q. Use /profile to list them.", profileName))
			return
		}
		var err error
		cfg, err = p.ToSlotConfig()
		if err != nil {
			l.Error().Err(err).Str("profile", profileName).Msg("Profile conversion failed")
			b.reply(ctx, chatID, "That profile is misconfigured.")
			return
		}
	} else {
		settings, err := b.db.GetUserSettings(ctx, userID)
		if err != nil {
			l.Error().Err(err).Int64("user_id", userID).Msg("Load settings failed")
			b.reply(ctx, chatID, "Could not load your settings. Try again later.")
			return
		}
		avoid, err := b.db.ListAvoidTimes(ctx, userID)
		if err != nil {
			l.Error().Err(err).Int64("user_id", userID).Msg("Load avoid times failed")
			b.reply(ctx, chatID, "Could not load your settings. Try again later.")
			return
		}
		cfg, err = settings.ToSlotConfig(avoid)
		if err != nil {
			l.Error().Err(err).Int64("user_id", userID).Msg("Stored settings invalid")
			b.reply(ctx, chatID, "Stored settings are damaged. Use /reset to restore the defaults.")
			return
		}
	}

	started := time.Now()
	batch, err := b.gen.Generate(cfg)
	metrics.ObserveGenerationDuration(time.Since(started).Seconds())
	if err != nil {
		if ce, ok := slots.AsConfigError(err); ok {
			metrics.IncGeneration("invalid")
			b.reply(ctx, chatID, fmt.Sprintf("Cannot generate with these settings: %s %s. Change them with /settings.", ce.Field, ce.Reason))
			return
		}
		metrics.IncGeneration("error")
		l.Error().Err(err).Msg("Generation failed")
		b.reply(ctx, chatID, "Generation failed. Try again later.")
		return
	}
	outcome := "ok"
	if len(batch) < cfg.SlotCount {
		outcome = "underfilled"
	}
	metrics.IncGeneration(outcome)
	metrics.AddSlotsGenerated(len(batch))

	mb := &model.Batch{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		CreatedAt: time.Now(),
		Requested: cfg.SlotCount,
		Profile:   profileName,
		Header:    slots.FormatSettings(cfg),
		Slots:     batch,
	}
	if err := b.cache.Store(ctx, mb); err != nil {
		l.Warn().Err(err).Msg("Batch cache store failed")
	}
	l.Info().
		Int("slots", len(batch)).
		Int("requested", cfg.SlotCount).
		Str("batch_id", mb.ID).
		Msg("Batch generated")

	b.sendBatchPage(ctx, chatID, 0, mb, 0)
}

func (b *Bot) sendBatchPage(ctx context.Context, chatID int64, msgID int, batch *model.Batch, page int) {
	text := renderBatchPage(batch, page)
	markup := batchKeyboard(page, batchPages(batch))

	if msgID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, markup)
		_, _ = b.send(ctx, edit)
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	_, _ = b.send(ctx, msg)
}

func (b *Bot) handleLast(ctx context.Context, chatID int64) {
	batch, err := b.cache.Load(ctx, chatID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Batch cache load failed")
	}
	if batch == nil {
		b.reply(ctx, chatID, "No generated batch yet. Use /generate first.")
		return
	}
	b.sendBatchPage(ctx, chatID, 0, batch, 0)
}

// handleRegenerate reruns the last generation, keeping the profile the
// cached batch was built with. Without a cached batch it falls back to the
// user's stored settings.
func (b *Bot) handleRegenerate(ctx context.Context, chatID, userID int64) {
	profile := ""
	if batch, err := b.cache.Load(ctx, chatID); err == nil && batch != nil {
		profile = batch.Profile
	}
	b.handleGenerate(ctx, chatID, userID, profile)
}

func (b *Bot) settingsMessage(ctx context.Context, userID int64) (string, tgbotapi.InlineKeyboardMarkup, error) {
	settings, err := b.db.GetUserSettings(ctx, userID)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}
	avoid, err := b.db.ListAvoidTimes(ctx, userID)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}
	return renderSettingsText(settings, avoid), settingsKeyboard(settings, len(avoid)), nil
}

func (b *Bot) sendSettings(ctx context.Context, chatID, userID int64) {
	text, markup, err := b.settingsMessage(ctx, userID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Load settings failed")
		b.reply(ctx, chatID, "Could not load your settings. Try again later.")
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	_, _ = b.send(ctx, msg)
}

func (b *Bot) editSettings(ctx context.Context, chatID, userID int64, msgID int) {
	text, markup, err := b.settingsMessage(ctx, userID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Load settings failed")
		b.reply(ctx, chatID, "Could not load your settings. Try again later.")
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, markup)
	_, _ = b.send(ctx, edit)
}

func (b *Bot) handleSetCallback(ctx context.Context, chatID, userID int64, field string) {
	st := b.state.get(userID)

	var prompt string
	switch field {
	case "slots":
		st.Step = stepSlotCount
		prompt = "Send the number of time slots to generate:"
	case "duration":
		st.Step = stepDuration
		prompt = "Send the slot duration in minutes:"
	case "window_start":
		st.Step = stepWindowStart
		prompt = "Send the earliest start time (HH:MM):"
	case "window_end":
		st.Step = stepWindowEnd
		prompt = "Send the latest end time (HH:MM):"
	case "increment":
		st.Step = stepIncrement
		prompt = "Send the start time increment in minutes:"
	case "days":
		st.Step = stepDays
		prompt = "Send how many days from today to start:"
	case "max_per_day":
		st.Step = stepMaxPerDay
		prompt = "Send the maximum number of slots per day:"
	default:
		return
	}
	b.reply(ctx, chatID, prompt)
}

func (b *Bot) handleInput(ctx context.Context, chatID, userID int64, st *userState, text string) {
	if st.Step == stepAvoidTime {
		b.handleAvoidTimeInput(ctx, chatID, userID, st, text)
		return
	}

	settings, err := b.db.GetUserSettings(ctx, userID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Load settings failed")
		b.reply(ctx, chatID, "Could not load your settings. Try again later.")
		return
	}

	switch st.Step {
	case stepSlotCount:
		n, err := strconv.Atoi(text)
		if err != nil || n <= 0 {
			b.reply(ctx, chatID, "Send a positive number.")
			return
		}
		settings.SlotCount = n
	case stepDuration:
		n, err := strconv.Atoi(text)
		if err != nil || n <= 0 {
			b.reply(ctx, chatID, "Send a positive number of minutes.")
			return
		}
		settings.DurationMinutes = n
	case stepWindowStart:
		if _, err := slots.ParseClock(text); err != nil {
			b.reply(ctx, chatID, timeFormatHint)
			return
		}
		settings.WindowStart = text
	case stepWindowEnd:
		if _, err := slots.ParseClock(text); err != nil {
			b.reply(ctx, chatID, timeFormatHint)
			return
		}
		settings.WindowEnd = text
	case stepIncrement:
		n, err := strconv.Atoi(text)
		if err != nil || n <= 0 {
			b.reply(ctx, chatID, "Send a positive number of minutes.")
			return
		}
		settings.IncrementMinutes = n
	case stepDays:
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 {
			b.reply(ctx, chatID, "Send a number of days, 0 or more.")
			return
		}
		settings.DaysFromToday = n
	case stepMaxPerDay:
		n, err := strconv.Atoi(text)
		if err != nil || n <= 0 {
			b.reply(ctx, chatID, "Send a positive number.")
			return
		}
		settings.MaxSlotsPerDay = n
	default:
		return
	}

	if err := b.db.UpsertUserSettings(ctx, settings); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Save settings failed")
		b.reply(ctx, chatID, "Could not save the setting. Try again later.")
		return
	}
	b.state.reset(userID)
	b.sendSettings(ctx, chatID, userID)
}

func (b *Bot) handleAvoidTimeInput(ctx context.Context, chatID, userID int64, st *userState, text string) {
	parts := strings.SplitN(strings.ReplaceAll(text, " ", ""), "-", 2)
	if len(parts) != 2 {
		b.reply(ctx, chatID, "Send the interval as HH:MM-HH:MM, e.g., 09:00-10:30")
		return
	}
	start, err := slots.ParseClock(parts[0])
	if err != nil {
		b.reply(ctx, chatID, timeFormatHint)
		return
	}
	end, err := slots.ParseClock(parts[1])
	if err != nil {
		b.reply(ctx, chatID, timeFormatHint)
		return
	}
	if start >= end {
		b.reply(ctx, chatID, "The end time must be after the start time.")
		return
	}

	_, err = b.db.AddAvoidTime(ctx, userID, st.AvoidDay, parts[0], parts[1])
	if errors.Is(err, db.ErrDuplicateAvoidTime) {
		b.reply(ctx, chatID, "That interval is already in the list.")
		return
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Add avoid time failed")
		b.reply(ctx, chatID, "Could not save the interval. Try again later.")
		return
	}
	b.state.reset(userID)
	b.sendSettings(ctx, chatID, userID)
}

func (b *Bot) sendDayGrid(ctx context.Context, chatID, userID int64, msgID int) {
	settings, err := b.db.GetUserSettings(ctx, userID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Load settings failed")
		b.reply(ctx, chatID, "Could not load your settings. Try again later.")
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID,
		"Tap a day to toggle whether it is avoided entirely:",
		dayGridKeyboard(settings.AvoidDays))
	_, _ = b.send(ctx, edit)
}

func (b *Bot) handleDayToggle(ctx context.Context, chatID, userID int64, msgID int, arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 || n > 6 {
		return
	}
	if _, err := b.db.ToggleAvoidDay(ctx, userID, time.Weekday(n)); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Toggle avoid day failed")
		b.reply(ctx, chatID, "Could not save the setting. Try again later.")
		return
	}
	b.sendDayGrid(ctx, chatID, userID, msgID)
}

func (b *Bot) sendAvoidTimes(ctx context.Context, chatID, userID int64, msgID int) {
	times, err := b.db.ListAvoidTimes(ctx, userID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Load avoid times failed")
		b.reply(ctx, chatID, "Could not load your settings. Try again later.")
		return
	}

	text := "Intervals that never get a slot. Tap one to remove it:"
	if len(times) == 0 {
		text = "No avoided intervals yet."
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, avoidTimesKeyboard(times))
	_, _ = b.send(ctx, edit)
}

func (b *Bot) sendWeekdayPick(ctx context.Context, chatID int64, msgID int) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID,
		"Pick the weekday for the new interval:", weekdayPickKeyboard())
	_, _ = b.send(ctx, edit)
}

func (b *Bot) handleAvoidDayPick(ctx context.Context, chatID, userID int64, arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 || n > 6 {
		return
	}
	st := b.state.get(userID)
	st.Step = stepAvoidTime
	st.AvoidDay = time.Weekday(n)
	b.reply(ctx, chatID, fmt.Sprintf("Send the interval for %s as HH:MM-HH:MM:", time.Weekday(n)))
}

func (b *Bot) handleAvoidDelete(ctx context.Context, chatID, userID int64, msgID int, arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return
	}
	err = b.db.DeleteAvoidTime(ctx, userID, id)
	if err != nil && !errors.Is(err, db.ErrAvoidTimeNotFound) {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Delete avoid time failed")
		b.reply(ctx, chatID, "Could not remove the interval. Try again later.")
		return
	}
	b.sendAvoidTimes(ctx, chatID, userID, msgID)
}

func (b *Bot) handlePage(ctx context.Context, chatID int64, msgID int, arg string) {
	page, err := strconv.Atoi(arg)
	if err != nil {
		return
	}
	batch, err := b.cache.Load(ctx, chatID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Batch cache load failed")
	}
	if batch == nil {
		b.reply(ctx, chatID, "That batch has expired. Use /generate for a fresh one.")
		return
	}
	b.sendBatchPage(ctx, chatID, msgID, batch, page)
}

func (b *Bot) handleExport(ctx context.Context, chatID int64, format string) {
	batch, err := b.cache.Load(ctx, chatID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Batch cache load failed")
	}
	if batch == nil {
		b.reply(ctx, chatID, "That batch has expired. Use /generate for a fresh one.")
		return
	}

	switch format {
	case "xlsx":
		var buf bytes.Buffer
		if err := export.WriteExcel(&buf, batch.Slots); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Excel export failed")
			b.reply(ctx, chatID, "Export failed. Try again later.")
			return
		}
		name := fmt.Sprintf("slots_%s.xlsx", batch.CreatedAt.Format("20060102"))
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: buf.Bytes()})
		if _, err := b.send(ctx, doc); err != nil {
			return
		}
		metrics.IncExport("xlsx")
	case "sheets":
		if b.sheets == nil {
			b.reply(ctx, chatID, "Google Sheets export is not configured.")
			return
		}
		if err := b.sheets.Append(ctx, batch.Slots); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Sheets export failed")
			b.reply(ctx, chatID, "Export failed. Try again later.")
			return
		}
		metrics.IncExport("sheets")
		b.reply(ctx, chatID, fmt.Sprintf("Added %d rows to the spreadsheet.", len(batch.Slots)))
	}
}

func (b *Bot) handleProfiles(ctx context.Context, chatID int64) {
	profiles := b.currentProfiles()
	if profiles == nil || len(profiles.Names()) == 0 {
		b.reply(ctx, chatID, "No profiles are configured.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Available profiles:\n\n")
	for _, name := range profiles.Names() {
		p := profiles.GetProfile(name)
		if p != nil && p.Description != "" {
			fmt.Fprintf(&sb, "%s – %s\n", name, p.Description)
		} else {
			sb.WriteString(name + "\n")
		}
	}
	sb.WriteString("\nPick one to generate with it:")

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = profilesKeyboard(profiles.Names())
	_, _ = b.send(ctx, msg)
}

func (b *Bot) handleReset(ctx context.Context, chatID, userID int64) {
	if err := b.db.ResetUserSettings(ctx, userID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Reset settings failed")
		b.reply(ctx, chatID, "Could not reset the settings. Try again later.")
		return
	}
	b.state.reset(userID)
	b.reply(ctx, chatID, "Settings restored to defaults.")
	b.sendSettings(ctx, chatID, userID)
}
