package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"slotgen/internal/model"
	"slotgen/internal/slots"
)

func settingsKeyboard(s *model.UserSettings, avoidTimes int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Time slots: %d", s.SlotCount), "set:slots"),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Duration: %s", slots.FormatDuration(s.DurationMinutes)), "set:duration"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("From: %s", clockLabel(s.WindowStart)), "set:window_start"),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("To: %s", clockLabel(s.WindowEnd)), "set:window_end"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Increment: %dm", s.IncrementMinutes), "set:increment"),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Days ahead: %d", s.DaysFromToday), "set:days"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Max per day: %d", s.MaxSlotsPerDay), "set:max_per_day"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Avoid days...", "days:menu"),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Avoid times (%d)...", avoidTimes), "avoid:menu"),
		),
	)
}

func dayGridKeyboard(avoided []time.Weekday) tgbotapi.InlineKeyboardMarkup {
	skip := make(map[time.Weekday]bool, len(avoided))
	for _, d := range avoided {
		skip[d] = true
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, d := range slots.Weekdays {
		label := slots.FormatWeekday(d)
		if skip[d] {
			label = "🚫 " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("day:%d", int(d))))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Done", "back:settings"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func avoidTimesKeyboard(times []model.AvoidTime) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, at := range times {
		label := fmt.Sprintf("🗑 %s %s – %s",
			slots.FormatWeekday(at.Weekday), clockLabel(at.Start), clockLabel(at.End))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("avoid:del:%d", at.ID)),
		))
	}

	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Add interval", "avoid:add")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "back:settings")),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func weekdayPickKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, d := range slots.Weekdays {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(slots.FormatWeekday(d), fmt.Sprintf("aday:%d", int(d))))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "avoid:menu"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func batchKeyboard(page, pages int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	if pages > 1 {
		var nav []tgbotapi.InlineKeyboardButton
		if page > 0 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️", fmt.Sprintf("page:%d", page-1)))
		}
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", page+1, pages), "noop"))
		if page < pages-1 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️", fmt.Sprintf("page:%d", page+1)))
		}
		rows = append(rows, nav)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📄 Export .xlsx", "export:xlsx"),
		tgbotapi.NewInlineKeyboardButtonData("📊 Export to Sheets", "export:sheets"),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Regenerate", "regen"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func profilesKeyboard(names []string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, n := range names {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(n, "profile:"+n),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// clockLabel renders a stored HH:MM string without the leading zero.
func clockLabel(s string) string {
	h, err := slots.ParseClock(s)
	if err != nil {
		return s
	}
	return slots.FormatClock(h)
}
