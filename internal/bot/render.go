package bot

import (
	"fmt"
	"strings"

	"slotgen/internal/model"
	"slotgen/internal/slots"
)

const slotsPerPage = 10

func batchPages(b *model.Batch) int {
	if len(b.Slots) == 0 {
		return 1
	}
	return (len(b.Slots) + slotsPerPage - 1) / slotsPerPage
}

// renderBatchPage renders one page of a generated batch: the settings
// summary, then the slot lines of that page.
func renderBatchPage(b *model.Batch, page int) string {
	pages := batchPages(b)
	if page < 0 {
		page = 0
	}
	if page >= pages {
		page = pages - 1
	}

	var sb strings.Builder
	sb.WriteString(b.Header)
	sb.WriteString("\n\n")

	if b.Underfulfilled() {
		fmt.Fprintf(&sb, "(only %d of %d slots could be placed)\n\n", len(b.Slots), b.Requested)
	}

	if len(b.Slots) == 0 {
		sb.WriteString("No slots could be placed with these settings.")
		return sb.String()
	}

	if pages > 1 {
		fmt.Fprintf(&sb, "Page %d of %d\n\n", page+1, pages)
	}

	start := page * slotsPerPage
	end := start + slotsPerPage
	if end > len(b.Slots) {
		end = len(b.Slots)
	}
	for _, s := range b.Slots[start:end] {
		sb.WriteString(slots.FormatSlot(s))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderSettingsText(s *model.UserSettings, avoid []model.AvoidTime) string {
	cfg, err := s.ToSlotConfig(avoid)
	if err != nil {
		return "Stored settings are damaged. Use /reset to restore the defaults."
	}
	return "Your generation settings.\n\n" + slots.FormatSettingsList(cfg) + "\n\nTap a value below to change it."
}
