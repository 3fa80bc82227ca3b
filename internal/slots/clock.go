package slots

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekdays lists the days Monday first, the order settings are shown in.
var Weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// ParseClock parses 24-hour "HH:MM" into fractional hours: "09:30" -> 9.5.
func ParseClock(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	return float64(hour) + float64(minute)/60, nil
}

// FormatClock renders fractional hours as H:MM without a leading zero:
// 9.5 -> "9:30", 16.5 -> "16:30".
func FormatClock(hours float64) string {
	m := minutesFromHours(hours)
	return fmt.Sprintf("%d:%02d", m/60, m%60)
}

// FormatSlot renders a slot the way both front ends print it:
// "Monday, September 7, from 9:00 AM – 11:30 AM".
func FormatSlot(s TimeSlot) string {
	return fmt.Sprintf("%s, from %s – %s",
		s.Start.Format("Monday, January 2"),
		s.Start.Format("3:04 PM"),
		s.End.Format("3:04 PM"))
}

// FormatDuration renders minutes as "2h 30m".
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// FormatSettings renders the summary block printed before a batch.
func FormatSettings(cfg Config) string {
	return "Randomly generated time slots!\n\n" + FormatSettingsList(cfg)
}

// FormatSettingsList renders the settings block without the banner line.
func FormatSettingsList(cfg Config) string {
	var b strings.Builder
	b.WriteString("Settings:\n")
	fmt.Fprintf(&b, "- Time slots: %d\n", cfg.SlotCount)
	fmt.Fprintf(&b, "- Duration: %s\n", FormatDuration(int(cfg.SlotDuration/time.Minute)))
	fmt.Fprintf(&b, "- Generate between %s and %s\n", FormatClock(cfg.WindowStart), FormatClock(cfg.WindowEnd))
	fmt.Fprintf(&b, "- Increment: %dm\n", cfg.IncrementMinutes)
	fmt.Fprintf(&b, "- Start %d days from today\n", cfg.DaysFromToday)
	fmt.Fprintf(&b, "- Avoid entire days: %s\n", formatAvoidDays(cfg.AvoidWeekdays))
	fmt.Fprintf(&b, "- Avoid specific times: %s", formatAvoidTimes(cfg.AvoidRanges))
	return b.String()
}

// ParseWeekday accepts short or full English day names, case-insensitive.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday: %q", s)
}

// FormatWeekday renders the short day name: "Mon".
func FormatWeekday(d time.Weekday) string {
	return d.String()[:3]
}

func formatAvoidDays(days []time.Weekday) string {
	avoided := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		avoided[d] = true
	}

	var names []string
	for _, d := range Weekdays {
		if avoided[d] {
			names = append(names, FormatWeekday(d))
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func formatAvoidTimes(ranges map[time.Weekday][]HourRange) string {
	var entries []string
	for _, d := range Weekdays {
		for _, r := range ranges[d] {
			entries = append(entries, fmt.Sprintf("%s %s – %s", FormatWeekday(d), FormatClock(r.Start), FormatClock(r.End)))
		}
	}
	if len(entries) == 0 {
		return "none"
	}
	return strings.Join(entries, ", ")
}
