package model

import (
	"fmt"
	"time"

	"slotgen/internal/slots"
)

// UserSettings stores one user's generation preferences.
type UserSettings struct {
	UserID           int64          `json:"user_id"`
	SlotCount        int            `json:"slot_count"`
	DurationMinutes  int            `json:"duration_minutes"`
	WindowStart      string         `json:"window_start"` // "09:00"
	WindowEnd        string         `json:"window_end"`   // "16:30"
	IncrementMinutes int            `json:"increment_minutes"`
	DaysFromToday    int            `json:"days_from_today"`
	MaxSlotsPerDay   int            `json:"max_slots_per_day"`
	AvoidDays        []time.Weekday `json:"avoid_days"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// AvoidTime is one stored forbidden interval on a weekday.
type AvoidTime struct {
	ID      int64        `json:"id"`
	UserID  int64        `json:"user_id"`
	Weekday time.Weekday `json:"weekday"`
	Start   string       `json:"start"` // "09:00"
	End     string       `json:"end"`   // "10:30"
}

// DefaultUserSettings returns the out-of-box preferences for a new user.
func DefaultUserSettings(userID int64) *UserSettings {
	return &UserSettings{
		UserID:           userID,
		SlotCount:        10,
		DurationMinutes:  150,
		WindowStart:      "09:00",
		WindowEnd:        "16:30",
		IncrementMinutes: 30,
		DaysFromToday:    7,
		MaxSlotsPerDay:   1,
		AvoidDays:        []time.Weekday{time.Saturday, time.Sunday},
	}
}

// ToSlotConfig converts the stored preferences plus avoid times into a
// generator configuration.
func (s *UserSettings) ToSlotConfig(avoidTimes []AvoidTime) (slots.Config, error) {
	windowStart, err := slots.ParseClock(s.WindowStart)
	if err != nil {
		return slots.Config{}, fmt.Errorf("window_start: %w", err)
	}
	windowEnd, err := slots.ParseClock(s.WindowEnd)
	if err != nil {
		return slots.Config{}, fmt.Errorf("window_end: %w", err)
	}

	var ranges map[time.Weekday][]slots.HourRange
	if len(avoidTimes) > 0 {
		ranges = make(map[time.Weekday][]slots.HourRange)
		for _, at := range avoidTimes {
			start, err := slots.ParseClock(at.Start)
			if err != nil {
				return slots.Config{}, fmt.Errorf("avoid time start: %w", err)
			}
			end, err := slots.ParseClock(at.End)
			if err != nil {
				return slots.Config{}, fmt.Errorf("avoid time end: %w", err)
			}
			ranges[at.Weekday] = append(ranges[at.Weekday], slots.HourRange{Start: start, End: end})
		}
	}

	return slots.Config{
		SlotCount:        s.SlotCount,
		SlotDuration:     time.Duration(s.DurationMinutes) * time.Minute,
		WindowStart:      windowStart,
		WindowEnd:        windowEnd,
		IncrementMinutes: s.IncrementMinutes,
		DaysFromToday:    s.DaysFromToday,
		AvoidWeekdays:    s.AvoidDays,
		AvoidRanges:      ranges,
		MaxSlotsPerDay:   s.MaxSlotsPerDay,
	}, nil
}
