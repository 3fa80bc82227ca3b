package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"slotgen/internal/model"
	"slotgen/internal/slots"
)

// ErrDuplicateAvoidTime is returned when an identical interval is already stored.
var ErrDuplicateAvoidTime = errors.New("avoid time already exists")

// ErrAvoidTimeNotFound is returned when the interval to delete does not exist.
var ErrAvoidTimeNotFound = errors.New("avoid time not found")

// GetUserSettings returns stored settings for a user.
// If no settings exist, returns default settings.
func (db *DB) GetUserSettings(ctx context.Context, userID int64) (*model.UserSettings, error) {
	row := db.QueryRowContext(ctx, `
		SELECT user_id, slot_count, duration_minutes, window_start, window_end,
		       increment_minutes, days_from_today, max_slots_per_day, avoid_days,
		       created_at, updated_at
		FROM user_settings
		WHERE user_id = ?`, userID)

	var s model.UserSettings
	var avoidDays string
	err := row.Scan(&s.UserID, &s.SlotCount, &s.DurationMinutes, &s.WindowStart, &s.WindowEnd,
		&s.IncrementMinutes, &s.DaysFromToday, &s.MaxSlotsPerDay, &avoidDays,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.DefaultUserSettings(userID), nil
		}
		return nil, err
	}
	s.AvoidDays, err = decodeAvoidDays(avoidDays)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	return &s, nil
}

// UpsertUserSettings creates or updates settings for a user.
func (db *DB) UpsertUserSettings(ctx context.Context, s *model.UserSettings) error {
	now := time.Now()

	_, err := db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, slot_count, duration_minutes, window_start, window_end,
			increment_minutes, days_from_today, max_slots_per_day, avoid_days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			slot_count = excluded.slot_count,
			duration_minutes = excluded.duration_minutes,
			window_start = excluded.window_start,
			window_end = excluded.window_end,
			increment_minutes = excluded.increment_minutes,
			days_from_today = excluded.days_from_today,
			max_slots_per_day = excluded.max_slots_per_day,
			avoid_days = excluded.avoid_days,
			updated_at = excluded.updated_at`,
		s.UserID, s.SlotCount, s.DurationMinutes, s.WindowStart, s.WindowEnd,
		s.IncrementMinutes, s.DaysFromToday, s.MaxSlotsPerDay, encodeAvoidDays(s.AvoidDays), now, now)
	return err
}

// ToggleAvoidDay flips one weekday in the avoid list and returns whether the
// day is now avoided.
func (db *DB) ToggleAvoidDay(ctx context.Context, userID int64, day time.Weekday) (bool, error) {
	settings, err := db.GetUserSettings(ctx, userID)
	if err != nil {
		return false, err
	}

	wasAvoided := false
	var kept []time.Weekday
	for _, d := range settings.AvoidDays {
		if d == day {
			wasAvoided = true
			continue
		}
		kept = append(kept, d)
	}
	if wasAvoided {
		settings.AvoidDays = kept
	} else {
		settings.AvoidDays = append(settings.AvoidDays, day)
	}

	if err := db.UpsertUserSettings(ctx, settings); err != nil {
		return false, err
	}
	return !wasAvoided, nil
}

// ResetUserSettings removes stored settings and avoid times for a user, so
// subsequent reads see the defaults again.
func (db *DB) ResetUserSettings(ctx context.Context, userID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM avoid_times WHERE user_id = ?`, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_settings WHERE user_id = ?`, userID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListAvoidTimes returns all stored intervals for a user in insertion order.
func (db *DB) ListAvoidTimes(ctx context.Context, userID int64) ([]model.AvoidTime, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, weekday, start_time, end_time
		FROM avoid_times
		WHERE user_id = ?
		ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []model.AvoidTime
	for rows.Next() {
		var at model.AvoidTime
		var weekday string
		if err := rows.Scan(&at.ID, &at.UserID, &weekday, &at.Start, &at.End); err != nil {
			return nil, err
		}
		at.Weekday, err = slots.ParseWeekday(weekday)
		if err != nil {
			return nil, err
		}
		times = append(times, at)
	}
	return times, rows.Err()
}

// AddAvoidTime stores a forbidden interval and returns its ID.
// Returns ErrDuplicateAvoidTime when the same interval is already stored.
func (db *DB) AddAvoidTime(ctx context.Context, userID int64, day time.Weekday, start, end string) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO avoid_times (user_id, weekday, start_time, end_time)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, weekday, start_time, end_time) DO NOTHING`,
		userID, slots.FormatWeekday(day), start, end)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrDuplicateAvoidTime
	}
	return res.LastInsertId()
}

// DeleteAvoidTime removes one stored interval by ID.
func (db *DB) DeleteAvoidTime(ctx context.Context, userID, id int64) error {
	res, err := db.ExecContext(ctx, `
		DELETE FROM avoid_times WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAvoidTimeNotFound
	}
	return nil
}

// encodeAvoidDays renders the avoid list as a comma separated string of
// short day names, Monday first, deduplicated.
func encodeAvoidDays(days []time.Weekday) string {
	avoided := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		avoided[d] = true
	}

	var names []string
	for _, d := range slots.Weekdays {
		if avoided[d] {
			names = append(names, slots.FormatWeekday(d))
		}
	}
	return strings.Join(names, ",")
}

func decodeAvoidDays(s string) ([]time.Weekday, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		d, err := slots.ParseWeekday(p)
		if err != nil {
			return nil, fmt.Errorf("avoid_days: %w", err)
		}
		days = append(days, d)
	}
	return days, nil
}
