package slots

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

// Default safety bounds for the day walk and the per-day retry loop.
const (
	DefaultMaxScanDays = 90
	DefaultMaxAttempts = 50
)

// HourRange is a forbidden time-of-day interval in fractional hours,
// half-open: a slot touching an endpoint does not intersect it.
type HourRange struct {
	Start float64
	End   float64
}

// Config describes one batch of slots to generate. It is consumed by a
// single Generate call and never mutated.
type Config struct {
	SlotCount        int
	SlotDuration     time.Duration // whole minutes
	WindowStart      float64       // fractional hours, e.g. 9.5 = 09:30
	WindowEnd        float64
	IncrementMinutes int
	DaysFromToday    int
	AvoidWeekdays    []time.Weekday
	AvoidRanges      map[time.Weekday][]HourRange
	MaxSlotsPerDay   int

	// Zero means DefaultMaxScanDays / DefaultMaxAttempts.
	MaxScanDays int
	MaxAttempts int
}

// TimeSlot is one generated appointment interval.
type TimeSlot struct {
	Date  time.Time // midnight on the slot's calendar date
	Start time.Time
	End   time.Time
}

// Generator produces randomized slot batches.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator creates a generator seeded from the current time.
func NewGenerator() *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// UseRand replaces the random source, for reproducible batches.
func (g *Generator) UseRand(rng *rand.Rand) {
	g.rng = rng
}

// UseClock replaces the wall clock, for tests.
func (g *Generator) UseClock(now func() time.Time) {
	g.now = now
}

// Generate walks forward one calendar day at a time from today plus
// cfg.DaysFromToday, placing up to cfg.MaxSlotsPerDay random
// non-overlapping slots per eligible day, until cfg.SlotCount slots exist.
// The result is sorted by start time. It may hold fewer than
// cfg.SlotCount slots when the scan bound runs out before enough days
// qualify; that is not an error.
func (g *Generator) Generate(cfg Config) ([]TimeSlot, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	starts := candidateStarts(cfg)
	if len(starts) == 0 {
		return nil, &ConfigError{Field: "slot_duration", Reason: "no start time fits between window_start and window_end"}
	}

	avoidDays := make(map[time.Weekday]bool, len(cfg.AvoidWeekdays))
	for _, d := range cfg.AvoidWeekdays {
		avoidDays[d] = true
	}

	maxScanDays := cfg.MaxScanDays
	if maxScanDays <= 0 {
		maxScanDays = DefaultMaxScanDays
	}

	startDate := midnight(g.now()).AddDate(0, 0, cfg.DaysFromToday)

	var slots []TimeSlot
	for offset := 0; offset < maxScanDays && len(slots) < cfg.SlotCount; offset++ {
		date := startDate.AddDate(0, 0, offset)
		if avoidDays[date.Weekday()] {
			continue
		}

		slots = append(slots, g.placeDay(cfg, date, starts)...)

		sort.Slice(slots, func(i, j int) bool {
			return slots[i].Start.Before(slots[j].Start)
		})
		if len(slots) > cfg.SlotCount {
			slots = slots[:cfg.SlotCount]
		}
	}

	return slots, nil
}

// placeDay draws candidate starts at random and keeps those that clear the
// avoid ranges and the slots already accepted for the date. Every draw
// consumes one attempt, so a tightly packed day may end up with fewer than
// cfg.MaxSlotsPerDay slots. Best effort, not maximal packing.
func (g *Generator) placeDay(cfg Config, date time.Time, starts []int) []TimeSlot {
	durMin := int(cfg.SlotDuration / time.Minute)
	avoid := cfg.AvoidRanges[date.Weekday()]

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var accepted []TimeSlot
	for attempts := 0; len(accepted) < cfg.MaxSlotsPerDay && attempts < maxAttempts; attempts++ {
		startMin := starts[g.rng.Intn(len(starts))]
		endMin := startMin + durMin

		if intersectsAvoid(startMin, endMin, avoid) {
			continue
		}

		start := timeOnDate(date, startMin)
		end := start.Add(cfg.SlotDuration)
		if overlapsAccepted(start, end, accepted) {
			continue
		}

		accepted = append(accepted, TimeSlot{Date: date, Start: start, End: end})
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].Start.Before(accepted[j].Start)
	})
	return accepted
}

func (c Config) validate() error {
	switch {
	case c.SlotCount <= 0:
		return &ConfigError{Field: "slot_count", Reason: "must be a positive integer"}
	case c.SlotDuration <= 0:
		return &ConfigError{Field: "slot_duration", Reason: "must be a positive number of minutes"}
	case c.SlotDuration%time.Minute != 0:
		return &ConfigError{Field: "slot_duration", Reason: "must be a whole number of minutes"}
	case c.IncrementMinutes <= 0:
		return &ConfigError{Field: "increment_minutes", Reason: "must be a positive integer"}
	case c.MaxSlotsPerDay <= 0:
		return &ConfigError{Field: "max_slots_per_day", Reason: "must be a positive integer"}
	case c.DaysFromToday < 0:
		return &ConfigError{Field: "days_from_today", Reason: "must not be negative"}
	case c.WindowStart < 0:
		return &ConfigError{Field: "window_start", Reason: "must not be negative"}
	case c.WindowEnd > 24:
		return &ConfigError{Field: "window_end", Reason: "must not pass midnight"}
	case c.WindowStart >= c.WindowEnd:
		return &ConfigError{Field: "window_start", Reason: "must be before window_end"}
	}

	for _, ranges := range c.AvoidRanges {
		for _, r := range ranges {
			if r.Start < 0 || r.End > 24 || r.Start >= r.End {
				return &ConfigError{Field: "avoid_ranges", Reason: "bad interval " + FormatClock(r.Start) + " – " + FormatClock(r.End)}
			}
		}
	}
	return nil
}

// candidateStarts enumerates the valid slot start times for a single day
// as minutes since midnight: window start up to the last start that still
// fits the duration, stepped by the increment, upper bound inclusive.
func candidateStarts(cfg Config) []int {
	durMin := int(cfg.SlotDuration / time.Minute)
	last := minutesFromHours(cfg.WindowEnd) - durMin

	var starts []int
	for m := minutesFromHours(cfg.WindowStart); m <= last; m += cfg.IncrementMinutes {
		starts = append(starts, m)
	}
	return starts
}

func intersectsAvoid(startMin, endMin int, avoid []HourRange) bool {
	for _, r := range avoid {
		if startMin < minutesFromHours(r.End) && endMin > minutesFromHours(r.Start) {
			return true
		}
	}
	return false
}

func overlapsAccepted(start, end time.Time, accepted []TimeSlot) bool {
	for _, s := range accepted {
		if isOverlapping(start, end, s.Start, s.End) {
			return true
		}
	}
	return false
}

func isOverlapping(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}

// minutesFromHours converts fractional hours to whole minutes since
// midnight. Fractions finer than a minute round to the nearest minute.
func minutesFromHours(hours float64) int {
	return int(math.Round(hours * 60))
}

func timeOnDate(date time.Time, minutes int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, date.Location())
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
