package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"slotgen/internal/slots"
)

// ProfileConfig is a single named generation preset.
type ProfileConfig struct {
	Name             string            `yaml:"name"`
	Description      string            `yaml:"description"`
	SlotCount        int               `yaml:"slot_count"`
	DurationMinutes  int               `yaml:"duration_minutes"`
	WindowStart      string            `yaml:"window_start"` // "09:00"
	WindowEnd        string            `yaml:"window_end"`   // "16:30"
	IncrementMinutes int               `yaml:"increment_minutes"`
	DaysFromToday    *int              `yaml:"days_from_today,omitempty"`
	MaxSlotsPerDay   int               `yaml:"max_slots_per_day"`
	AvoidDays        []string          `yaml:"avoid_days"` // "Sat", "Sun"
	AvoidTimes       []AvoidTimeConfig `yaml:"avoid_times"`
}

// AvoidTimeConfig is one forbidden time range on a weekday.
type AvoidTimeConfig struct {
	Day   string `yaml:"day"`
	Start string `yaml:"start"` // "09:00"
	End   string `yaml:"end"`   // "10:30"
}

// ProfilesConfig is the root configuration for profiles.yaml.
type ProfilesConfig struct {
	Defaults ProfileConfig   `yaml:"defaults"`
	Profiles []ProfileConfig `yaml:"profiles"`
}

// DefaultProfile returns the out-of-box generation settings.
func DefaultProfile() ProfileConfig {
	days := 7
	return ProfileConfig{
		SlotCount:        10,
		DurationMinutes:  150,
		WindowStart:      "09:00",
		WindowEnd:        "16:30",
		IncrementMinutes: 30,
		DaysFromToday:    &days,
		MaxSlotsPerDay:   1,
		AvoidDays:        []string{"Sat", "Sun"},
	}
}

// LoadProfiles loads and validates generation profiles from a YAML file.
func LoadProfiles(path string) (*ProfilesConfig, error) {
	if path == "" {
		path = "configs/profiles.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles config: %w", err)
	}

	var cfg ProfilesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse profiles config: %w", err)
	}

	// Fill profiles without explicit values from the defaults section, and
	// the defaults section itself from the built-in profile.
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate profiles config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *ProfilesConfig) Validate() error {
	if err := validateProfile(&c.Defaults, "defaults"); err != nil {
		return err
	}

	names := make(map[string]bool)
	for i := range c.Profiles {
		p := &c.Profiles[i]
		if p.Name == "" {
			return fmt.Errorf("profile[%d]: name is required", i)
		}
		if names[p.Name] {
			return fmt.Errorf("profile[%d]: duplicate name '%s'", i, p.Name)
		}
		names[p.Name] = true

		if err := validateProfile(p, fmt.Sprintf("profile[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func validateProfile(p *ProfileConfig, prefix string) error {
	if p.SlotCount <= 0 {
		return fmt.Errorf("%s.slot_count must be positive", prefix)
	}
	if p.DurationMinutes <= 0 {
		return fmt.Errorf("%s.duration_minutes must be positive", prefix)
	}
	if p.IncrementMinutes <= 0 {
		return fmt.Errorf("%s.increment_minutes must be positive", prefix)
	}
	if p.MaxSlotsPerDay <= 0 {
		return fmt.Errorf("%s.max_slots_per_day must be positive", prefix)
	}
	if p.DaysFromToday != nil && *p.DaysFromToday < 0 {
		return fmt.Errorf("%s.days_from_today cannot be negative", prefix)
	}

	start, err := slots.ParseClock(p.WindowStart)
	if err != nil {
		return fmt.Errorf("%s.window_start: invalid format '%s', expected HH:MM", prefix, p.WindowStart)
	}
	end, err := slots.ParseClock(p.WindowEnd)
	if err != nil {
		return fmt.Errorf("%s.window_end: invalid format '%s', expected HH:MM", prefix, p.WindowEnd)
	}
	if end <= start {
		return fmt.Errorf("%s: window_end must be after window_start", prefix)
	}
	if clockMinutes(start)+p.DurationMinutes > clockMinutes(end) {
		return fmt.Errorf("%s: duration of %dm does not fit the window", prefix, p.DurationMinutes)
	}

	for j, d := range p.AvoidDays {
		if _, err := slots.ParseWeekday(d); err != nil {
			return fmt.Errorf("%s.avoid_days[%d]: %v", prefix, j, err)
		}
	}

	for j, at := range p.AvoidTimes {
		if _, err := slots.ParseWeekday(at.Day); err != nil {
			return fmt.Errorf("%s.avoid_times[%d]: %v", prefix, j, err)
		}
		s, err := slots.ParseClock(at.Start)
		if err != nil {
			return fmt.Errorf("%s.avoid_times[%d].start: invalid format '%s', expected HH:MM", prefix, j, at.Start)
		}
		e, err := slots.ParseClock(at.End)
		if err != nil {
			return fmt.Errorf("%s.avoid_times[%d].end: invalid format '%s', expected HH:MM", prefix, j, at.End)
		}
		if e <= s {
			return fmt.Errorf("%s.avoid_times[%d]: end must be after start", prefix, j)
		}
	}

	return nil
}

func (c *ProfilesConfig) applyDefaults() {
	fillProfile(&c.Defaults, DefaultProfile())
	for i := range c.Profiles {
		fillProfile(&c.Profiles[i], c.Defaults)
	}
}

func fillProfile(p *ProfileConfig, from ProfileConfig) {
	if p.SlotCount == 0 {
		p.SlotCount = from.SlotCount
	}
	if p.DurationMinutes == 0 {
		p.DurationMinutes = from.DurationMinutes
	}
	if p.WindowStart == "" {
		p.WindowStart = from.WindowStart
	}
	if p.WindowEnd == "" {
		p.WindowEnd = from.WindowEnd
	}
	if p.IncrementMinutes == 0 {
		p.IncrementMinutes = from.IncrementMinutes
	}
	if p.DaysFromToday == nil {
		p.DaysFromToday = from.DaysFromToday
	}
	if p.MaxSlotsPerDay == 0 {
		p.MaxSlotsPerDay = from.MaxSlotsPerDay
	}
	if p.AvoidDays == nil {
		p.AvoidDays = from.AvoidDays
	}
	if p.AvoidTimes == nil {
		p.AvoidTimes = from.AvoidTimes
	}
}

// GetProfile returns a profile by name, or nil.
func (c *ProfilesConfig) GetProfile(name string) *ProfileConfig {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i]
		}
	}
	return nil
}

// Names lists the profile names in file order.
func (c *ProfilesConfig) Names() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// String returns a summary of the configuration.
func (c *ProfilesConfig) String() string {
	return fmt.Sprintf("ProfilesConfig: %d profiles", len(c.Profiles))
}

// ToSlotConfig converts the preset into a generator configuration.
func (p ProfileConfig) ToSlotConfig() (slots.Config, error) {
	windowStart, err := slots.ParseClock(p.WindowStart)
	if err != nil {
		return slots.Config{}, fmt.Errorf("window_start: %w", err)
	}
	windowEnd, err := slots.ParseClock(p.WindowEnd)
	if err != nil {
		return slots.Config{}, fmt.Errorf("window_end: %w", err)
	}

	avoidDays := make([]time.Weekday, 0, len(p.AvoidDays))
	for _, name := range p.AvoidDays {
		d, err := slots.ParseWeekday(name)
		if err != nil {
			return slots.Config{}, fmt.Errorf("avoid_days: %w", err)
		}
		avoidDays = append(avoidDays, d)
	}

	var avoidRanges map[time.Weekday][]slots.HourRange
	if len(p.AvoidTimes) > 0 {
		avoidRanges = make(map[time.Weekday][]slots.HourRange)
		for _, at := range p.AvoidTimes {
			d, err := slots.ParseWeekday(at.Day)
			if err != nil {
				return slots.Config{}, fmt.Errorf("avoid_times: %w", err)
			}
			start, err := slots.ParseClock(at.Start)
			if err != nil {
				return slots.Config{}, fmt.Errorf("avoid_times: %w", err)
			}
			end, err := slots.ParseClock(at.End)
			if err != nil {
				return slots.Config{}, fmt.Errorf("avoid_times: %w", err)
			}
			avoidRanges[d] = append(avoidRanges[d], slots.HourRange{Start: start, End: end})
		}
	}

	return slots.Config{
		SlotCount:        p.SlotCount,
		SlotDuration:     time.Duration(p.DurationMinutes) * time.Minute,
		WindowStart:      windowStart,
		WindowEnd:        windowEnd,
		IncrementMinutes: p.IncrementMinutes,
		DaysFromToday:    p.daysFromToday(),
		AvoidWeekdays:    avoidDays,
		AvoidRanges:      avoidRanges,
		MaxSlotsPerDay:   p.MaxSlotsPerDay,
	}, nil
}

func (p ProfileConfig) daysFromToday() int {
	if p.DaysFromToday == nil {
		return 7
	}
	return *p.DaysFromToday
}

func clockMinutes(hours float64) int {
	return int(math.Round(hours * 60))
}
