package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"slotgen/internal/config"
	"slotgen/internal/export"
	"slotgen/internal/slots"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a batch of time slots on the console",
	Long:  "Generate a batch of randomized, non-overlapping time slots from a profile and flag overrides, print it, and optionally export it.",
	RunE:  runGenerate,
}

var (
	genProfile       string
	genSlots         int
	genDuration      int
	genWindowStart   string
	genWindowEnd     string
	genIncrement     int
	genDaysFromToday int
	genMaxPerDay     int
	genAvoidDays     string
	genSeed          int64
	genOutput        string
	genSpreadsheet   string
)

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.StringVar(&genProfile, "profile", "", "named profile from profiles.yaml")
	f.IntVar(&genSlots, "slots", 0, "number of slots to generate")
	f.IntVar(&genDuration, "duration", 0, "slot duration in minutes")
	f.StringVar(&genWindowStart, "window-start", "", "earliest start time, HH:MM")
	f.StringVar(&genWindowEnd, "window-end", "", "latest end time, HH:MM")
	f.IntVar(&genIncrement, "increment", 0, "start time increment in minutes")
	f.IntVar(&genDaysFromToday, "days-from-today", 0, "first day offset from today")
	f.IntVar(&genMaxPerDay, "max-per-day", 0, "maximum slots per day")
	f.StringVar(&genAvoidDays, "avoid-days", "", `days to skip entirely, e.g. "Sat,Sun" ("none" clears)`)
	f.Int64Var(&genSeed, "seed", 0, "random seed for reproducible batches")
	f.StringVar(&genOutput, "output", "", "write the batch to an .xlsx file")
	f.StringVar(&genSpreadsheet, "sheets-spreadsheet", "", "append the batch to this Google Sheets spreadsheet ID")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	// config.yaml is optional on the console: it only contributes the
	// profiles path and the Sheets credentials.
	appCfg, cfgErr := config.Load(resolveConfigPath())
	profilesPath := ""
	if cfgErr == nil {
		profilesPath = appCfg.ProfilesPath()
	}

	base := config.DefaultProfile()
	profiles, err := config.LoadProfiles(profilesPath)
	switch {
	case err == nil:
		if genProfile != "" {
			p := profiles.GetProfile(genProfile)
			if p == nil {
				return fmt.Errorf("unknown profile %q, have: %s", genProfile, strings.Join(profiles.Names(), ", "))
			}
			base = *p
		} else {
			base = profiles.Defaults
		}
	case genProfile != "":
		return fmt.Errorf("profile %q requested: %w", genProfile, err)
	case !errors.Is(err, os.ErrNotExist):
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("slots") {
		base.SlotCount = genSlots
	}
	if flags.Changed("duration") {
		base.DurationMinutes = genDuration
	}
	if flags.Changed("window-start") {
		base.WindowStart = genWindowStart
	}
	if flags.Changed("window-end") {
		base.WindowEnd = genWindowEnd
	}
	if flags.Changed("increment") {
		base.IncrementMinutes = genIncrement
	}
	if flags.Changed("days-from-today") {
		d := genDaysFromToday
		base.DaysFromToday = &d
	}
	if flags.Changed("max-per-day") {
		base.MaxSlotsPerDay = genMaxPerDay
	}
	if flags.Changed("avoid-days") {
		base.AvoidDays = splitAvoidDays(genAvoidDays)
	}

	cfg, err := base.ToSlotConfig()
	if err != nil {
		return err
	}

	gen := slots.NewGenerator()
	if flags.Changed("seed") {
		gen.UseRand(rand.New(rand.NewSource(genSeed)))
	}

	batch, err := gen.Generate(cfg)
	if err != nil {
		return err
	}

	fmt.Println(slots.FormatSettings(cfg))
	fmt.Println()
	for _, s := range batch {
		fmt.Println(slots.FormatSlot(s))
	}
	if len(batch) < cfg.SlotCount {
		cmd.PrintErrf("warning: only %d of %d slots could be placed\n", len(batch), cfg.SlotCount)
	}

	if genOutput != "" {
		if err := export.SaveExcel(genOutput, batch); err != nil {
			return fmt.Errorf("write %s: %w", genOutput, err)
		}
		cmd.PrintErrf("wrote %d slots to %s\n", len(batch), genOutput)
	}

	if genSpreadsheet != "" {
		if cfgErr != nil {
			return fmt.Errorf("sheets export needs credentials from the config: %w", cfgErr)
		}
		exporter, err := export.NewSheetsExporter(cmd.Context(), appCfg.Sheets.CredentialsFile, genSpreadsheet)
		if err != nil {
			return fmt.Errorf("sheets exporter: %w", err)
		}
		if err := exporter.Append(cmd.Context(), batch); err != nil {
			return fmt.Errorf("append to spreadsheet: %w", err)
		}
		cmd.PrintErrf("appended %d rows to spreadsheet %s\n", len(batch), genSpreadsheet)
	}

	return nil
}

// splitAvoidDays turns "Sat,Sun" into day name tokens. "none" and the
// empty string clear the list.
func splitAvoidDays(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
