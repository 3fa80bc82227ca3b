package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "slotgen",
	Short: "Randomized appointment time slot generator",
	Long:  "slotgen generates randomized, non-overlapping appointment time slots, either once on the console or continuously as a Telegram bot.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config.yaml (default configs/config.yaml, or $CONFIG_PATH)")
}

// resolveConfigPath picks the config file: flag, then CONFIG_PATH, then
// the loader's built-in default.
func resolveConfigPath() string {
	if configFile != "" {
		return configFile
	}
	return os.Getenv("CONFIG_PATH")
}

func main() {
	// Pull a .env into the environment when one exists, for the
	// ${VAR} placeholders in config.yaml.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
