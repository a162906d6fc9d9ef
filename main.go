package main

import (
	"fmt"
	"os"

	"github.com/gtoxlili/echoChart/config"
	"github.com/gtoxlili/echoChart/logger"
	"github.com/spf13/cobra"
)

// 构建时通过 -ldflags 注入
var (
	version = "dev"
	commit  = "unknown"
)

var (
	cfg *config.Config
	log *logger.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "echochart",
	Short:         "Context-aware chart analysis with vision LLMs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		mode := cfg.Logging.Mode
		if m, _ := cmd.Flags().GetString("log-mode"); m != "" {
			mode = m
		}
		if log, err = logger.New(mode); err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-mode", "", "log mode override (dev, prod)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(analyzeCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("echochart %s (%s)\n", version, commit)
	},
}
