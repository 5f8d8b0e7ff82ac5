package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nconklindev/sift/internal/config"
	"github.com/nconklindev/sift/internal/logging"
	"github.com/nconklindev/sift/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "sift",
		Short: "Collect rows with missing data from spreadsheets into one workbook",
		Long: `sift merges the rows of CSV and XLSX files that have an empty value in
any checked column into one workbook, one sheet per target, and highlights
the checked columns. Run without arguments for the interactive picker.`,
		Version:       fmt.Sprintf("%s\ncommit: %s\nbuilt: %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runInteractive,
	}
	rootCmd.SetVersionTemplate("sift {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./sift.yaml if present)")

	rootCmd.AddCommand(newMergeCmd(), newFormatCmd(), newCSVCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI; log only when a file is configured
	logger, closeLog, err := logging.New(cfg.Logging, nil)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	p := tea.NewProgram(ui.InitialModel(cfg, logger), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// setup loads the configuration and installs the stderr logger for the
// non-interactive commands.
func setup() (*config.Config, *slog.Logger, func() error, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, closeLog, err := logging.Setup(cfg.Logging)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, closeLog, nil
}
