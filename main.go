package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"blocks.codes/tui/config"
	"blocks.codes/tui/grid"
	"blocks.codes/tui/pages"
	"blocks.codes/tui/store"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Layouts accepted by --at, tried in order.
var atLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseAt(s string) (time.Time, error) {
	for _, layout := range atLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --at %q: want YYYY-MM-DD[ HH:MM]", s)
}

func newRootCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:           "blocks",
		Short:         "Hour-block habit tracker",
		Long:          "Blocks tracks habits as a grid of hourly blocks, one row per day.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clock := grid.NewDebugClock(nil)
			if at != "" {
				t, err := parseAt(at)
				if err != nil {
					return err
				}
				clock.Set(t)
			}
			return runTUI(clock)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "start with the debug clock set to this local time")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newImportCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "blocks %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// newLogger writes structured logs to a rotating file.
func newLogger(cfg *config.Config) (*slog.Logger, io.Closer) {
	w := &lumberjack.Logger{
		Filename:   cfg.LogPath,
		MaxSize:    5,  // Megabytes before it rotates
		MaxBackups: 3,  // Keep only the 3 most recent old log files
		MaxAge:     28, // Days to keep logs
		Compress:   true,
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel})
	return slog.New(h), w
}

// openStore loads the configuration, starts logging and opens the database.
// The returned func releases all of them.
func openStore() (*config.Config, *slog.Logger, *store.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger, logFile := newLogger(cfg)

	st, err := store.Open(cfg.DBPath, &gooseLogger{l: logger})
	if err != nil {
		logger.Error("open store", "path", cfg.DBPath, "err", err)
		_ = logFile.Close()
		return nil, nil, nil, nil, err
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			logger.Warn("close store", "err", err)
		}
		_ = logFile.Close()
	}
	return cfg, logger, st, cleanup, nil
}

func runTUI(clock *grid.DebugClock) error {
	cfg, logger, st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	streaks, err := store.NewStreaks(st, store.DefaultStreakCacheSize, logger)
	if err != nil {
		return err
	}

	logger.Info("starting", "version", Version, "db", cfg.DBPath, "debug_clock", clock.Overridden())

	model := NewAppModel(
		pages.NewHabitsPage(st, streaks),
		pages.NewStreakPage(streaks, clock, cfg.Grid.GridOptions(), logger),
		pages.NewTrendPage(streaks, clock, cfg.Grid.Scale()),
	)

	// Alt-screen makes this a true full-window TUI (no scrollback spam).
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		logger.Error("program exited", "err", err)
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
