package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"matchcal/internal/config"
	"matchcal/internal/gcal"
	"matchcal/internal/ical"
	"matchcal/internal/logger"
	"matchcal/internal/notify"
	"matchcal/internal/pipeline"
	"matchcal/internal/scraper"
	"matchcal/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitChanged = 2
)

var (
	flagConfig  string
	flagFormat  string
	flagVerbose bool
	flagRender  bool
	flagDryRun  bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matchcal",
		Short: "Sync a team's upcoming esports matches into Google Calendar",
		Long: `matchcal discovers upcoming matches for a tracked team from bo3.gg,
resolves their scheduled times into the configured timezone, and keeps a
Google Calendar in sync: entries are created, patched when the schedule
drifts, or skipped when already up to date. Re-running is idempotent.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to TOML config file")
	cmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flagRender, "render", false, "Fetch listings through headless Chromium")
	cmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "Print announcements instead of posting them")

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newDaemonCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one discovery and reconciliation pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, format, err := setup()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := buildSyncPipeline(ctx, cfg)
			if err != nil {
				return err
			}

			candidates, res := p.RunOnce(ctx)
			result := newOutputResult(candidates, res)
			if err := WriteOutput(os.Stdout, result, format, flagVerbose); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			if res.Created+res.Updated > 0 {
				os.Exit(ExitChanged)
			}
			os.Exit(ExitSuccess)
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Sync and keep re-checking while a match is scheduled for today",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p, err := buildSyncPipeline(ctx, cfg)
			if err != nil {
				return err
			}

			res, err := p.RunUntilSettled(ctx)
			if err != nil && ctx.Err() == nil {
				return err
			}
			fmt.Printf("Settled: %d created, %d updated, %d skipped, %d errors\n",
				res.Created, res.Updated, res.Skipped, len(res.Errors))
			return nil
		},
	}
}

func newDaemonCmd() *cobra.Command {
	var schedule string
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled sync passes until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			if schedule != "" {
				cfg.DaemonSchedule = schedule
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p, err := buildSyncPipeline(ctx, cfg)
			if err != nil {
				return err
			}

			c := cron.New()
			_, err = c.AddFunc(cfg.DaemonSchedule, func() {
				if _, err := p.RunUntilSettled(ctx); err != nil && ctx.Err() == nil {
					logger.Error("Scheduled pass failed", nil, err)
				}
			})
			if err != nil {
				return fmt.Errorf("invalid schedule %q: %w", cfg.DaemonSchedule, err)
			}

			logger.Info("Daemon started", logger.Fields{"schedule": cfg.DaemonSchedule})
			c.Start()
			<-ctx.Done()
			<-c.Stop().Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron schedule (overrides config)")
	return cmd
}

func newListCmd() *cobra.Command {
	var changedOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Discover upcoming matches without touching the calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, format, err := setup()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			snapshots := openSnapshots(cfg)
			p := pipeline.New(cfg, newFetcher(cfg), nil, nil, nil)

			candidates := p.Discover(ctx)
			display := candidates
			if changedOnly && snapshots != nil {
				previous, err := snapshots.LoadSnapshot()
				if err != nil {
					return fmt.Errorf("loading snapshot: %w", err)
				}
				display = storage.Diff(previous, candidates)
			}
			if snapshots != nil {
				if err := snapshots.SaveSnapshot(candidates); err != nil {
					logger.Warn("Saving snapshot failed", logger.Fields{"error": err.Error()})
				}
			}

			result := newOutputResult(display, reconcileResultNone())
			result.DiscoveryOnly = true
			return WriteOutput(os.Stdout, result, format, flagVerbose)
		},
	}
	cmd.Flags().BoolVar(&changedOnly, "changed", false, "Show only matches new since the previous run")
	return cmd
}

func newExportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write discovered matches to an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}

			p := pipeline.New(cfg, newFetcher(cfg), nil, nil, nil)
			candidates := p.Discover(cmd.Context())

			content := ical.Generate(candidates)
			if err := os.WriteFile(outPath, []byte(content), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			fmt.Printf("Wrote %d matches to %s\n", len(candidates), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "matches.ics", "Output .ics path")
	return cmd
}

// setup loads configuration, applies flag overrides and validates the
// requested output format.
func setup() (*config.Config, OutputFormat, error) {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return nil, "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, "", err
	}
	if flagRender {
		cfg.RenderFetch = true
	}

	level := logger.LevelInfo
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, os.Stderr))

	return cfg, format, nil
}

// buildSyncPipeline wires the full pipeline including calendar access.
// Credential or calendar problems are fatal before any discovery starts.
func buildSyncPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, error) {
	client, err := gcal.NewClient(ctx, []byte(cfg.CredentialsJSON), cfg.CalendarID, cfg.Timezone)
	if err != nil {
		return nil, err
	}
	if err := client.VerifyAccess(ctx); err != nil {
		return nil, err
	}

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return nil, err
	}

	return pipeline.New(cfg, newFetcher(cfg), client, notifier, openSnapshots(cfg)), nil
}

// buildNotifier assembles the announcement sinks configured for this run.
// No sinks configured means announcements are simply off.
func buildNotifier(cfg *config.Config) (notify.Notifier, error) {
	if flagDryRun {
		return notify.NewDryRunNotifier(), nil
	}

	var sinks notify.Multi

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			return nil, fmt.Errorf("configuring telegram: %w", err)
		}
		sinks = append(sinks, tg)
	}
	if os.Getenv("TWITTER_API_KEY") != "" {
		tw, err := notify.NewTwitterNotifier()
		if err != nil {
			return nil, fmt.Errorf("configuring twitter: %w", err)
		}
		sinks = append(sinks, tw)
	}

	if len(sinks) == 0 {
		return nil, nil
	}
	return sinks, nil
}

func newFetcher(cfg *config.Config) scraper.Fetcher {
	if cfg.RenderFetch {
		return scraper.NewChromeFetcher()
	}
	return scraper.NewHTTPFetcher()
}

// openSnapshots is best-effort: a missing or unwritable data dir disables
// the snapshot side channel but never the sync.
func openSnapshots(cfg *config.Config) *storage.Storage {
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		logger.Warn("Snapshot storage unavailable", logger.Fields{"error": err.Error()})
		return nil
	}
	return store
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().ExecuteContext(contextWithDefault()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}

func contextWithDefault() context.Context {
	return context.Background()
}
