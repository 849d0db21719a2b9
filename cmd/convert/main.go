// Command convert runs the configured export conversions once and exits.
//
// With no arguments every source is converted in declaration order; naming
// sources converts only those. The exit status is 1 when any run failed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JonMunkholm/exportsync/internal/config"
	"github.com/JonMunkholm/exportsync/internal/core"
	_ "github.com/JonMunkholm/exportsync/internal/core/tables" // Register all layouts
	"github.com/JonMunkholm/exportsync/internal/logging"
	"github.com/JonMunkholm/exportsync/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// errRunsFailed is returned when at least one run did not succeed. Each
// failure has already been logged with its code.
var errRunsFailed = errors.New("one or more runs failed")

func main() {
	cmd := newRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errRunsFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		sourcesFile string
		list        bool
	)
	cmd := &cobra.Command{
		Use:           "convert [source...]",
		Short:         "Convert production exports into database tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), sourcesFile, list, args)
		},
	}
	cmd.Flags().StringVar(&sourcesFile, "sources", "", "Sources file (overrides SOURCES_FILE)")
	cmd.Flags().BoolVar(&list, "list", false, "List the configured sources and exit")
	return cmd
}

func run(ctx context.Context, sourcesFile string, list bool, names []string) error {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if sourcesFile == "" {
		sourcesFile = cfg.Sources.File
	}
	sources, err := config.LoadSources(sourcesFile)
	if err != nil {
		return err
	}

	if list {
		for _, s := range sources {
			fmt.Printf("%-12s %-9s %-24s %s\n", s.Name, s.Layout, s.Table, s.Path)
		}
		return nil
	}

	opener, err := store.NewOpener(store.Options{
		Driver:          cfg.Database.Driver,
		DefaultDSN:      cfg.Database.URL,
		BatchSize:       cfg.Database.BatchSize,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		return err
	}
	defer opener.Close()

	service, err := core.NewService(opener, sources, core.ServiceOptions{
		MaxConcurrentRuns: cfg.Runs.MaxConcurrent,
		RunWait:           cfg.Runs.MaxWaitTime,
		HistorySize:       cfg.Runs.HistorySize,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = core.ContextWithTrigger(ctx, core.TriggerCLI)

	var outcomes []core.Outcome
	if len(names) == 0 {
		outcomes = service.RunAll(ctx)
	} else {
		for _, name := range names {
			out, err := service.RunByName(ctx, name)
			if err != nil {
				return errors.New(core.FormatUserError(err))
			}
			outcomes = append(outcomes, out)
		}
	}

	return summarize(outcomes)
}

// summarize logs one line per outcome and returns errRunsFailed when any
// run failed.
func summarize(outcomes []core.Outcome) error {
	failed := 0
	for _, o := range outcomes {
		if o.OK() {
			slog.Info("converted",
				"source", o.Source,
				"table", o.Table,
				"written", o.Written,
				"discarded", o.Stats.Discarded,
				"duration", o.Duration.Round(time.Millisecond),
			)
			continue
		}
		failed++
		slog.Error("conversion failed",
			"source", o.Source,
			"status", o.Status,
			"code", o.Code,
			"message", o.Message,
			"action", o.Action,
		)
	}

	slog.Info("conversion summary", "sources", len(outcomes), "failed", failed)
	if failed > 0 {
		return errRunsFailed
	}
	return nil
}
