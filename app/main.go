package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lysyi3m/appcast-comb/app/cfg"
	apperrors "github.com/lysyi3m/appcast-comb/app/errors"
	"github.com/lysyi3m/appcast-comb/app/feed"
	"github.com/lysyi3m/appcast-comb/app/tasks"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	appCfg, err := cfg.Load(args)
	if err != nil {
		setupLogger(false)
		return fail(err)
	}
	if appCfg == nil {
		// Help or version was printed
		return 0
	}

	setupLogger(appCfg.Debug)

	slog.Debug("Starting appcast merge",
		"version", appCfg.Version,
		"source", appCfg.SourcePath,
		"target", appCfg.TargetPath,
		"output", appCfg.Output(),
		"dry_run", appCfg.DryRun)

	profile := feed.DefaultProfile()
	if appCfg.ProfilePath != "" {
		profile, err = feed.LoadProfile(appCfg.ProfilePath)
		if err != nil {
			return fail(err)
		}
	}

	task := tasks.NewMergeAppcastTask(
		feed.NewParser(profile),
		feed.NewMerger(feed.NewMatcher()),
		feed.NewSorter(),
		feed.NewGenerator(profile),
		feed.NewVerifier(profile),
		feed.NewPublisher())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tasks.NewRunner().Run(ctx, task); err != nil {
		return exitCode(err)
	}

	return 0
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func fail(err error) int {
	slog.Error("Appcast merge failed", "error", err)
	return exitCode(err)
}

func exitCode(err error) int {
	if apperrors.Is(err, apperrors.ErrConfiguration) {
		fmt.Fprintln(os.Stderr, "Run with --help for usage.")
		return 2
	}
	return 1
}
