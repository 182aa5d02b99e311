package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lysyi3m/appcast-comb/app/cfg"
	"github.com/lysyi3m/appcast-comb/app/feed"
)

// MergeAppcastTask folds the items of a freshly built appcast fragment into
// the previously published appcast and publishes the result.
type MergeAppcastTask struct {
	Task
	SourcePath string
	TargetPath string
	OutputPath string
	DryRun     bool
	SkipVerify bool

	// Stdout receives the document in dry-run mode.
	Stdout io.Writer

	parser    *feed.Parser
	merger    *feed.Merger
	sorter    *feed.Sorter
	generator *feed.Generator
	verifier  *feed.Verifier
	publisher *feed.Publisher
}

func NewMergeAppcastTask(parser *feed.Parser, merger *feed.Merger, sorter *feed.Sorter,
	generator *feed.Generator, verifier *feed.Verifier, publisher *feed.Publisher) *MergeAppcastTask {
	c := cfg.Get()

	return &MergeAppcastTask{
		Task:       NewTask(TaskTypeMergeAppcast, filepath.Base(c.Output())),
		SourcePath: c.SourcePath,
		TargetPath: c.TargetPath,
		OutputPath: c.Output(),
		DryRun:     c.DryRun,
		SkipVerify: c.SkipVerify,
		Stdout:     os.Stdout,
		parser:     parser,
		merger:     merger,
		sorter:     sorter,
		generator:  generator,
		verifier:   verifier,
		publisher:  publisher,
	}
}

func (t *MergeAppcastTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	source, err := t.parser.LoadFile(t.SourcePath)
	if err != nil {
		return fmt.Errorf("failed to load source XML: %w", err)
	}
	if len(source.Items) == 0 {
		slog.Warn("No source items found", "feed", t.FeedName, "path", t.SourcePath)
	}

	target, err := t.parser.LoadFile(t.TargetPath)
	if err != nil {
		return fmt.Errorf("failed to load target XML: %w", err)
	}
	targetCount := len(target.Items)

	if err := ctx.Err(); err != nil {
		return err
	}

	result := t.merger.Run(target, source)
	target.Items = t.sorter.Run(result.Items)

	data, err := t.generator.Run(target)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", t.TargetPath, err)
	}

	if t.SkipVerify {
		slog.Debug("Verification skipped", "feed", t.FeedName)
	} else if err := t.verifier.Run(data, len(target.Items)); err != nil {
		return fmt.Errorf("failed to verify merged appcast: %w", err)
	}

	// Last point at which an interrupt leaves the output untouched.
	if err := ctx.Err(); err != nil {
		return err
	}

	if t.DryRun {
		if _, err := fmt.Fprintf(t.Stdout, "%s\n", data); err != nil {
			return fmt.Errorf("failed to print merged appcast: %w", err)
		}
	} else if err := t.publisher.Run(t.OutputPath, data); err != nil {
		return fmt.Errorf("failed to publish merged appcast: %w", err)
	}

	slog.Info("Task completed",
		"type", "MergeAppcast",
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"source", len(source.Items),
		"target", targetCount,
		"replaced", result.Replaced,
		"added", result.Added,
		"duplicated", result.Duplicated,
		"total", len(target.Items),
		"dry_run", t.DryRun)

	return nil
}
