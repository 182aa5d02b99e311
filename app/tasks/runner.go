package tasks

import (
	"context"
	"log/slog"
)

// Runner executes a single task in the foreground. A failed task is logged
// and its error returned; nothing is retried.
type Runner struct{}

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) Run(ctx context.Context, task TaskInterface) error {
	task.Start()

	err := task.Execute(ctx)
	if err != nil {
		slog.Error("Task execution failed",
			"type", string(task.GetType()),
			"id", task.GetID(),
			"feed", task.GetFeedName(),
			"duration", task.GetDuration(),
			"error", err)
		return err
	}

	return nil
}
