package core

import (
	"context"
	"log/slog"

	"github.com/trackhub/trackhub/internal/telemetry"
	"github.com/trackhub/trackhub/internal/youtrack"
)

// CommandResult records the outcome of one command application. Results are
// ordered and always surfaced to the caller, never discarded.
type CommandResult struct {
	Command   string `json:"command"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// Applier executes synthesized commands against the backend's command
// endpoint. It never retries: most command failures (bad enum values,
// missing permissions) are not transient.
type Applier struct {
	backend Backend
	logger  *slog.Logger
}

func NewApplier(backend Backend, logger *slog.Logger) *Applier {
	return &Applier{backend: backend, logger: logger}
}

// Apply runs one command against one resource.
func (a *Applier) Apply(ctx context.Context, resourceID string, cmd Command) error {
	return a.applyText(ctx, resourceID, cmd.String())
}

// ApplyCombined joins a batch into one command string applied in a single
// call; the backend processes the clauses left to right. Used by creation.
func (a *Applier) ApplyCombined(ctx context.Context, resourceID string, cmds []Command) error {
	if len(cmds) == 0 {
		return nil
	}
	return a.applyText(ctx, resourceID, JoinCommands(cmds))
}

// ApplyEach applies commands one call per command so one rejected value
// cannot block the others. Used by updates.
func (a *Applier) ApplyEach(ctx context.Context, resourceID string, cmds []Command) []CommandResult {
	results := make([]CommandResult, 0, len(cmds))
	for _, cmd := range cmds {
		res := CommandResult{Command: cmd.String(), Succeeded: true}
		if err := a.Apply(ctx, resourceID, cmd); err != nil {
			res.Succeeded = false
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

func (a *Applier) applyText(ctx context.Context, resourceID, text string) error {
	body := youtrack.CommandRequest{
		Query:  text,
		Issues: []youtrack.IssueRef{{ID: resourceID}},
	}
	if err := a.backend.Post(ctx, "commands", body, nil); err != nil {
		telemetry.IncCommandResult("failed")
		a.logger.Debug("command rejected", "resource", resourceID, "command", text, "err", err)
		return &CommandError{Command: text, Cause: err}
	}
	telemetry.IncCommandResult("applied")
	return nil
}
