// Package notify polls the tracker for recently updated issues and surfaces
// them as log events. It is a collaborator of the tool server, not part of
// it: the poller shares the scoped service but keeps its own state.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trackhub/trackhub/internal/core"
	"github.com/trackhub/trackhub/internal/telemetry"
)

// pollTop is the page size requested per cycle. It matches the service's
// search cap; a burst larger than the default page must not drop updates.
const pollTop = 500

// Poller watches the scoped project for issue updates. It remembers the
// last seen update timestamp per issue, so each change is announced once.
type Poller struct {
	svc      *core.Service
	interval time.Duration
	logger   *slog.Logger

	// seen maps idReadable to the updated timestamp last announced.
	// Only the Run goroutine touches it.
	seen map[string]int64
}

func New(svc *core.Service, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{
		svc:      svc,
		interval: interval,
		logger:   logger,
		seen:     make(map[string]int64),
	}
}

// Run polls until the context is cancelled. The first cycle primes the seen
// map without announcing, so a restart does not replay history.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("notification poller starting", "interval", p.interval.String())

	p.cycle(ctx, false)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification poller stopped")
			return
		case <-ticker.C:
			p.cycle(ctx, true)
		}
	}
}

func (p *Poller) cycle(ctx context.Context, announce bool) {
	query := fmt.Sprintf("updated: -%dm .. *", minutesFor(p.interval))
	issues, err := p.svc.SearchIssues(ctx, query, pollTop, 0)
	if err != nil {
		telemetry.IncPollCycle("error")
		p.logger.Warn("notification poll failed", "err", err)
		return
	}
	telemetry.IncPollCycle("ok")

	for _, issue := range issues {
		last, known := p.seen[issue.IDReadable]
		if issue.Updated <= last {
			continue
		}
		p.seen[issue.IDReadable] = issue.Updated
		if !announce {
			continue
		}

		telemetry.IncNotification()
		event := "issue updated"
		if !known && issue.Created == issue.Updated {
			event = "issue created"
		}
		p.logger.Info(event,
			"issue", issue.IDReadable,
			"summary", issue.Summary,
			"updated", time.UnixMilli(issue.Updated).UTC().Format(time.RFC3339))
	}
}

// minutesFor widens the lookback to at least two poll intervals so a slow
// cycle cannot miss an update on the boundary.
func minutesFor(interval time.Duration) int {
	m := int((2 * interval).Minutes())
	if m < 2 {
		m = 2
	}
	return m
}
