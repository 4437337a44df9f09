package api

import (
	"context"
	"time"
)

// StatusFunc receives each successfully fetched run status.
type StatusFunc func(status RunStatus)

// Poller checks the run status on a fixed interval. A failed fetch skips
// the cycle rather than stopping the loop; the poll ends when a terminal
// status arrives or the context is cancelled.
type Poller struct {
	client   *Client
	interval time.Duration
	onStatus StatusFunc
}

// NewPoller creates a status poller. A zero interval defaults to 5s.
func NewPoller(client *Client, interval time.Duration, onStatus StatusFunc) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{client: client, interval: interval, onStatus: onStatus}
}

// Run polls until a terminal status or cancellation. It always returns
// nil on terminal status and ctx.Err() on cancellation; transient fetch
// failures are logged and skipped.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			status, err := p.client.GetRunStatus(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Debug("status poll failed, skipping cycle: %v", err)
				continue
			}
			if p.onStatus != nil {
				p.onStatus(*status)
			}
			if status.Terminal() {
				log.Debug("status poll reached terminal state %q", status.Status)
				return nil
			}
		}
	}
}
