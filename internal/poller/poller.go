// Package poller refreshes a gauge on a fixed interval.
package poller

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"x720/internal/x720"
)

// Gauge is the part of the driver the poller needs.
type Gauge interface {
	Refresh() error
	Latest() (x720.Reading, bool)
}

// Run calls Refresh once per interval until ctx is done. A failed refresh is
// logged and polling goes on. After every tick update receives the latest
// cached reading, if there is one.
func Run(ctx context.Context, g Gauge, interval time.Duration, logger log.FieldLogger, update func(x720.Reading)) error {
	if interval <= 0 {
		return errors.Errorf("invalid poll interval %s", interval)
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		if err := g.Refresh(); err != nil {
			logger.WithError(err).Warn("refresh failed, keeping last reading")
		}
		if r, ok := g.Latest(); ok && update != nil {
			update(r)
		}
	}
}
