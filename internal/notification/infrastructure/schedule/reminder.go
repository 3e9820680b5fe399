package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Reminder interface {
	RemindPending(ctx context.Context, age time.Duration) error
}

// StartReminder runs the pending order reminder on spec (cron syntax or
// descriptors like "@midnight"). Stop the returned scheduler on shutdown.
func StartReminder(ctx context.Context, log *slog.Logger, r Reminder, spec string, age time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := r.RemindPending(runCtx, age); err != nil {
			log.Error("pending order reminder failed", "err", err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
