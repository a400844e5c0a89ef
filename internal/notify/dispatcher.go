package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"adopet/internal/repo"
)

const (
	defaultInterval    = 2 * time.Second
	defaultBatch       = 100
	defaultMaxAttempts = 5
)

// ErrNoSender is returned when no delivery channel is configured. Pending
// rows are left untouched.
var ErrNoSender = errors.New("no notification sender configured")

func hasSender(s Sender) bool {
	if s == nil {
		return false
	}
	if f, ok := s.(Fanout); ok {
		return len(f) > 0
	}
	return true
}

// Dispatcher delivers pending outbox rows. Delivery is at least once: a row
// that fails is retried whole on the next pass until MaxAttempts.
type Dispatcher struct {
	Repo        repo.Repo
	Sender      Sender
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	Logger      *zap.Logger
	Now         func() time.Time
}

func (d *Dispatcher) logger() *zap.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return zap.NewNop()
}

func (d *Dispatcher) maxAttempts() int {
	if d.MaxAttempts > 0 {
		return d.MaxAttempts
	}
	return defaultMaxAttempts
}

// Run dispatches on every tick until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	interval := d.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	if !hasSender(d.Sender) {
		d.logger().Warn("notification dispatcher idle: enable notifications.log or a webhook")
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := d.DispatchPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger().Warn("dispatch notifications", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// DispatchPending makes one delivery pass and returns how many
// notifications were delivered.
func (d *Dispatcher) DispatchPending(ctx context.Context) (int, error) {
	if !hasSender(d.Sender) {
		return 0, ErrNoSender
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	batch := d.BatchSize
	if batch <= 0 {
		batch = defaultBatch
	}
	pending, err := d.Repo.PendingNotifications(ctx, batch, d.maxAttempts())
	if err != nil {
		return 0, err
	}
	delivered := 0
	for _, n := range pending {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		if sendErr := d.Sender.Send(ctx, n); sendErr != nil {
			d.logger().Warn("notification delivery failed",
				zap.Int64("id", n.ID),
				zap.String("kind", n.Kind),
				zap.Int("attempt", n.Attempts+1),
				zap.Error(sendErr))
			if n.Attempts+1 >= d.maxAttempts() {
				d.logger().Error("notification abandoned", zap.Int64("id", n.ID), zap.String("adoption_id", n.AdoptionID))
			}
			if err := d.Repo.MarkNotificationFailed(ctx, n.ID, sendErr.Error()); err != nil {
				return delivered, err
			}
			continue
		}
		if err := d.Repo.MarkNotificationDelivered(ctx, n.ID, now().UTC().Format(time.RFC3339)); err != nil {
			return delivered, err
		}
		delivered++
	}
	return delivered, nil
}
