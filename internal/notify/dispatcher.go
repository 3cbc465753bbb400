package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"staybook/internal/domain"
)

// Dispatcher sends notifications in the background. Dispatch never blocks
// the caller and never reports failure; errors and panics from the
// underlying Notifier are logged and dropped.
type Dispatcher struct {
	notifier Notifier
	logger   *zap.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDispatcher(notifier Notifier, logger *zap.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		notifier: notifier,
		logger:   logger,
		timeout:  timeout,
	}
}

func (d *Dispatcher) Dispatch(event Event, booking domain.Booking) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.send(ctx, event, booking); err != nil {
			d.logger.Warn("notification failed",
				zap.String("event", string(event)),
				zap.Int64("bookingId", booking.ID),
				zap.Error(err),
			)
			return
		}
		d.logger.Debug("notification sent", zap.String("event", string(event)), zap.Int64("bookingId", booking.ID))
	}()
}

func (d *Dispatcher) send(ctx context.Context, event Event, booking domain.Booking) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panicked: %v", r)
		}
	}()
	return d.notifier.Send(ctx, event, booking)
}

// Wait blocks until every dispatched notification has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
