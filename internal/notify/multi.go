package notify

import (
	"context"
	"errors"

	"event-tickets/internal/ledger"
)

// Multi delivers to every notifier and joins their errors.
type Multi []ledger.Notifier

func (m Multi) NotifyEventCreated(ctx context.Context, ev ledger.EventCreated) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyEventCreated(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
