package booking

import (
	"github.com/shopspring/decimal"

	"staybook/internal/domain"
	"staybook/internal/notify"
)

type Pricer interface {
	Price(nightlyRate decimal.Decimal, stay domain.DateRange, guests domain.Occupants) decimal.Decimal
}

// Notifier hands an event off for delivery after the transition that
// produced it has committed. It must not block.
type Notifier interface {
	Dispatch(event notify.Event, booking domain.Booking)
}
