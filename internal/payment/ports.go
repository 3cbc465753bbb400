package payment

import (
	"staybook/internal/domain"
	"staybook/internal/notify"
)

type Notifier interface {
	Dispatch(event notify.Event, booking domain.Booking)
}
