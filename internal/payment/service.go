package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"staybook/internal/availability"
	"staybook/internal/clock"
	"staybook/internal/domain"
	apperrors "staybook/internal/errors"
	"staybook/internal/notify"
	"staybook/internal/storage"
)

// OpenRequest starts a payment attempt for a booking. A zero Amount means the
// booking total; an empty Currency means the configured default.
type OpenRequest struct {
	Caller    domain.Caller
	BookingID int64
	OrderRef  string
	PayerRef  string
	Amount    decimal.Decimal
	Currency  string
}

func (r OpenRequest) validate() error {
	var details []apperrors.ValidationDetail
	if r.BookingID <= 0 {
		details = append(details, apperrors.ValidationDetail{Field: "bookingId", Message: "bookingId must be a positive integer"})
	}
	if strings.TrimSpace(r.OrderRef) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "orderRef", Message: "orderRef is required"})
	}
	if r.Amount.IsNegative() {
		details = append(details, apperrors.ValidationDetail{Field: "amount", Message: "amount must not be negative"})
	}
	if r.Currency != "" && len(r.Currency) != 3 {
		details = append(details, apperrors.ValidationDetail{Field: "currency", Message: "currency must be a 3-letter code"})
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid payment request", details...)
	}
	return nil
}

// Service drives the payment lifecycle and keeps the booking status in step
// with it. Capture and fail lock the booking row before the payment row, the
// same order open uses after the room.
type Service struct {
	store           storage.Store
	index           *availability.Index
	notifier        Notifier
	clock           clock.Clock
	defaultCurrency string
	logger          *zap.Logger
}

func NewService(
	store storage.Store,
	index *availability.Index,
	notifier Notifier,
	clk clock.Clock,
	defaultCurrency string,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:           store,
		index:           index,
		notifier:        notifier,
		clock:           clk,
		defaultCurrency: strings.ToUpper(defaultCurrency),
		logger:          logger,
	}
}

// Open creates the booking's payment, or replaces its previous unpaid
// attempt, and moves an awaiting booking to PAYMENT_IN_PROGRESS. Opening
// claims the booking's nights, so it is where overlapping bookings compete.
func (s *Service) Open(ctx context.Context, req OpenRequest) (*domain.Payment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	s.logger.Info("open payment started",
		zap.Int64("bookingId", req.BookingID),
		zap.String("orderRef", req.OrderRef),
	)

	current, err := s.store.Bookings().FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !req.Caller.CanAccess(current.UserID) {
		return nil, apperrors.NewForbiddenError("booking belongs to another user")
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}

	var opened domain.Payment
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		if _, err := tx.Rooms().FindByIDForUpdate(ctx, current.RoomID); err != nil {
			return err
		}
		b, err := tx.Bookings().FindByIDForUpdate(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if b.RoomID != current.RoomID {
			return apperrors.NewConflictError(fmt.Sprintf("booking %d changed room, retry", b.ID))
		}

		existing, err := tx.Payments().FindByBookingIDForUpdate(ctx, b.ID)
		if err != nil {
			if _, ok := apperrors.IsNotFoundError(err); !ok {
				return err
			}
			existing = nil
		}

		if err := checkPayable(b, existing); err != nil {
			return err
		}

		amount := req.Amount
		if amount.IsZero() {
			amount = b.TotalPrice
		}
		if !amount.Equal(b.TotalPrice) {
			return apperrors.NewCodedValidationError(apperrors.CodeAmountMismatch,
				fmt.Sprintf("amount %s does not match booking total %s", amount.StringFixed(2), b.TotalPrice.StringFixed(2)),
				apperrors.ValidationDetail{Field: "amount", Message: "amount must equal the booking total"},
			)
		}

		if err := s.ensureOrderRefFree(ctx, tx, req.OrderRef, b.ID); err != nil {
			return err
		}

		now := s.clock.Now()
		if b.Status != domain.BookingPaymentInProgress {
			if err := s.index.EnsureFree(ctx, tx, b.RoomID, b.Stay, b.ID); err != nil {
				return err
			}
			if err := b.BeginPayment(now); err != nil {
				return err
			}
			if err := tx.Bookings().Update(ctx, b); err != nil {
				return err
			}
		}

		if existing != nil {
			if err := existing.Reopen(req.OrderRef, req.PayerRef, amount, currency, now); err != nil {
				return err
			}
			if err := tx.Payments().Update(ctx, existing); err != nil {
				return err
			}
			opened = *existing
			return nil
		}

		opened = domain.Payment{
			BookingID: b.ID,
			OrderRef:  req.OrderRef,
			PayerRef:  req.PayerRef,
			Amount:    amount,
			Currency:  currency,
			Status:    domain.PaymentPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.Payments().Insert(ctx, &opened)
	})
	if err != nil {
		s.logger.Warn("open payment rejected",
			zap.Int64("bookingId", req.BookingID),
			zap.String("orderRef", req.OrderRef),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("payment opened",
		zap.Int64("bookingId", opened.BookingID),
		zap.String("orderRef", opened.OrderRef),
		zap.String("amount", opened.Amount.StringFixed(2)),
		zap.String("currency", opened.Currency),
	)
	return &opened, nil
}

func checkPayable(b *domain.Booking, existing *domain.Payment) error {
	if existing != nil && existing.Status == domain.PaymentPaid {
		return apperrors.NewStateError(apperrors.GuardAlreadyPaid, "booking is already paid")
	}
	switch b.Status {
	case domain.BookingConfirmed:
		return apperrors.NewStateError(apperrors.GuardAlreadyPaid, "booking is already confirmed")
	case domain.BookingCancelled:
		return apperrors.NewStateError(apperrors.GuardBookingCancelled, "booking is cancelled")
	}
	return nil
}

func (s *Service) ensureOrderRefFree(ctx context.Context, tx storage.Store, orderRef string, bookingID int64) error {
	p, err := tx.Payments().FindByOrderRef(ctx, orderRef)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil
		}
		return err
	}
	if p.BookingID != bookingID {
		return apperrors.NewConflictError(fmt.Sprintf("order reference %s is already in use", orderRef))
	}
	return nil
}

// Capture records a successful payment and confirms the booking. Capturing a
// payment that is already PAID returns a DuplicateCaptureError and changes
// nothing.
func (s *Service) Capture(ctx context.Context, orderRef string) (*domain.Payment, error) {
	pre, err := s.store.Payments().FindByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, err
	}

	var captured domain.Payment
	var confirmed *domain.Booking
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		b, p, err := s.lockPayment(ctx, tx, pre.BookingID, orderRef)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if err := p.MarkPaid(now); err != nil {
			return err
		}
		if err := tx.Payments().Update(ctx, p); err != nil {
			return err
		}
		captured = *p

		if b.Status == domain.BookingConfirmed {
			return nil
		}
		if err := b.ConfirmPayment(now); err != nil {
			return err
		}
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}
		b.Payment = &captured
		confirmed = b
		return nil
	})
	if err != nil {
		if _, ok := apperrors.IsDuplicateCaptureError(err); ok {
			s.logger.Info("duplicate capture ignored", zap.String("orderRef", orderRef))
			return nil, err
		}
		s.logger.Warn("capture rejected", zap.String("orderRef", orderRef), zap.Error(err))
		return nil, err
	}

	s.logger.Info("payment captured",
		zap.String("orderRef", orderRef),
		zap.Int64("bookingId", captured.BookingID),
	)
	if confirmed != nil {
		s.notifier.Dispatch(notify.EventConfirmed, *confirmed)
	}
	return &captured, nil
}

// Fail records a failed capture and releases the booking's nights. Failing a
// payment twice is a no-op.
func (s *Service) Fail(ctx context.Context, orderRef, reason string) (*domain.Payment, error) {
	pre, err := s.store.Payments().FindByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, err
	}

	var failed domain.Payment
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		b, p, err := s.lockPayment(ctx, tx, pre.BookingID, orderRef)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		changed, err := p.MarkFailed(reason, now)
		if err != nil {
			return err
		}
		failed = *p
		if !changed {
			return nil
		}
		if err := tx.Payments().Update(ctx, p); err != nil {
			return err
		}

		if b.Status != domain.BookingPaymentInProgress {
			return nil
		}
		if err := b.RevertPayment(now); err != nil {
			return err
		}
		return tx.Bookings().Update(ctx, b)
	})
	if err != nil {
		s.logger.Warn("fail payment rejected", zap.String("orderRef", orderRef), zap.Error(err))
		return nil, err
	}

	s.logger.Info("payment failed",
		zap.String("orderRef", orderRef),
		zap.Int64("bookingId", failed.BookingID),
		zap.String("reason", reason),
	)
	return &failed, nil
}

// lockPayment locks the booking and then the payment for orderRef and checks
// that they still belong together.
func (s *Service) lockPayment(ctx context.Context, tx storage.Store, bookingID int64, orderRef string) (*domain.Booking, *domain.Payment, error) {
	b, err := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	p, err := tx.Payments().FindByOrderRefForUpdate(ctx, orderRef)
	if err != nil {
		return nil, nil, err
	}
	if p.BookingID != b.ID {
		return nil, nil, apperrors.NewConflictError(fmt.Sprintf("order reference %s moved to another booking", orderRef))
	}
	return b, p, nil
}

func (s *Service) Get(ctx context.Context, caller domain.Caller, paymentID int64) (*domain.Payment, error) {
	p, err := s.store.Payments().FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := s.checkBookingAccess(ctx, caller, p.BookingID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetByBooking(ctx context.Context, caller domain.Caller, bookingID int64) (*domain.Payment, error) {
	if err := s.checkBookingAccess(ctx, caller, bookingID); err != nil {
		return nil, err
	}
	return s.store.Payments().FindByBookingID(ctx, bookingID)
}

func (s *Service) List(ctx context.Context, caller domain.Caller) ([]domain.Payment, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewForbiddenError("admin role required")
	}
	return s.store.Payments().List(ctx)
}

func (s *Service) checkBookingAccess(ctx context.Context, caller domain.Caller, bookingID int64) error {
	b, err := s.store.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if !caller.CanAccess(b.UserID) {
		return apperrors.NewForbiddenError("booking belongs to another user")
	}
	return nil
}
