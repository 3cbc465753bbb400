package domain

import (
	"fmt"
	"time"

	"staybook/internal/clock"
	apperrors "staybook/internal/errors"
)

// DateRange is a stay expressed in calendar days. End is the checkout day, so
// the nights occupied are End - Start.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: clock.DateOf(start), End: clock.DateOf(end)}
}

// Nights is the calendar-day difference between End and Start.
func (r DateRange) Nights() int {
	return int(clock.DateOf(r.End).Sub(clock.DateOf(r.Start)).Hours() / 24)
}

// Overlaps uses the inclusive test start <= other.end && end >= other.start,
// so a stay ending on the day another begins counts as overlapping.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !r.End.Before(other.Start)
}

// Validate checks the range against today and the maximum stay length.
func (r DateRange) Validate(today time.Time, maxNights int) error {
	var details []apperrors.ValidationDetail

	if r.Start.IsZero() {
		details = append(details, apperrors.ValidationDetail{Field: "startDate", Message: "startDate is required"})
	}
	if r.End.IsZero() {
		details = append(details, apperrors.ValidationDetail{Field: "endDate", Message: "endDate is required"})
	}
	if len(details) > 0 {
		return apperrors.NewCodedValidationError(apperrors.CodeDateRangeInvalid, "invalid date range", details...)
	}

	if r.Start.Before(clock.DateOf(today)) {
		details = append(details, apperrors.ValidationDetail{Field: "startDate", Message: "startDate must not be in the past"})
	}
	if !r.End.After(r.Start) {
		details = append(details, apperrors.ValidationDetail{Field: "endDate", Message: "endDate must be after startDate"})
	} else if nights := r.Nights(); nights > maxNights {
		details = append(details, apperrors.ValidationDetail{
			Field:   "endDate",
			Message: fmt.Sprintf("stay must not exceed %d nights", maxNights),
		})
	}

	if len(details) > 0 {
		return apperrors.NewCodedValidationError(apperrors.CodeDateRangeInvalid, "invalid date range", details...)
	}
	return nil
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
}
