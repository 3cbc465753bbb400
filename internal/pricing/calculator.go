package pricing

import (
	"github.com/shopspring/decimal"

	"staybook/internal/domain"
)

// DefaultChildRate is the flat nightly charge for a tier A child.
var DefaultChildRate = decimal.RequireFromString("50.00")

type Calculator struct {
	childRate decimal.Decimal
}

func NewCalculator(childRate decimal.Decimal) *Calculator {
	return &Calculator{childRate: childRate}
}

func (c *Calculator) ChildRate() decimal.Decimal {
	return c.childRate
}

// Price returns rate*nights*adults + childRate*nights*tierA. Tier B children
// are free. The range must already be validated.
func (c *Calculator) Price(nightlyRate decimal.Decimal, stay domain.DateRange, guests domain.Occupants) decimal.Decimal {
	nights := decimal.NewFromInt(int64(stay.Nights()))

	adults := nightlyRate.Mul(nights).Mul(decimal.NewFromInt(int64(guests.Adults)))
	children := c.childRate.Mul(nights).Mul(decimal.NewFromInt(int64(guests.ChildrenTierA)))

	return adults.Add(children).Round(2)
}
