package clock

import "time"

// Clock supplies the current instant and the current calendar day in the
// booking time zone. Calendar days are returned as midnight UTC so that they
// compare cleanly with stored DATE columns.
type Clock interface {
	Now() time.Time
	Today() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

// New returns a clock backed by time.Now. A nil location means UTC.
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &systemClock{loc: loc}
}

func (c *systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *systemClock) Today() time.Time {
	return DateOf(c.Now())
}

func (c *systemClock) Location() *time.Location {
	return c.loc
}

// Fixed is a Clock frozen at a given instant.
type Fixed struct {
	At  time.Time
	Loc *time.Location
}

func NewFixed(at time.Time) *Fixed {
	return &Fixed{At: at, Loc: time.UTC}
}

func (f *Fixed) Now() time.Time {
	return f.At.In(f.Location())
}

func (f *Fixed) Today() time.Time {
	return DateOf(f.Now())
}

func (f *Fixed) Location() *time.Location {
	if f.Loc == nil {
		return time.UTC
	}
	return f.Loc
}

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.At = f.At.Add(d)
}

// DateOf truncates t to its calendar day in t's own location and returns it
// as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar day at midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns midnight of the calendar day in loc.
func StartOfDay(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
