package chrono

import (
	"time"

	_ "time/tzdata"
)

// TimeAPI is the source of "now" for anything that stamps or expires data.
//
// note: fault injection point
type TimeAPI interface {
	Now() time.Time
	Location() *time.Location
}

// StandardImpl reports the wall clock in the auction house's local time.
type StandardImpl struct {
	location *time.Location
}

func NewStandardImpl(timezone string) (StandardImpl, error) {
	if timezone == "" {
		timezone = "America/Chicago"
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl always reports the same instant, it can be moved with Advance.
type FixedImpl struct {
	now *time.Time
}

func NewFixedImpl(now time.Time) FixedImpl {
	return FixedImpl{now: &now}
}

func (f FixedImpl) Now() time.Time {
	return *f.now
}

func (f FixedImpl) Location() *time.Location {
	return f.now.Location()
}

func (f FixedImpl) Advance(d time.Duration) {
	*f.now = f.now.Add(d)
}
