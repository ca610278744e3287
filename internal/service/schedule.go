package service

import (
	"fmt"
	"math/big"
	"time"

	"github.com/lipanski/flycheap/internal/domain"
)

const day = 24 * time.Hour

// Schedule spreads rounds evenly over a day, on a lattice anchored at local
// midnight. It is immutable and safe for concurrent use.
type Schedule struct {
	requestsPerDay   int
	requestsPerRound int
	roundsPerDay     int
}

// NewSchedule works out how many rounds of requestsPerRound fit in
// requestsPerDay. Returns domain.ErrNoFeasibleSchedule when not even one does.
func NewSchedule(requestsPerDay, requestsPerRound int) (Schedule, error) {
	if requestsPerDay <= 0 || requestsPerRound <= 0 {
		return Schedule{}, fmt.Errorf("%w: %d requests per day, %d per round",
			domain.ErrNoFeasibleSchedule, requestsPerDay, requestsPerRound)
	}

	rounds := requestsPerDay / requestsPerRound
	if rounds == 0 {
		return Schedule{}, fmt.Errorf("%w: a round needs %d requests but the budget is %d per day",
			domain.ErrNoFeasibleSchedule, requestsPerRound, requestsPerDay)
	}

	return Schedule{
		requestsPerDay:   requestsPerDay,
		requestsPerRound: requestsPerRound,
		roundsPerDay:     rounds,
	}, nil
}

func (s Schedule) RequestsPerDay() int   { return s.requestsPerDay }
func (s Schedule) RequestsPerRound() int { return s.requestsPerRound }
func (s Schedule) RoundsPerDay() int     { return s.roundsPerDay }

// Interval is the spacing between rounds, truncated to the nanosecond.
// NextRunAt does not use it; it works on the exact fraction.
func (s Schedule) Interval() time.Duration {
	return day / time.Duration(s.roundsPerDay)
}

// NextRunAt returns the first lattice point at or after now. Lattice points
// are midnight + floor(k * 24h / roundsPerDay) for k = 0, 1, 2, ...
// where midnight is the start of now's day in now's location.
func (s Schedule) NextRunAt(now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	elapsed := big.NewInt(int64(now.Sub(midnight)))
	rounds := big.NewInt(int64(s.roundsPerDay))
	dayNs := big.NewInt(int64(day))

	// k = ceil(elapsed * rounds / day): the smallest k whose exact offset
	// k*day/rounds is >= elapsed. Flooring that offset keeps it >= elapsed
	// because elapsed is a whole number of nanoseconds.
	k := new(big.Int).Mul(elapsed, rounds)
	k.Add(k, new(big.Int).Sub(dayNs, big.NewInt(1)))
	k.Quo(k, dayNs)

	offset := new(big.Int).Mul(k, dayNs)
	offset.Quo(offset, rounds)

	return midnight.Add(time.Duration(offset.Int64()))
}

// WaitDuration is how long to sleep from now until NextRunAt. Never negative.
func (s Schedule) WaitDuration(now time.Time) time.Duration {
	d := s.NextRunAt(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
