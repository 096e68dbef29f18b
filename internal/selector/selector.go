// Package selector resolves how the user asked for a date into one concrete
// APOD date.
//
// There are three modes, checked in order:
//  1. An explicit month/day/year
//  2. Surprise: a random date between the first APOD and today
//  3. Default: yesterday, because today's entry may not be published yet
package selector

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/handiism/apod-downloader/internal/model"
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

// Surprise draw bounds. The year range is fixed rather than tracking the
// current year, so every surprise date falls in 1995-2019.
const (
	SurpriseMinYear = 1995
	SurpriseMaxYear = 2019

	// DefaultMaxAttempts caps the surprise search.
	DefaultMaxAttempts = 10000
)

// Request describes how the date should be chosen.
type Request struct {
	// Explicit is the user supplied month/day/year, or nil.
	Explicit *model.Triple

	// Surprise asks for a random date. Ignored when Explicit is set.
	Surprise bool
}

// Selector picks the date for a run.
type Selector struct {
	clock       Clock
	rng         *rand.Rand
	maxAttempts int
}

// Option configures a Selector.
type Option func(*Selector)

// WithClock sets the clock used to determine "today".
func WithClock(c Clock) Option {
	return func(s *Selector) { s.clock = c }
}

// WithRand sets the random source for surprise mode.
func WithRand(r *rand.Rand) Option {
	return func(s *Selector) { s.rng = r }
}

// WithMaxAttempts caps how many random draws surprise mode makes.
func WithMaxAttempts(n int) Option {
	return func(s *Selector) { s.maxAttempts = n }
}

// New creates a Selector using the system clock and a randomly seeded source.
func New(opts ...Option) *Selector {
	s := &Selector{
		clock:       SystemClock{},
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar day in the clock's location.
func (s *Selector) Today() model.Date {
	return model.DateOf(s.clock.Now())
}

// Select returns the date for req.
//
// Returns an error wrapping:
//   - model.ErrInvalidDate if the explicit triple is not a real day
//   - model.ErrNoValidDate if the explicit date is not before today
//   - model.ErrRandomDateExhausted if surprise mode ran out of attempts
//
// Any other failure is reported as model.ErrNoValidDate.
func (s *Selector) Select(req Request) (model.Date, error) {
	d, err := s.selectDate(req)
	if err != nil && !errors.Is(err, model.ErrInvalidDate) && !errors.Is(err, model.ErrNoValidDate) {
		return model.Date{}, fmt.Errorf("%w: %v", model.ErrNoValidDate, err)
	}
	return d, err
}

func (s *Selector) selectDate(req Request) (model.Date, error) {
	switch {
	case req.Explicit != nil:
		return s.Explicit(*req.Explicit)
	case req.Surprise:
		return s.Random()
	default:
		return s.Yesterday(), nil
	}
}

// Explicit validates a user supplied date. The date must exist and be
// strictly before today.
func (s *Selector) Explicit(t model.Triple) (model.Date, error) {
	d, err := t.Date()
	if err != nil {
		return model.Date{}, err
	}

	if today := s.Today(); !d.Before(today) {
		return model.Date{}, fmt.Errorf("%w: %s is not before %s", model.ErrNoValidDate, d, today)
	}

	return d, nil
}

// Yesterday returns today minus one day.
func (s *Selector) Yesterday() model.Date {
	return s.Today().AddDays(-1)
}

// Random draws dates until one falls strictly between the first APOD and
// today.
//
// Each draw picks a year in [1995, 2019], a month in [1, 12] and a day in
// [1, 31]. If that is not a real date the year and month are drawn again with
// the day limited to [1, 30].
func (s *Selector) Random() (model.Date, error) {
	today := s.Today()

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		d, err := s.draw(31)
		if err != nil {
			d, err = s.draw(30)
			if err != nil {
				continue
			}
		}
		if d.After(model.FirstAPOD) && d.Before(today) {
			return d, nil
		}
	}

	return model.Date{}, fmt.Errorf("%w after %d attempts", model.ErrRandomDateExhausted, s.maxAttempts)
}

// draw makes one random year/month/day pick with day in [1, maxDay].
func (s *Selector) draw(maxDay int) (model.Date, error) {
	year := SurpriseMinYear + s.rng.IntN(SurpriseMaxYear-SurpriseMinYear+1)
	month := time.Month(1 + s.rng.IntN(12))
	day := 1 + s.rng.IntN(maxDay)
	return model.NewDate(year, month, day)
}
