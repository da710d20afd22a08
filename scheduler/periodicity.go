// Package scheduler decides which recurring reports are due on a day and
// runs them.
package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var ErrInvalidPeriodicity = errors.New("scheduler: invalid periodicity")

// Periodicity tags how often a schedule runs.
type Periodicity string

const (
	Daily      Periodicity = "daily"
	Weekdays   Periodicity = "weekdays"
	Weekends   Periodicity = "weekends"
	Mondays    Periodicity = "mondays"
	Tuesdays   Periodicity = "tuesdays"
	Wednesdays Periodicity = "wednesdays"
	Thursdays  Periodicity = "thursdays"
	Fridays    Periodicity = "fridays"
	Saturdays  Periodicity = "saturdays"
	Sundays    Periodicity = "sundays"
)

// PeriodicitiesByWeekday lists the tags due on each weekday.
var PeriodicitiesByWeekday = map[time.Weekday][]Periodicity{
	time.Monday:    {Daily, Weekdays, Mondays},
	time.Tuesday:   {Daily, Weekdays, Tuesdays},
	time.Wednesday: {Daily, Weekdays, Wednesdays},
	time.Thursday:  {Daily, Weekdays, Thursdays},
	time.Friday:    {Daily, Weekdays, Fridays},
	time.Saturday:  {Daily, Weekends, Saturdays},
	time.Sunday:    {Daily, Weekends, Sundays},
}

// Periodicities returns every known tag, sorted.
func Periodicities() []Periodicity {
	seen := map[Periodicity]bool{}
	var out []Periodicity
	for _, ps := range PeriodicitiesByWeekday {
		for _, p := range ps {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p Periodicity) Validate() error {
	for _, known := range Periodicities() {
		if p == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidPeriodicity, string(p))
}

func ParsePeriodicity(s string) (Periodicity, error) {
	p := Periodicity(s)
	return p, p.Validate()
}

// Due returns the tags due on ref's weekday.
func Due(ref time.Time) []Periodicity {
	return PeriodicitiesByWeekday[ref.Weekday()]
}
