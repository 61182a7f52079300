package simulate

import (
	"time"

	"github.com/couchcryptid/uhs-mrv-generator/internal/config"
	"github.com/couchcryptid/uhs-mrv-generator/internal/sampler"
)

// WeeklyIndex builds the simulation time axis: nYears*52 consecutive 7-day
// steps starting at start. Calendar years can therefore drift slightly
// against the 52-week simulation years; scheduling groups by calendar year
// of each timestamp, not by 52-week blocks.
func WeeklyIndex(start time.Time, nYears int) []time.Time {
	weeks := make([]time.Time, 0, nYears*52)
	for i := 0; i < nYears*52; i++ {
		weeks = append(weeks, start.AddDate(0, 0, 7*i))
	}
	return weeks
}

// Schedule marks which week indices carry an active cycle. One schedule is
// drawn for the whole run and shared by every facility.
type Schedule struct {
	active map[int]bool
}

// BuildSchedule draws the activation pattern. For each calendar year, in
// chronological order, it draws a cycle count in [MinCyclesPerYear,
// MaxCyclesPerYear] (clamped to the number of weeks that fall in the year)
// and then picks that many distinct weeks.
func BuildSchedule(cyc config.Cycling, weeks []time.Time, s *sampler.Sampler) Schedule {
	byYear := make(map[int][]int)
	var years []int
	for idx, ts := range weeks {
		y := ts.Year()
		if _, ok := byYear[y]; !ok {
			years = append(years, y)
		}
		byYear[y] = append(byYear[y], idx)
	}

	active := make(map[int]bool)
	for _, y := range years {
		indices := byYear[y]
		n := s.IntBetween(cyc.MinCyclesPerYear, cyc.MaxCyclesPerYear)
		if n > len(indices) {
			n = len(indices)
		}
		for _, idx := range s.PickN(indices, n) {
			active[idx] = true
		}
	}
	return Schedule{active: active}
}

// Active reports whether the week at idx carries a cycle.
func (sc Schedule) Active(idx int) bool { return sc.active[idx] }

// ActiveCount returns the total number of active weeks in the run.
func (sc Schedule) ActiveCount() int { return len(sc.active) }
