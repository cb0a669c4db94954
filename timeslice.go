/*
Copyright © 2024 the RESTORE authors.
This file is part of RESTORE.

RESTORE is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

RESTORE is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with RESTORE.  If not, see <http://www.gnu.org/licenses/>.
*/

package restore

import (
	"fmt"
	"sort"
)

// HoursPerYear is the reference for converting per-hour capacity
// bounds to per-year ones.
const HoursPerYear = 365 * 24

// TimeSlices holds the temporal structure of the model: ordered
// modeled years (possibly with a stride), representative days and
// intra-day time slices, plus the weights that annualize them.
//
// Days are opaque indices from the representative-day selection; no
// adjacency between days is assumed, and nothing here may link the
// last hour of one day to the first hour of another.
type TimeSlices struct {
	Years []int // modeled years, ascending
	Days  []int
	Hours []int // ascending; Hours[0] is the day boundary

	// AllYears steps through every calendar year of the horizon,
	// for vintage lookups between modeled years.
	AllYears []int

	// DayWeight is the number of real days each (year, day) pair
	// stands for. The weights for one year should sum to 365.
	DayWeight map[[2]int]float64

	// HourWeight is the number of real hours each time slice stands
	// for, usually 1.
	HourWeight float64

	// YearLen is the stride of the Years set.
	YearLen int
}

// NewTimeSlices builds the temporal sets. dayWeights applies to every
// year; use SetDayWeight for per-year overrides.
func NewTimeSlices(years []int, nDays int, hours []int, dayWeights []float64, hourWeight float64) (*TimeSlices, error) {
	if len(years) == 0 || nDays == 0 || len(hours) == 0 {
		return nil, &ConfigurationError{Reason: "years, days and hours must all be non-empty"}
	}
	if len(dayWeights) != nDays {
		return nil, &ConfigurationError{Reason: "one day weight required per representative day"}
	}
	ts := &TimeSlices{
		Years:      append([]int(nil), years...),
		Hours:      append([]int(nil), hours...),
		DayWeight:  make(map[[2]int]float64),
		HourWeight: hourWeight,
		YearLen:    1,
	}
	sort.Ints(ts.Years)
	sort.Ints(ts.Hours)
	if len(ts.Years) > 1 {
		ts.YearLen = ts.Years[1] - ts.Years[0]
	}
	// The vintage recurrence and the discount weights both assume a
	// uniform stride between modeled years.
	for i := 1; i < len(ts.Years); i++ {
		if ts.Years[i]-ts.Years[i-1] != ts.YearLen {
			return nil, &ConfigurationError{Reason: fmt.Sprintf(
				"modeled years must be evenly spaced: gap %d-%d differs from stride %d",
				ts.Years[i-1], ts.Years[i], ts.YearLen)}
		}
	}
	for d := 0; d < nDays; d++ {
		ts.Days = append(ts.Days, d)
	}
	for y := ts.Years[0]; y <= ts.Years[len(ts.Years)-1]; y++ {
		ts.AllYears = append(ts.AllYears, y)
	}
	for _, y := range ts.Years {
		for d, w := range dayWeights {
			ts.DayWeight[[2]int{y, d}] = w
		}
	}
	return ts, nil
}

// SetDayWeight overrides the weight of one (year, day) pair.
func (ts *TimeSlices) SetDayWeight(y, d int, w float64) {
	ts.DayWeight[[2]int{y, d}] = w
}

// BaseYear returns Y0.
func (ts *TimeSlices) BaseYear() int { return ts.Years[0] }

// LastYear returns the final modeled year.
func (ts *TimeSlices) LastYear() int { return ts.Years[len(ts.Years)-1] }

// FirstHour reports whether h is the first slice of a day, the
// boundary for storage and ramping.
func (ts *TimeSlices) FirstHour(h int) bool { return h == ts.Hours[0] }

// LastHour returns the final slice of a day.
func (ts *TimeSlices) LastHour() int { return ts.Hours[len(ts.Hours)-1] }

// PrevHour returns the slice preceding h within the same day. It must
// not be called for the first hour.
func (ts *TimeSlices) PrevHour(h int) int {
	for i, hh := range ts.Hours {
		if hh == h {
			return ts.Hours[i-1]
		}
	}
	panic("restore: hour not in time-slice set")
}

// Weight returns the annualization weight dayWeight(y,d)·hourWeight
// for one time slice.
func (ts *TimeSlices) Weight(y, d int) float64 {
	return ts.DayWeight[[2]int{y, d}] * ts.HourWeight
}

// Annualize sums a per-slice linear expression into an annual total:
// Σ_d dayWeight(y,d) · Σ_h hourWeight · term(d,h).
func (ts *TimeSlices) Annualize(y int, term func(d, h int) LinTerm) LinExpr {
	var expr LinExpr
	for _, d := range ts.Days {
		w := ts.Weight(y, d)
		for _, h := range ts.Hours {
			t := term(d, h)
			expr.Add(t.Var, w*t.Coef)
		}
	}
	return expr
}
