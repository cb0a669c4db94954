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
	"errors"
	"math"
	"testing"
)

const testTolerance = 1e-8

func different(a, b float64) bool {
	if a == b {
		return false
	}
	return math.Abs(a-b) > testTolerance*math.Max(math.Abs(a), math.Abs(b))
}

func TestTimeSlices(t *testing.T) {
	t.Parallel()
	ts, err := NewTimeSlices([]int{2030, 2020}, 2, []int{0, 1, 2}, []float64{200, 165}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if ts.BaseYear() != 2020 || ts.LastYear() != 2030 {
		t.Errorf("year range = [%d, %d]", ts.BaseYear(), ts.LastYear())
	}
	if ts.YearLen != 10 {
		t.Errorf("YearLen = %d, want 10", ts.YearLen)
	}
	if len(ts.AllYears) != 11 || ts.AllYears[0] != 2020 || ts.AllYears[10] != 2030 {
		t.Errorf("AllYears = %v", ts.AllYears)
	}
	if !ts.FirstHour(0) || ts.FirstHour(1) {
		t.Error("FirstHour misidentifies the day boundary")
	}
	if ts.LastHour() != 2 {
		t.Errorf("LastHour = %d", ts.LastHour())
	}
	if ts.PrevHour(2) != 1 {
		t.Errorf("PrevHour(2) = %d", ts.PrevHour(2))
	}
	if different(ts.Weight(2020, 0), 200) || different(ts.Weight(2020, 1), 165) {
		t.Errorf("weights = %g, %g", ts.Weight(2020, 0), ts.Weight(2020, 1))
	}
}

func TestAnnualizeWeights(t *testing.T) {
	ts, err := NewTimeSlices([]int{2020}, 2, []int{0, 1}, []float64{300, 65}, 1)
	if err != nil {
		t.Fatal(err)
	}
	p := NewProblem()
	for _, d := range ts.Days {
		for _, h := range ts.Hours {
			p.AddVar(VarKey{Kind: VarActivity, Entity: "e", Year: 2020, Day: d, Hour: h})
		}
	}
	expr := ts.Annualize(2020, func(d, h int) LinTerm {
		return LinTerm{Var: p.MustVar(VarKey{Kind: VarActivity, Entity: "e", Year: 2020, Day: d, Hour: h}), Coef: 1}
	})
	var total float64
	for _, term := range expr.Terms() {
		total += term.Coef
	}
	// Two hours per day, day weights summing to 365.
	if different(total, 730) {
		t.Errorf("annualized coefficient sum = %g, want 730", total)
	}
}

func TestTimeSlicesRejects(t *testing.T) {
	if _, err := NewTimeSlices(nil, 1, []int{0}, []float64{365}, 1); err == nil {
		t.Error("empty year set accepted")
	}
	if _, err := NewTimeSlices([]int{2020}, 2, []int{0}, []float64{365}, 1); err == nil {
		t.Error("day weight count mismatch accepted")
	}
	// An uneven stride would break the vintage recurrence and the
	// discount weights.
	var ce *ConfigurationError
	_, err := NewTimeSlices([]int{2020, 2025, 2035}, 1, []int{0}, []float64{365}, 1)
	if !errors.As(err, &ce) {
		t.Errorf("unevenly spaced years accepted: %v", err)
	}
}
