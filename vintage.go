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

import "fmt"

// Capacity vintaging: total installed capacity in a year equals the
// carried-over pre-model residual capacity plus every vintage built in
// the window (yx ≤ y, y − yx < lifetime). A vintage installed in yx is
// therefore available through yx+lifetime−1 and gone at yx+lifetime;
// an undefined lifetime means no vintage ever retires. The recurrence
// is written as an explicit function over the ordered year index so it
// can be generated independently per entity.

// residualCapacity computes the pre-model capacity still standing in
// year y: the base-year actuals minus the exogenous retirement
// schedule, and zero once the lifetime window has passed Y0 entirely.
func (a *Assembler) residualCapacity(e string, y int) (float64, error) {
	initial, _, err := a.data.Get(e, ParamActualCapacity, a.ts.BaseYear())
	if err != nil {
		return 0, err
	}
	lifetime, hasLife, err := a.data.GetConst(e, ParamLifetime)
	if err != nil {
		return 0, err
	}
	if !hasLife {
		return initial, nil
	}
	if float64(y-a.ts.BaseYear()) >= lifetime {
		return 0, nil
	}
	var retired float64
	for _, yx := range a.ts.AllYears {
		if yx > y {
			break
		}
		r, _, err := a.data.Get(e, ParamInitialRetired, yx)
		if err != nil {
			return 0, err
		}
		retired += r
	}
	return initial - retired, nil
}

// vintageWindow reports whether a vintage built in yx is still
// standing in year y.
func vintageWindow(yx, y int, lifetime float64, hasLifetime bool) bool {
	if yx > y {
		return false
	}
	if !hasLifetime {
		return true
	}
	return float64(y-yx) < lifetime
}

// capTransfer emits the vintage-accumulation recurrence
// ctot(y) = residual(y) + Σ{cnew(yx) : yx ≤ y, y−yx < lifetime}.
func (a *Assembler) capTransfer(e string) error {
	if !a.top.Entity(e).Caps.Has(HasCapacity) {
		return nil
	}
	lifetime, hasLife, err := a.data.GetConst(e, ParamLifetime)
	if err != nil {
		return err
	}
	for _, y := range a.ts.Years {
		residual, err := a.residualCapacity(e, y)
		if err != nil {
			return err
		}
		var expr LinExpr
		expr.Add(a.capTot(e, y), 1)
		for _, yx := range a.ts.Years {
			if vintageWindow(yx, y, lifetime, hasLife) {
				expr.Add(a.capNew(e, yx), -1)
			}
		}
		a.add(fmt.Sprintf("cap_transfer[%s,%d]", e, y), expr, EQ, residual)
	}
	return nil
}

// capRetirementAccounting defines retired capacity as the bookkeeping
// identity cret(y) = ctot(y−yearLen) + cnew(y) − ctot(y), with no
// retirement at the base year. Retirement is fully determined by the
// transfer recurrence; cret only makes it observable.
func (a *Assembler) capRetirementAccounting(e string) error {
	if !a.top.Entity(e).Caps.Has(HasCapacity) {
		return nil
	}
	for _, y := range a.ts.Years {
		var expr LinExpr
		expr.Add(a.capRet(e, y), 1)
		if y == a.ts.BaseYear() {
			a.add(fmt.Sprintf("cap_retire[%s,%d]", e, y), expr, EQ, 0)
			continue
		}
		expr.Add(a.capTot(e, y-a.ts.YearLen), -1)
		expr.Add(a.capNew(e, y), -1)
		expr.Add(a.capTot(e, y), 1)
		a.add(fmt.Sprintf("cap_retire[%s,%d]", e, y), expr, EQ, 0)
	}
	return nil
}

// pinBaseYear optionally fixes the base-year capacity variables to the
// declared actuals, as a consistency check against residual capacity.
// Independent of the vintage recurrence; enabled by
// ComposeOptions.PinBaseYear.
func (a *Assembler) pinBaseYear(e string) error {
	ent := a.top.Entity(e)
	if !ent.Caps.Has(HasCapacity) || ent.EnableYear != a.ts.BaseYear() {
		return nil
	}
	actual, ok, err := a.data.Get(e, ParamActualCapacity, a.ts.BaseYear())
	if err != nil || !ok {
		return err
	}
	a.capTot(e, a.ts.BaseYear()).Fix(actual)
	a.capNew(e, a.ts.BaseYear()).Fix(0)
	a.capRet(e, a.ts.BaseYear()).Fix(0)
	return nil
}

// pinBaseActivity optionally fixes base-year activity to the declared
// annual actuals spread uniformly over the hours of the year. Applied
// only when the enable year coincides with the base year.
func (a *Assembler) pinBaseActivity(e string) error {
	ent := a.top.Entity(e)
	if ent.EnableYear != a.ts.BaseYear() {
		return nil
	}
	actual, ok, err := a.data.Get(e, ParamActualActivity, a.ts.BaseYear())
	if err != nil || !ok {
		return err
	}
	hourly := actual / HoursPerYear
	for _, d := range a.ts.Days {
		for _, h := range a.ts.Hours {
			a.activity(e, a.ts.BaseYear(), d, h).Fix(hourly)
		}
	}
	return nil
}

// gateEnableYear forces capacity and activity to zero for all years
// before the entity's declared enable year. Years at or after the
// enable year are left free for the solver.
func (a *Assembler) gateEnableYear(e string) {
	ent := a.top.Entity(e)
	for _, y := range a.ts.Years {
		if y >= ent.EnableYear {
			break
		}
		for _, v := range []*Var{a.capTot(e, y), a.capNew(e, y), a.capRet(e, y)} {
			if v != nil {
				v.Fix(0)
			}
		}
		for _, d := range a.ts.Days {
			for _, h := range a.ts.Hours {
				for _, v := range []*Var{
					a.activity(e, y, d, h),
					a.soc(e, y, d, h),
					a.impActivity(e, y, d, h),
					a.expActivity(e, y, d, h),
				} {
					if v != nil {
						v.Fix(0)
					}
				}
				for _, f := range a.top.Inputs(e) {
					a.flowIn(f, e, y, d, h).Fix(0)
				}
				for _, f := range a.top.Outputs(e) {
					a.flowOut(f, e, y, d, h).Fix(0)
				}
			}
		}
	}
}
