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

// Generic expressions: formulas over parameters and decision variables
// that are substituted wherever referenced. They create no variables of
// their own, and sector modules may override the cost expressions for
// their capability sets.

// Variable accessors. These return nil for undeclared sparse indices.

func (a *Assembler) activity(e string, y, d, h int) *Var {
	return a.prob.Var(VarKey{Kind: VarActivity, Entity: e, Year: y, Day: d, Hour: h})
}

func (a *Assembler) flowIn(f, e string, y, d, h int) *Var {
	return a.prob.Var(VarKey{Kind: VarFlowIn, Entity: e, Flow: f, Year: y, Day: d, Hour: h})
}

func (a *Assembler) flowOut(f, e string, y, d, h int) *Var {
	return a.prob.Var(VarKey{Kind: VarFlowOut, Entity: e, Flow: f, Year: y, Day: d, Hour: h})
}

func (a *Assembler) capTot(e string, y int) *Var {
	return a.prob.Var(VarKey{Kind: VarCapTot, Entity: e, Year: y})
}

func (a *Assembler) capNew(e string, y int) *Var {
	return a.prob.Var(VarKey{Kind: VarCapNew, Entity: e, Year: y})
}

func (a *Assembler) capRet(e string, y int) *Var {
	return a.prob.Var(VarKey{Kind: VarCapRet, Entity: e, Year: y})
}

func (a *Assembler) soc(e string, y, d, h int) *Var {
	return a.prob.Var(VarKey{Kind: VarSOC, Entity: e, Year: y, Day: d, Hour: h})
}

func (a *Assembler) impActivity(e string, y, d, h int) *Var {
	return a.prob.Var(VarKey{Kind: VarImport, Entity: e, Year: y, Day: d, Hour: h})
}

func (a *Assembler) expActivity(e string, y, d, h int) *Var {
	return a.prob.Var(VarKey{Kind: VarExport, Entity: e, Year: y, Day: d, Hour: h})
}

// TotalAnnualActivity is Σ_d dayWeight(y,d) · Σ_h hourWeight · a(e,y,d,h).
func (a *Assembler) TotalAnnualActivity(e string, y int) LinExpr {
	return a.ts.Annualize(y, func(d, h int) LinTerm {
		return LinTerm{Var: a.activity(e, y, d, h), Coef: 1}
	})
}

// TotalAnnualInflow annualizes one input edge's flow.
func (a *Assembler) TotalAnnualInflow(f, e string, y int) LinExpr {
	return a.ts.Annualize(y, func(d, h int) LinTerm {
		return LinTerm{Var: a.flowIn(f, e, y, d, h), Coef: 1}
	})
}

// TotalAnnualOutflow annualizes one output edge's flow.
func (a *Assembler) TotalAnnualOutflow(f, e string, y int) LinExpr {
	return a.ts.Annualize(y, func(d, h int) LinTerm {
		return LinTerm{Var: a.flowOut(f, e, y, d, h), Coef: 1}
	})
}

// HourlyCapToAct converts installed capacity to the activity available
// in a single time slice: capacityToActivity · hourWeight / hoursPerYear.
// Undefined (and not computed) for entities without capacity. An
// undefined capacity-to-activity factor means capacity and activity
// share a unit basis, i.e. a factor of 1.
func (a *Assembler) HourlyCapToAct(e string, y int) (float64, bool, error) {
	ent := a.top.Entity(e)
	if ent == nil || !ent.Caps.Has(HasCapacity) {
		return 0, false, nil
	}
	c2a, ok, err := a.data.Get(e, ParamCapToAct, y)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		c2a = 1
	}
	return c2a * a.ts.HourWeight / HoursPerYear, true, nil
}

// discWeight is the discount weight of a modeled year. With a year
// stride, costs of the skipped calendar years are charged at the level
// of the preceding modeled year; the last modeled year is charged once.
func (a *Assembler) discWeight(y int) float64 {
	if y == a.ts.LastYear() {
		return a.disc[y]
	}
	var w float64
	for i := 0; i < a.ts.YearLen; i++ {
		w += a.disc[y+i]
	}
	return w
}

// CostInvestment is Σ_y disc(y)·investmentCost(e,y)·cnew(e,y).
// Zero for entities without capacity.
func (a *Assembler) CostInvestment(e string) (LinExpr, error) {
	var cost LinExpr
	ent := a.top.Entity(e)
	if ent == nil || !ent.Caps.Has(HasCapacity) {
		return cost, nil
	}
	for _, y := range a.ts.Years {
		c, ok, err := a.data.Get(e, ParamCostInvestment, y)
		if err != nil {
			return cost, err
		}
		if !ok {
			continue
		}
		cost.Add(a.capNew(e, y), a.disc[y]*c)
	}
	return cost, nil
}

// CostFixedOM is Σ_y disc(y)·fixedOMCost(e,y)·ctot(e,y), extended over
// non-modeled years. Zero for entities without capacity.
func (a *Assembler) CostFixedOM(e string) (LinExpr, error) {
	var cost LinExpr
	ent := a.top.Entity(e)
	if ent == nil || !ent.Caps.Has(HasCapacity) {
		return cost, nil
	}
	for _, y := range a.ts.Years {
		c, ok, err := a.data.Get(e, ParamCostFixedOM, y)
		if err != nil {
			return cost, err
		}
		if !ok {
			continue
		}
		cost.Add(a.capTot(e, y), a.discWeight(y)*c)
	}
	return cost, nil
}

// CostVariableOM is Σ_y disc(y)·variableOMCost(e,y)·TotalAnnualActivity(e,y),
// extended over non-modeled years.
func (a *Assembler) CostVariableOM(e string) (LinExpr, error) {
	var cost LinExpr
	for _, y := range a.ts.Years {
		c, ok, err := a.data.Get(e, ParamCostVariableOM, y)
		if err != nil {
			return cost, err
		}
		if !ok {
			continue
		}
		annual := a.TotalAnnualActivity(e, y)
		cost.AddExpr(annual, a.discWeight(y)*c)
	}
	return cost, nil
}

// CostCombined sums investment, fixed and variable O&M; missing terms
// are zero. This is the generic objective contribution of an entity,
// overridden by modules such as trade.
func (a *Assembler) CostCombined(e string) (LinExpr, error) {
	inv, err := a.CostInvestment(e)
	if err != nil {
		return inv, err
	}
	fom, err := a.CostFixedOM(e)
	if err != nil {
		return inv, err
	}
	vom, err := a.CostVariableOM(e)
	if err != nil {
		return inv, err
	}
	inv.AddExpr(fom, 1)
	inv.AddExpr(vom, 1)
	return inv, nil
}
