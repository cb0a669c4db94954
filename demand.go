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

// DemandModule handles final-demand sinks. Their hourly activity is
// not optimized: it is fixed from the annual demand and an intra-day
// shape so that the weighted sum over a year reproduces the annual
// figure exactly. The entity keeps the input coupling so the upstream
// system must deliver it; its only objective contribution is variable
// OM.
type DemandModule struct{}

// Name implements Module.
func (*DemandModule) Name() string { return "demand" }

// Applies implements Module.
func (*DemandModule) Applies(_ *Assembler, e *Entity) bool { return e.Caps.Has(IsDemand) }

// AssembleEntity implements Module.
func (m *DemandModule) AssembleEntity(a *Assembler, e *Entity) error {
	if err := demandPin(a, e); err != nil {
		return err
	}
	if err := a.flowInCoupling(e.ID); err != nil {
		return err
	}
	return a.ioShareConstraints(e.ID)
}

// Cost implements Module with variable OM only.
func (*DemandModule) Cost(a *Assembler, e *Entity) (LinExpr, error) {
	return a.CostVariableOM(e.ID)
}

// demandPin fixes activity to annualDemand·shape(h)/(365·hourWeight),
// with shape the normalized hourly profile (uniform when undefined).
// Years before the entity's enable year stay gated at zero.
func demandPin(a *Assembler, e *Entity) error {
	nh := len(a.ts.Hours)
	for _, y := range a.ts.Years {
		if y < e.EnableYear {
			continue
		}
		annual, ok, err := a.data.Get(e.ID, ParamActualDemand, y)
		if err != nil {
			return err
		}
		if !ok {
			return &ConfigurationError{Entity: e.ID,
				Reason: "demand entity without actual_demand for a modeled year"}
		}
		shape := make([]float64, nh)
		total := 0.0
		for hi := range a.ts.Hours {
			v, okH, err := a.data.GetHourly(e.ID, ParamDemandShape, y, hi)
			if err != nil {
				return err
			}
			if !okH {
				v = 1
			}
			shape[hi] = v
			total += v
		}
		for _, d := range a.ts.Days {
			for hi, h := range a.ts.Hours {
				v := annual * shape[hi] / total / (365 * a.ts.HourWeight)
				a.prob.MustVar(VarKey{Kind: VarActivity, Entity: e.ID, Year: y, Day: d, Hour: h}).Fix(v)
			}
		}
	}
	return nil
}
