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

	"gonum.org/v1/gonum/floats"
)

// Result extraction. All getters require a solved model; values come
// straight from the variable arena the solution was applied to.

func (m *Model) value(key VarKey) (float64, error) {
	if !m.solved {
		return 0, fmt.Errorf("restore: model has not been solved")
	}
	v := m.Problem.Var(key)
	if v == nil {
		return 0, fmt.Errorf("restore: no variable %v in this model", key)
	}
	return v.Value, nil
}

// Activity returns a(e,y,d,h).
func (m *Model) Activity(e string, y, d, h int) (float64, error) {
	return m.value(VarKey{Kind: VarActivity, Entity: e, Year: y, Day: d, Hour: h})
}

// Capacity returns total installed capacity ctot(e,y).
func (m *Model) Capacity(e string, y int) (float64, error) {
	return m.value(VarKey{Kind: VarCapTot, Entity: e, Year: y})
}

// NewCapacity returns cnew(e,y).
func (m *Model) NewCapacity(e string, y int) (float64, error) {
	return m.value(VarKey{Kind: VarCapNew, Entity: e, Year: y})
}

// RetiredCapacity returns cret(e,y).
func (m *Model) RetiredCapacity(e string, y int) (float64, error) {
	return m.value(VarKey{Kind: VarCapRet, Entity: e, Year: y})
}

// StateOfCharge returns soc(e,y,d,h).
func (m *Model) StateOfCharge(e string, y, d, h int) (float64, error) {
	return m.value(VarKey{Kind: VarSOC, Entity: e, Year: y, Day: d, Hour: h})
}

// FlowIn returns fin(f,e,y,d,h).
func (m *Model) FlowIn(f, e string, y, d, h int) (float64, error) {
	return m.value(VarKey{Kind: VarFlowIn, Entity: e, Flow: f, Year: y, Day: d, Hour: h})
}

// FlowOut returns fout(f,e,y,d,h).
func (m *Model) FlowOut(f, e string, y, d, h int) (float64, error) {
	return m.value(VarKey{Kind: VarFlowOut, Entity: e, Flow: f, Year: y, Day: d, Hour: h})
}

// Import returns aimp(e,y,d,h) for a trade entity.
func (m *Model) Import(e string, y, d, h int) (float64, error) {
	return m.value(VarKey{Kind: VarImport, Entity: e, Year: y, Day: d, Hour: h})
}

// Export returns aexp(e,y,d,h) for a trade entity.
func (m *Model) Export(e string, y, d, h int) (float64, error) {
	return m.value(VarKey{Kind: VarExport, Entity: e, Year: y, Day: d, Hour: h})
}

// AnnualActivity sums an entity's weighted activity over one year.
func (m *Model) AnnualActivity(e string, y int) (float64, error) {
	return m.annualize(y, func(d, h int) (float64, error) {
		return m.Activity(e, y, d, h)
	})
}

// AnnualFlowIn sums one edge's weighted input over one year.
func (m *Model) AnnualFlowIn(f, e string, y int) (float64, error) {
	return m.annualize(y, func(d, h int) (float64, error) {
		return m.FlowIn(f, e, y, d, h)
	})
}

// AnnualFlowOut sums one edge's weighted output over one year.
func (m *Model) AnnualFlowOut(f, e string, y int) (float64, error) {
	return m.annualize(y, func(d, h int) (float64, error) {
		return m.FlowOut(f, e, y, d, h)
	})
}

func (m *Model) annualize(y int, at func(d, h int) (float64, error)) (float64, error) {
	totals := make([]float64, 0, len(m.Slices.Days))
	for _, d := range m.Slices.Days {
		w := m.Slices.Weight(y, d)
		sum := 0.0
		for _, h := range m.Slices.Hours {
			v, err := at(d, h)
			if err != nil {
				return 0, err
			}
			sum += v
		}
		totals = append(totals, w*sum)
	}
	return floats.Sum(totals), nil
}

// Results extracts whole variable families by kind name ("a", "fin",
// "fout", "cnew", "cret", "ctot", "soc", "aimp", "aexp"), in arena
// order. Unknown names are an error.
func (m *Model) Results(names ...string) (map[string][]float64, error) {
	if !m.solved {
		return nil, fmt.Errorf("restore: model has not been solved")
	}
	want := make(map[string]bool, len(names))
	out := make(map[string][]float64, len(names))
	for _, name := range names {
		known := false
		for _, kn := range varKindNames {
			if kn == name {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("restore: unknown variable family %q", name)
		}
		want[name] = true
		out[name] = nil
	}
	for _, v := range m.Problem.Vars {
		name := v.Key.Kind.String()
		if want[name] {
			out[name] = append(out[name], v.Value)
		}
	}
	return out, nil
}
