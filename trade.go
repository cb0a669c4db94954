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

	log "github.com/sirupsen/logrus"
)

// TradeModule handles cross-border exchange entities. Activity splits
// into an import part feeding the entity's outputs and an export part
// drawing from its inputs; either direction can be disabled by
// capability. Imports are bought and exports are sold, so the cost
// contribution replaces the generic variable OM with an import cost
// minus an export revenue.
type TradeModule struct{}

// Name implements Module.
func (*TradeModule) Name() string { return "trade" }

// Applies implements Module.
func (*TradeModule) Applies(_ *Assembler, e *Entity) bool { return e.Caps.Has(IsTrade) }

// AssembleEntity implements Module.
func (m *TradeModule) AssembleEntity(a *Assembler, e *Entity) error {
	if !e.Caps.Has(AllowImport) && !e.Caps.Has(AllowExport) && e.Caps.Has(HasCapacity) {
		return &ConfigurationError{Entity: e.ID,
			Reason: "trade entity carries capacity but allows neither import nor export"}
	}
	if err := tradeActivity(a, e); err != nil {
		return err
	}
	if err := tradeAnnualCaps(a, e); err != nil {
		return err
	}
	if err := a.flowShareConstraints(e.ID); err != nil {
		return err
	}
	if err := a.genericCapacityConstraints(e.ID); err != nil {
		return err
	}
	return a.genericActivityConstraints(e.ID)
}

// Cost implements Module: investment and fixed OM from the generic
// library, plus discounted annualized import cost and export revenue.
func (*TradeModule) Cost(a *Assembler, e *Entity) (LinExpr, error) {
	total, err := a.CostInvestment(e.ID)
	if err != nil {
		return LinExpr{}, err
	}
	fixed, err := a.CostFixedOM(e.ID)
	if err != nil {
		return LinExpr{}, err
	}
	total.AddExpr(fixed, 1)
	for _, y := range a.ts.Years {
		w := a.discWeight(y)
		if price, ok, err := a.data.Get(e.ID, ParamCostImport, y); err != nil {
			return LinExpr{}, err
		} else if ok {
			annual := a.ts.Annualize(y, func(d, h int) LinTerm {
				return LinTerm{Var: a.impActivity(e.ID, y, d, h), Coef: 1}
			})
			total.AddExpr(annual, w*price)
		}
		if price, ok, err := a.data.Get(e.ID, ParamRevenueExport, y); err != nil {
			return LinExpr{}, err
		} else if ok {
			annual := a.ts.Annualize(y, func(d, h int) LinTerm {
				return LinTerm{Var: a.expActivity(e.ID, y, d, h), Coef: 1}
			})
			total.AddExpr(annual, -w*price)
		}
	}
	return total, nil
}

// tradeActivity ties activity to the import/export split, couples each
// direction to its flows, and zeroes whichever direction the entity
// disallows.
func tradeActivity(a *Assembler, e *Entity) error {
	inputs, outputs := a.top.Inputs(e.ID), a.top.Outputs(e.ID)
	for _, y := range a.ts.Years {
		for _, d := range a.ts.Days {
			for _, h := range a.ts.Hours {
				var split LinExpr
				split.Add(a.activity(e.ID, y, d, h), 1)
				split.Add(a.impActivity(e.ID, y, d, h), -1)
				split.Add(a.expActivity(e.ID, y, d, h), -1)
				a.add(fmt.Sprintf("trd_act_setup[%s,%d,%d,%d]", e.ID, y, d, h), split, EQ, 0)

				if e.Caps.Has(AllowImport) {
					var imp LinExpr
					imp.Add(a.impActivity(e.ID, y, d, h), 1)
					for _, f := range outputs {
						eff, err := a.data.Efficiency(e.ID, f, Out, y)
						if err != nil {
							return err
						}
						imp.Add(a.flowOut(f, e.ID, y, d, h), -1/eff)
					}
					a.add(fmt.Sprintf("trd_import[%s,%d,%d,%d]", e.ID, y, d, h), imp, EQ, 0)
				} else {
					a.prob.MustVar(VarKey{Kind: VarImport, Entity: e.ID, Year: y, Day: d, Hour: h}).Fix(0)
				}

				if e.Caps.Has(AllowExport) {
					var exp LinExpr
					exp.Add(a.expActivity(e.ID, y, d, h), 1)
					for _, f := range inputs {
						eff, err := a.data.Efficiency(e.ID, f, In, y)
						if err != nil {
							return err
						}
						exp.Add(a.flowIn(f, e.ID, y, d, h), -eff)
					}
					a.add(fmt.Sprintf("trd_export[%s,%d,%d,%d]", e.ID, y, d, h), exp, EQ, 0)
				} else {
					a.prob.MustVar(VarKey{Kind: VarExport, Entity: e.ID, Year: y, Day: d, Hour: h}).Fix(0)
				}
			}
		}
	}
	return nil
}

// tradeAnnualCaps caps the annualized import and export totals
// separately. Either cap is skipped when its parameter is undefined.
func tradeAnnualCaps(a *Assembler, e *Entity) error {
	for _, y := range a.ts.Years {
		if max, ok, err := a.data.Get(e.ID, ParamMaxImportAnnual, y); err != nil {
			return err
		} else if !ok {
			a.skipped("trd_import_max_annual", e.ID, log.Fields{"year": y})
		} else {
			expr := a.ts.Annualize(y, func(d, h int) LinTerm {
				return LinTerm{Var: a.impActivity(e.ID, y, d, h), Coef: 1}
			})
			a.add(fmt.Sprintf("trd_import_max_annual[%s,%d]", e.ID, y), expr, LE, max)
		}
		if max, ok, err := a.data.Get(e.ID, ParamMaxExportAnnual, y); err != nil {
			return err
		} else if !ok {
			a.skipped("trd_export_max_annual", e.ID, log.Fields{"year": y})
		} else {
			expr := a.ts.Annualize(y, func(d, h int) LinTerm {
				return LinTerm{Var: a.expActivity(e.ID, y, d, h), Coef: 1}
			})
			a.add(fmt.Sprintf("trd_export_max_annual[%s,%d]", e.ID, y), expr, LE, max)
		}
	}
	return nil
}
