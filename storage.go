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
	"math"

	log "github.com/sirupsen/logrus"
)

// StorageModule handles entities with a tracked state of charge.
// Activity is throughput (charge plus discharge); the SoC follows an
// intra-day recurrence with standing losses, is pinned to a per-entity
// initial level at the first hour of every day, and must close the day
// where it opened. Days never exchange energy with each other.
type StorageModule struct{}

// Name implements Module.
func (*StorageModule) Name() string { return "storage" }

// Applies implements Module.
func (*StorageModule) Applies(_ *Assembler, e *Entity) bool { return e.Caps.Has(HasStorage) }

// AssembleEntity implements Module.
func (*StorageModule) AssembleEntity(a *Assembler, e *Entity) error {
	if err := storageActivity(a, e.ID); err != nil {
		return err
	}
	if err := storagePowerLimits(a, e.ID); err != nil {
		return err
	}
	if err := storageStateOfCharge(a, e.ID); err != nil {
		return err
	}
	if err := a.flowShareConstraints(e.ID); err != nil {
		return err
	}
	if err := a.ioShareConstraints(e.ID); err != nil {
		return err
	}
	if err := a.genericCapacityConstraints(e.ID); err != nil {
		return err
	}
	return a.actMaxAnnual(e.ID)
}

// Cost implements Module with the generic combined cost.
func (*StorageModule) Cost(a *Assembler, e *Entity) (LinExpr, error) {
	return a.CostCombined(e.ID)
}

// storageActivity defines activity as total throughput, the
// efficiency-weighted charge plus discharge, replacing the converter
// couplings.
func storageActivity(a *Assembler, e string) error {
	inputs, outputs := a.top.Inputs(e), a.top.Outputs(e)
	for _, y := range a.ts.Years {
		for _, d := range a.ts.Days {
			for _, h := range a.ts.Hours {
				var expr LinExpr
				expr.Add(a.activity(e, y, d, h), 1)
				for _, f := range inputs {
					eff, err := a.data.Efficiency(e, f, In, y)
					if err != nil {
						return err
					}
					expr.Add(a.flowIn(f, e, y, d, h), -eff)
				}
				for _, f := range outputs {
					eff, err := a.data.Efficiency(e, f, Out, y)
					if err != nil {
						return err
					}
					expr.Add(a.flowOut(f, e, y, d, h), -1/eff)
				}
				a.add(fmt.Sprintf("sto_act_setup[%s,%d,%d,%d]", e, y, d, h), expr, EQ, 0)
			}
		}
	}
	return nil
}

// storagePowerLimits bounds hourly charge and discharge each by the
// hourly capacity-to-activity conversion of the installed capacity.
func storagePowerLimits(a *Assembler, e string) error {
	if !a.top.Entity(e).Caps.Has(HasCapacity) {
		return nil
	}
	inputs, outputs := a.top.Inputs(e), a.top.Outputs(e)
	for _, y := range a.ts.Years {
		c2a, _, err := a.HourlyCapToAct(e, y)
		if err != nil {
			return err
		}
		for _, d := range a.ts.Days {
			for _, h := range a.ts.Hours {
				var charge LinExpr
				for _, f := range inputs {
					charge.Add(a.flowIn(f, e, y, d, h), 1)
				}
				charge.Add(a.capTot(e, y), -c2a)
				a.add(fmt.Sprintf("sto_charge_limit[%s,%d,%d,%d]", e, y, d, h), charge, LE, 0)

				var discharge LinExpr
				for _, f := range outputs {
					discharge.Add(a.flowOut(f, e, y, d, h), 1)
				}
				discharge.Add(a.capTot(e, y), -c2a)
				a.add(fmt.Sprintf("sto_discharge_limit[%s,%d,%d,%d]", e, y, d, h), discharge, LE, 0)
			}
		}
	}
	return nil
}

// storageStateOfCharge emits the SoC bound, the hour-to-hour
// recurrence with standing losses, the first-hour pin to the initial
// level, and the intra-day cyclic closure. The family is skipped when
// the C-rate is undefined since without it the reservoir has no size.
func storageStateOfCharge(a *Assembler, e string) error {
	cRate, ok, err := a.data.GetConst(e, ParamCRate)
	if err != nil {
		return err
	}
	if !ok {
		a.skipped("sto_soc", e, nil)
		return nil
	}
	inputs, outputs := a.top.Inputs(e), a.top.Outputs(e)
	for _, y := range a.ts.Years {
		standing, ok, err := a.data.Get(e, ParamStandingEff, y)
		if err != nil {
			return err
		}
		if !ok {
			standing = 1
		}
		decay := math.Pow(standing, a.ts.HourWeight)
		c2a, _, err := a.HourlyCapToAct(e, y)
		if err != nil {
			return err
		}
		initial, err := initialSOC(a, e, cRate)
		if err != nil {
			return err
		}
		h0, hLast := a.ts.Hours[0], a.ts.LastHour()
		for _, d := range a.ts.Days {
			for _, h := range a.ts.Hours {
				// Reservoir size: soc ≤ cRate·c2a·ctot.
				var limit LinExpr
				limit.Add(a.soc(e, y, d, h), 1)
				limit.Add(a.capTot(e, y), -cRate*c2a)
				a.add(fmt.Sprintf("sto_soc_limit[%s,%d,%d,%d]", e, y, d, h), limit, LE, 0)

				var rec LinExpr
				rec.Add(a.soc(e, y, d, h), 1)
				rhs := 0.0
				if a.ts.FirstHour(h) {
					rhs = initial
				} else {
					rec.Add(a.soc(e, y, d, a.ts.PrevHour(h)), -decay)
				}
				for _, f := range inputs {
					eff, err := a.data.Efficiency(e, f, In, y)
					if err != nil {
						return err
					}
					rec.Add(a.flowIn(f, e, y, d, h), -a.ts.HourWeight*eff)
				}
				for _, f := range outputs {
					eff, err := a.data.Efficiency(e, f, Out, y)
					if err != nil {
						return err
					}
					rec.Add(a.flowOut(f, e, y, d, h), a.ts.HourWeight/eff)
				}
				a.add(fmt.Sprintf("sto_soc_flow[%s,%d,%d,%d]", e, y, d, h), rec, EQ, rhs)
			}

			a.prob.MustVar(VarKey{Kind: VarSOC, Entity: e, Year: y, Day: d, Hour: h0}).Fix(initial)

			var cyc LinExpr
			cyc.Add(a.soc(e, y, d, h0), 1)
			cyc.Add(a.soc(e, y, d, hLast), -1)
			a.add(fmt.Sprintf("sto_cyclic[%s,%d,%d]", e, y, d), cyc, EQ, 0)
		}
	}
	return nil
}

// initialSOC returns the constant first-hour state of charge,
// initialSOCRatio·cRate·hourlyCapToAct·baseYearCapacity. Zero when the
// ratio or the base-year capacity is undefined.
func initialSOC(a *Assembler, e string, cRate float64) (float64, error) {
	ratio, ok, err := a.data.GetConst(e, ParamInitialSOC)
	if err != nil || !ok {
		return 0, err
	}
	cap0, ok, err := a.data.Get(e, ParamActualCapacity, a.ts.BaseYear())
	if err != nil || !ok {
		if err == nil {
			log.WithFields(log.Fields{"entity": e}).Debug("initial SoC requested without base-year capacity")
		}
		return 0, err
	}
	c2a, _, err := a.HourlyCapToAct(e, a.ts.BaseYear())
	if err != nil {
		return 0, err
	}
	return ratio * cRate * c2a * cap0, nil
}
