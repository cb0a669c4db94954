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

// DefaultSupplyFlow is the bus the electricity adequacy constraints
// watch unless the module is configured otherwise.
const DefaultSupplyFlow = "elecsupply"

// ElectricityModule handles generators feeding the electricity supply
// bus. Dispatchable plants get the generic converter treatment;
// variable renewables replace the constant hourly capacity-factor
// ceiling with a resource time series. System-wide, firm capacity must
// cover the peak demand with a margin and must-run output may not
// exceed the base demand.
type ElectricityModule struct {
	// SupplyFlow is the electricity bus. Entities with an output edge
	// to it belong to this module.
	SupplyFlow string
}

// Name implements Module.
func (*ElectricityModule) Name() string { return "electricity" }

func (m *ElectricityModule) flow() string {
	if m.SupplyFlow == "" {
		return DefaultSupplyFlow
	}
	return m.SupplyFlow
}

// Applies implements Module.
func (m *ElectricityModule) Applies(a *Assembler, e *Entity) bool {
	for _, f := range a.top.Outputs(e.ID) {
		if f == m.flow() {
			return true
		}
	}
	return false
}

// AssembleEntity implements Module.
func (m *ElectricityModule) AssembleEntity(a *Assembler, e *Entity) error {
	if err := a.flowInCoupling(e.ID); err != nil {
		return err
	}
	if err := a.flowOutCoupling(e.ID); err != nil {
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
	if err := a.actRamp(e.ID); err != nil {
		return err
	}
	if err := a.actMaxAnnual(e.ID); err != nil {
		return err
	}
	if e.Caps.Has(IsVRE) {
		if err := vreHourlyProfile(a, e.ID); err != nil {
			return err
		}
	} else {
		if err := a.actCFHour(e.ID, ParamLFMax, "act_cf_max_hour", LE); err != nil {
			return err
		}
	}
	if err := a.actCFHour(e.ID, ParamLFMin, "act_cf_min_hour", GE); err != nil {
		return err
	}
	if err := a.actCFAnnual(e.ID, ParamLFMax, "act_cf_max_annual", LE); err != nil {
		return err
	}
	return a.actCFAnnual(e.ID, ParamLFMin, "act_cf_min_annual", GE)
}

// Cost implements Module with the generic combined cost.
func (*ElectricityModule) Cost(a *Assembler, e *Entity) (LinExpr, error) {
	return a.CostCombined(e.ID)
}

// vreHourlyProfile caps hourly activity by the resource availability
// series, positionally indexed over the (day, hour) grid and wrapping
// when the series is shorter (a 24-value profile serves every day).
// Falls back to the constant lf_max ceiling when no series exists.
func vreHourlyProfile(a *Assembler, e string) error {
	if !a.top.Entity(e).Caps.Has(HasCapacity) {
		return nil
	}
	nh := len(a.ts.Hours)
	for _, y := range a.ts.Years {
		c2a, _, err := a.HourlyCapToAct(e, y)
		if err != nil {
			return err
		}
		_, hasSeries, err := a.data.GetHourly(e, ParamLFMaxSeries, y, 0)
		if err != nil {
			return err
		}
		constLF, hasConst := 0.0, false
		if !hasSeries {
			a.skipped("act_cf_profile", e, log.Fields{"year": y})
			constLF, hasConst, err = a.data.Get(e, ParamLFMax, y)
			if err != nil {
				return err
			}
			if !hasConst {
				a.skipped("act_cf_max_hour", e, log.Fields{"year": y})
				continue
			}
		}
		for di, d := range a.ts.Days {
			for hi, h := range a.ts.Hours {
				lf := constLF
				family := "act_cf_max_hour"
				if hasSeries {
					lf, _, err = a.data.GetHourly(e, ParamLFMaxSeries, y, di*nh+hi)
					if err != nil {
						return err
					}
					family = "act_cf_profile"
				}
				var expr LinExpr
				expr.Add(a.activity(e, y, d, h), 1)
				expr.Add(a.capTot(e, y), -lf*c2a)
				a.add(fmt.Sprintf("%s[%s,%d,%d,%d]", family, e, y, d, h), expr, LE, 0)
			}
		}
	}
	return nil
}

// AssembleSystem implements SystemModule with the yearly peak and base
// adequacy constraints over every capacity-bearing supplier of the
// bus. Both families key their parameters by the flow ID and are
// skipped when undefined.
func (m *ElectricityModule) AssembleSystem(a *Assembler) error {
	f := m.flow()
	suppliers := a.top.OutflowEntities(f)
	if len(suppliers) == 0 {
		return nil
	}
	for _, y := range a.ts.Years {
		if err := m.peakAdequacy(a, f, suppliers, y); err != nil {
			return err
		}
		if err := m.baseAdequacy(a, f, suppliers, y); err != nil {
			return err
		}
	}
	return nil
}

// peakAdequacy requires Σ ctot·eff·peakRatio ≥ (1+margin)·peakDemand
// over non-trade firm capacity.
func (*ElectricityModule) peakAdequacy(a *Assembler, f string, suppliers []string, y int) error {
	margin, okM, err := a.data.Get(f, ParamPeakMargin, y)
	if err != nil {
		return err
	}
	demand, okD, err := a.data.Get(f, ParamPeakDemand, y)
	if err != nil {
		return err
	}
	if !okM || !okD {
		log.WithFields(log.Fields{"family": "elec_peak_adequacy", "flow": f, "year": y}).
			Debug("constraint skipped: governing parameter undefined")
		return nil
	}
	var firm LinExpr
	for _, id := range suppliers {
		e := a.top.Entity(id)
		if !e.Caps.Has(HasCapacity) || e.Caps.Has(IsTrade) {
			continue
		}
		eff, err := a.data.Efficiency(id, f, Out, y)
		if err != nil {
			return err
		}
		ratio, ok, err := a.data.Get(id, ParamPeakRatio, y)
		if err != nil {
			return err
		}
		if !ok {
			ratio = 1
		}
		firm.Add(a.capTot(id, y), eff*ratio)
	}
	if firm.Empty() {
		return nil
	}
	a.add(fmt.Sprintf("elec_peak_adequacy[%s,%d]", f, y), firm, GE, (1+margin)*demand)
	return nil
}

// baseAdequacy keeps must-run output below the base demand:
// Σ ctot·eff·lfMin over non-trade capacity, minus the export headroom
// of trade capacity, ≤ baseDemand.
func (*ElectricityModule) baseAdequacy(a *Assembler, f string, suppliers []string, y int) error {
	demand, ok, err := a.data.Get(f, ParamBaseDemand, y)
	if err != nil {
		return err
	}
	if !ok {
		log.WithFields(log.Fields{"family": "elec_base_adequacy", "flow": f, "year": y}).
			Debug("constraint skipped: governing parameter undefined")
		return nil
	}
	var mustRun LinExpr
	for _, id := range suppliers {
		e := a.top.Entity(id)
		if !e.Caps.Has(HasCapacity) {
			continue
		}
		if e.Caps.Has(IsTrade) {
			if !e.Caps.Has(AllowExport) {
				continue
			}
			eff, err := a.data.Efficiency(id, f, In, y)
			if err != nil {
				return err
			}
			mustRun.Add(a.capTot(id, y), -eff)
			continue
		}
		lfMin, ok, err := a.data.Get(id, ParamLFMin, y)
		if err != nil {
			return err
		}
		if !ok || lfMin == 0 {
			continue
		}
		eff, err := a.data.Efficiency(id, f, Out, y)
		if err != nil {
			return err
		}
		mustRun.Add(a.capTot(id, y), eff*lfMin)
	}
	if mustRun.Empty() {
		return nil
	}
	a.add(fmt.Sprintf("elec_base_adequacy[%s,%d]", f, y), mustRun, LE, demand)
	return nil
}
