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

// Generic constraint library. Every family carries an explicit skip
// condition: when its governing parameter is undefined the instance is
// omitted from the assembled problem, and the omission is logged so a
// designed skip can be told apart from a missing declaration. Only the
// flow balance has no skip condition.

// skip records a designed constraint omission.
func (a *Assembler) skipped(family, entity string, fields log.Fields) {
	if fields == nil {
		fields = log.Fields{}
	}
	fields["family"] = family
	fields["entity"] = entity
	log.WithFields(fields).Debug("constraint skipped: governing parameter undefined")
}

func (a *Assembler) add(name string, expr LinExpr, sense Sense, rhs float64) {
	a.cons = append(a.cons, &Constraint{Name: name, Expr: expr, Sense: sense, RHS: rhs})
}

// flowBalance emits, for one flow at every (year, day, hour), the exact
// equality of outflows into the bus and inflows drawn from it.
func (a *Assembler) flowBalance(f string) {
	for _, y := range a.ts.Years {
		for _, d := range a.ts.Days {
			for _, h := range a.ts.Hours {
				var expr LinExpr
				for _, e := range a.top.OutflowEntities(f) {
					expr.Add(a.flowOut(f, e, y, d, h), 1)
				}
				for _, e := range a.top.InflowEntities(f) {
					expr.Add(a.flowIn(f, e, y, d, h), -1)
				}
				a.add(fmt.Sprintf("io_balance[%s,%d,%d,%d]", f, y, d, h), expr, EQ, 0)
			}
		}
	}
}

// flowInCoupling balances an entity's activity against the
// efficiency-weighted sum of its inputs.
func (a *Assembler) flowInCoupling(e string) error {
	inputs := a.top.Inputs(e)
	if len(inputs) == 0 {
		return nil
	}
	for _, y := range a.ts.Years {
		for _, d := range a.ts.Days {
			for _, h := range a.ts.Hours {
				var expr LinExpr
				for _, f := range inputs {
					eff, err := a.data.Efficiency(e, f, In, y)
					if err != nil {
						return err
					}
					expr.Add(a.flowIn(f, e, y, d, h), eff)
				}
				expr.Add(a.activity(e, y, d, h), -1)
				a.add(fmt.Sprintf("flow_in[%s,%d,%d,%d]", e, y, d, h), expr, EQ, 0)
			}
		}
	}
	return nil
}

// flowOutCoupling balances an entity's activity against the
// efficiency-weighted sum of its outputs.
func (a *Assembler) flowOutCoupling(e string) error {
	outputs := a.top.Outputs(e)
	if len(outputs) == 0 {
		return nil
	}
	for _, y := range a.ts.Years {
		for _, d := range a.ts.Days {
			for _, h := range a.ts.Hours {
				var expr LinExpr
				for _, f := range outputs {
					eff, err := a.data.Efficiency(e, f, Out, y)
					if err != nil {
						return err
					}
					expr.Add(a.flowOut(f, e, y, d, h), 1/eff)
				}
				expr.Add(a.activity(e, y, d, h), -1)
				a.add(fmt.Sprintf("flow_out[%s,%d,%d,%d]", e, y, d, h), expr, EQ, 0)
			}
		}
	}
	return nil
}

type shareSpec struct {
	family string
	param  string
	sense  Sense
}

var flowInShares = []shareSpec{
	{"flow_in_share_equal", ParamFlowInShareEq, EQ},
	{"flow_in_share_max", ParamFlowInShareMax, LE},
	{"flow_in_share_min", ParamFlowInShareMin, GE},
}

var flowOutShares = []shareSpec{
	{"flow_out_share_equal", ParamFlowOutShareEq, EQ},
	{"flow_out_share_max", ParamFlowOutShareMax, LE},
	{"flow_out_share_min", ParamFlowOutShareMin, GE},
}

var inputShares = []shareSpec{
	{"input_share_equal", ParamInputShareEq, EQ},
	{"input_share_max", ParamInputShareMax, LE},
	{"input_share_min", ParamInputShareMin, GE},
}

var outputShares = []shareSpec{
	{"output_share_equal", ParamOutputShareEq, EQ},
	{"output_share_max", ParamOutputShareMax, LE},
	{"output_share_min", ParamOutputShareMin, GE},
}

// flowShareConstraints bounds each of an entity's edges as a fraction
// of the total traffic on the edge's flow bus (sibling edges of the
// same flow), for every share parameter the edge defines.
func (a *Assembler) flowShareConstraints(e string) error {
	emit := func(f string, specs []shareSpec, siblings []string, at func(f, e string, y, d, h int) *Var) error {
		for _, spec := range specs {
			for _, y := range a.ts.Years {
				share, ok, err := a.data.GetFxE(e, spec.param, f, y)
				if err != nil {
					return err
				}
				if !ok {
					a.skipped(spec.family, e, log.Fields{"flow": f, "year": y})
					continue
				}
				for _, d := range a.ts.Days {
					for _, h := range a.ts.Hours {
						var expr LinExpr
						expr.Add(at(f, e, y, d, h), 1)
						for _, sib := range siblings {
							expr.Add(at(f, sib, y, d, h), -share)
						}
						a.add(fmt.Sprintf("%s[%s,%s,%d,%d,%d]", spec.family, f, e, y, d, h), expr, spec.sense, 0)
					}
				}
			}
		}
		return nil
	}
	for _, f := range a.top.Inputs(e) {
		if err := emit(f, flowInShares, a.top.InflowEntities(f), a.flowIn); err != nil {
			return err
		}
	}
	for _, f := range a.top.Outputs(e) {
		if err := emit(f, flowOutShares, a.top.OutflowEntities(f), a.flowOut); err != nil {
			return err
		}
	}
	return nil
}

// ioShareConstraints bounds each of an entity's edges as a fraction of
// the entity's own total input (or output) across all of its edges.
func (a *Assembler) ioShareConstraints(e string) error {
	emit := func(flows []string, specs []shareSpec, at func(f, e string, y, d, h int) *Var) error {
		for _, f := range flows {
			for _, spec := range specs {
				for _, y := range a.ts.Years {
					share, ok, err := a.data.GetFxE(e, spec.param, f, y)
					if err != nil {
						return err
					}
					if !ok {
						a.skipped(spec.family, e, log.Fields{"flow": f, "year": y})
						continue
					}
					for _, d := range a.ts.Days {
						for _, h := range a.ts.Hours {
							var expr LinExpr
							expr.Add(at(f, e, y, d, h), 1)
							for _, sib := range flows {
								expr.Add(at(sib, e, y, d, h), -share)
							}
							a.add(fmt.Sprintf("%s[%s,%s,%d,%d,%d]", spec.family, f, e, y, d, h), expr, spec.sense, 0)
						}
					}
				}
			}
		}
		return nil
	}
	if err := emit(a.top.Inputs(e), inputShares, a.flowIn); err != nil {
		return err
	}
	return emit(a.top.Outputs(e), outputShares, a.flowOut)
}

// capMaxAnnual caps total installed capacity per year.
func (a *Assembler) capMaxAnnual(e string) error {
	if !a.top.Entity(e).Caps.Has(HasCapacity) {
		return nil
	}
	for _, y := range a.ts.Years {
		max, ok, err := a.data.Get(e, ParamMaxCapacityAnnual, y)
		if err != nil {
			return err
		}
		if !ok {
			a.skipped("cap_max_annual", e, log.Fields{"year": y})
			continue
		}
		var expr LinExpr
		expr.Add(a.capTot(e, y), 1)
		a.add(fmt.Sprintf("cap_max_annual[%s,%d]", e, y), expr, LE, max)
	}
	return nil
}

// capMaxNew caps new builds per year: cnew ≤ yearLength·buildrate.
func (a *Assembler) capMaxNew(e string) error {
	if !a.top.Entity(e).Caps.Has(HasCapacity) {
		return nil
	}
	for _, y := range a.ts.Years {
		rate, ok, err := a.data.Get(e, ParamBuildRate, y)
		if err != nil {
			return err
		}
		if !ok {
			a.skipped("cap_max_new", e, log.Fields{"year": y})
			continue
		}
		var expr LinExpr
		expr.Add(a.capNew(e, y), 1)
		a.add(fmt.Sprintf("cap_max_new[%s,%d]", e, y), expr, LE, float64(a.ts.YearLen)*rate)
	}
	return nil
}

// capBuildRate limits total-capacity growth between consecutive
// modeled years: ctot(y) ≤ growthRate^yearLength · ctot(y−yearLength).
func (a *Assembler) capBuildRate(e string) error {
	if !a.top.Entity(e).Caps.Has(HasCapacity) {
		return nil
	}
	for _, y := range a.ts.Years {
		if y == a.ts.BaseYear() {
			continue
		}
		rate, ok, err := a.data.Get(e, ParamGrowthRate, y)
		if err != nil {
			return err
		}
		if !ok {
			a.skipped("cap_build_rate", e, log.Fields{"year": y})
			continue
		}
		growth := pow(rate, a.ts.YearLen)
		var expr LinExpr
		expr.Add(a.capTot(e, y), 1)
		expr.Add(a.capTot(e, y-a.ts.YearLen), -growth)
		a.add(fmt.Sprintf("cap_build_rate[%s,%d]", e, y), expr, LE, 0)
	}
	return nil
}

func pow(base float64, n int) float64 {
	out := 1.0
	for i := 0; i < n; i++ {
		out *= base
	}
	return out
}

// actRamp bounds the hour-to-hour activity delta by
// rampRate·hourlyCapToAct·ctot. Ramping is never enforced across a day
// boundary: representative days are mutually disconnected. The family
// is skipped entirely when rampRate·hourWeight ≥ 1 or undefined.
func (a *Assembler) actRamp(e string) error {
	if !a.top.Entity(e).Caps.Has(HasCapacity) {
		return nil
	}
	for _, y := range a.ts.Years {
		rate, ok, err := a.data.Get(e, ParamRampRate, y)
		if err != nil {
			return err
		}
		hourlyRate := rate * a.ts.HourWeight
		if !ok || hourlyRate >= 1 {
			a.skipped("act_ramp", e, log.Fields{"year": y})
			continue
		}
		c2a, _, err := a.HourlyCapToAct(e, y)
		if err != nil {
			return err
		}
		for _, d := range a.ts.Days {
			for _, h := range a.ts.Hours {
				if a.ts.FirstHour(h) {
					continue
				}
				prev := a.ts.PrevHour(h)
				var up LinExpr
				up.Add(a.activity(e, y, d, h), 1)
				up.Add(a.activity(e, y, d, prev), -1)
				up.Add(a.capTot(e, y), -hourlyRate*c2a)
				a.add(fmt.Sprintf("act_ramp_up[%s,%d,%d,%d]", e, y, d, h), up, LE, 0)

				var down LinExpr
				down.Add(a.activity(e, y, d, prev), 1)
				down.Add(a.activity(e, y, d, h), -1)
				down.Add(a.capTot(e, y), -hourlyRate*c2a)
				a.add(fmt.Sprintf("act_ramp_down[%s,%d,%d,%d]", e, y, d, h), down, LE, 0)
			}
		}
	}
	return nil
}

// actMaxAnnual caps total annual activity.
func (a *Assembler) actMaxAnnual(e string) error {
	max, ok, err := a.data.GetConst(e, ParamMaxActivityAnnual)
	if err != nil {
		return err
	}
	if !ok {
		a.skipped("act_max_annual", e, nil)
		return nil
	}
	for _, y := range a.ts.Years {
		expr := a.TotalAnnualActivity(e, y)
		a.add(fmt.Sprintf("act_max_annual[%s,%d]", e, y), expr, LE, max)
	}
	return nil
}

// actCFHour bounds hourly activity by a capacity factor:
// a ≤/≥ lf·hourlyCapToAct·ctot.
func (a *Assembler) actCFHour(e string, param, family string, sense Sense) error {
	if !a.top.Entity(e).Caps.Has(HasCapacity) {
		return nil
	}
	for _, y := range a.ts.Years {
		lf, ok, err := a.data.Get(e, param, y)
		if err != nil {
			return err
		}
		if !ok {
			a.skipped(family, e, log.Fields{"year": y})
			continue
		}
		c2a, _, err := a.HourlyCapToAct(e, y)
		if err != nil {
			return err
		}
		for _, d := range a.ts.Days {
			for _, h := range a.ts.Hours {
				var expr LinExpr
				expr.Add(a.activity(e, y, d, h), 1)
				expr.Add(a.capTot(e, y), -lf*c2a)
				a.add(fmt.Sprintf("%s[%s,%d,%d,%d]", family, e, y, d, h), expr, sense, 0)
			}
		}
	}
	return nil
}

// actCFAnnual is the annual analogue of actCFHour:
// TotalAnnualActivity ≤/≥ lf·capacityToActivity·ctot.
func (a *Assembler) actCFAnnual(e string, param, family string, sense Sense) error {
	if !a.top.Entity(e).Caps.Has(HasCapacity) {
		return nil
	}
	for _, y := range a.ts.Years {
		lf, ok, err := a.data.Get(e, param, y)
		if err != nil {
			return err
		}
		if !ok {
			a.skipped(family, e, log.Fields{"year": y})
			continue
		}
		c2a, ok, err := a.data.Get(e, ParamCapToAct, y)
		if err != nil {
			return err
		}
		if !ok {
			c2a = 1
		}
		expr := a.TotalAnnualActivity(e, y)
		expr.Add(a.capTot(e, y), -lf*c2a)
		a.add(fmt.Sprintf("%s[%s,%d]", family, e, y), expr, sense, 0)
	}
	return nil
}

// genericActivityConstraints bundles the activity families shared by
// converter-style entities.
func (a *Assembler) genericActivityConstraints(e string) error {
	if err := a.actRamp(e); err != nil {
		return err
	}
	if err := a.actMaxAnnual(e); err != nil {
		return err
	}
	if err := a.actCFHour(e, ParamLFMax, "act_cf_max_hour", LE); err != nil {
		return err
	}
	if err := a.actCFHour(e, ParamLFMin, "act_cf_min_hour", GE); err != nil {
		return err
	}
	if err := a.actCFAnnual(e, ParamLFMax, "act_cf_max_annual", LE); err != nil {
		return err
	}
	return a.actCFAnnual(e, ParamLFMin, "act_cf_min_annual", GE)
}

// genericCapacityConstraints bundles the capacity families.
func (a *Assembler) genericCapacityConstraints(e string) error {
	if err := a.capMaxAnnual(e); err != nil {
		return err
	}
	if err := a.capTransfer(e); err != nil {
		return err
	}
	if err := a.capRetirementAccounting(e); err != nil {
		return err
	}
	if err := a.capMaxNew(e); err != nil {
		return err
	}
	return a.capBuildRate(e)
}
