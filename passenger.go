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

// PassengerModule handles passenger-transport converters. Per entity
// it behaves like the generic converter; across the whole passenger
// set it budgets the population's travel time: the person-kilometres
// delivered per year, divided by each mode's speed, may not exceed
// population · dailyTravelTime · 365.
type PassengerModule struct{}

// Name implements Module.
func (*PassengerModule) Name() string { return "passenger" }

// Applies implements Module.
func (*PassengerModule) Applies(_ *Assembler, e *Entity) bool { return e.Caps.Has(IsPassenger) }

// AssembleEntity implements Module.
func (*PassengerModule) AssembleEntity(a *Assembler, e *Entity) error {
	var g GenericModule
	return g.AssembleEntity(a, e)
}

// Cost implements Module with the generic combined cost.
func (*PassengerModule) Cost(a *Assembler, e *Entity) (LinExpr, error) {
	return a.CostCombined(e.ID)
}

// AssembleSystem implements SystemModule with the yearly travel-time
// budget over all passenger entities. The budget is skipped when the
// population or the daily travel time is undefined.
func (*PassengerModule) AssembleSystem(a *Assembler) error {
	modes := a.top.EntitiesWith(IsPassenger)
	if len(modes) == 0 {
		return nil
	}
	for _, y := range a.ts.Years {
		pop, okPop, err := a.data.Get(CountryID, ParamPopulation, y)
		if err != nil {
			return err
		}
		daily, okDaily, err := a.data.Get(CountryID, ParamDailyTravelTime, y)
		if err != nil {
			return err
		}
		if !okPop || !okDaily {
			log.WithFields(log.Fields{"family": "tra_travel_time_budget", "year": y}).
				Debug("constraint skipped: governing parameter undefined")
			continue
		}
		var budget LinExpr
		for _, id := range modes {
			// Speed may be declared per service edge, with the
			// entity-level value as the fallback.
			for _, f := range a.top.Outputs(id) {
				speed, ok, err := a.data.GetFxE(id, ParamSpeed, f, y)
				if err != nil {
					return err
				}
				if !ok {
					speed, ok, err = a.data.Get(id, ParamSpeed, y)
					if err != nil {
						return err
					}
				}
				if !ok || speed == 0 {
					a.skipped("tra_travel_time_budget", id, log.Fields{"flow": f, "year": y})
					continue
				}
				budget.AddExpr(a.TotalAnnualOutflow(f, id, y), 1/speed)
			}
		}
		if budget.Empty() {
			continue
		}
		a.add(fmt.Sprintf("tra_travel_time_budget[%d]", y), budget, LE, pop*daily*365)
	}
	return nil
}
