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

import "testing"

func passengerSystem() (*Topology, *ParamStore, *TimeSlices) {
	flows := []*Flow{{ID: "passkm"}}
	entities := []*Entity{
		{ID: "tra_car", Caps: IsPassenger, EnableYear: 2020},
		{ID: "tra_rail", Caps: IsPassenger, EnableYear: 2020},
		{ID: "dem_pass", Caps: IsDemand, EnableYear: 2020},
	}
	edges := []EdgeDecl{
		{Flow: "passkm", Entity: "tra_car", Direction: Out},
		{Flow: "passkm", Entity: "tra_rail", Direction: Out},
		{Flow: "passkm", Entity: "dem_pass", Direction: In},
	}
	top, err := NewTopology(flows, entities, edges)
	if err != nil {
		panic(err)
	}
	data := NewParamStore()
	data.Set("tra_car", ParamSpeed, Constant(40))
	data.Set("tra_rail", ParamSpeed, Constant(80))
	data.Set(CountryID, ParamPopulation, Constant(1e6))
	data.Set(CountryID, ParamDailyTravelTime, Constant(1.2))
	data.Set("dem_pass", ParamActualDemand, Constant(1e4*365))
	ts, err := NewTimeSlices([]int{2020}, 1, []int{0}, []float64{365}, 1)
	if err != nil {
		panic(err)
	}
	return top, data, ts
}

func TestTravelTimeBudget(t *testing.T) {
	top, data, ts := passengerSystem()
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	var row *Constraint
	for _, c := range p.Constraints {
		if c.Name == "tra_travel_time_budget[2020]" {
			row = c
		}
	}
	if row == nil {
		t.Fatal("travel-time budget missing")
	}
	if row.Sense != LE || different(row.RHS, 1e6*1.2*365) {
		t.Errorf("budget is %v %g, want <= %g", row.Sense, row.RHS, 1e6*1.2*365)
	}
	// Each mode's annualized outflow divided by its speed.
	for _, term := range row.Expr.Terms() {
		switch term.Var.Key.Entity {
		case "tra_car":
			if different(term.Coef, 365.0/40) {
				t.Errorf("car coefficient = %g, want %g", term.Coef, 365.0/40)
			}
		case "tra_rail":
			if different(term.Coef, 365.0/80) {
				t.Errorf("rail coefficient = %g, want %g", term.Coef, 365.0/80)
			}
		}
	}
}

func TestTravelTimeBudgetEdgeSpeed(t *testing.T) {
	top, data, ts := passengerSystem()
	// The per-edge speed takes precedence over the entity-level one.
	data.SetFxE("tra_car", ParamSpeed, "passkm", Constant(60))
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range p.Constraints {
		if c.Name != "tra_travel_time_budget[2020]" {
			continue
		}
		for _, term := range c.Expr.Terms() {
			if term.Var.Key.Entity == "tra_car" && different(term.Coef, 365.0/60) {
				t.Errorf("car coefficient = %g, want %g", term.Coef, 365.0/60)
			}
		}
	}
}

func TestTravelTimeBudgetSkipped(t *testing.T) {
	top, data, ts := passengerSystem()
	data.Set(CountryID, ParamPopulation, Series{})
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := countFamily(p, "tra_travel_time_budget"); got != 0 {
		t.Errorf("budget emitted without population: %d rows", got)
	}
}
