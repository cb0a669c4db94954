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
	"errors"
	"testing"
)

func TestConstraintSkip(t *testing.T) {
	// An undefined governing parameter omits the family entirely, an
	// error would reject the configuration. Ramping is undefined in
	// the base system.
	top, data, ts := testSystem()
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := countFamily(p, "act_ramp_up"); got != 0 {
		t.Errorf("act_ramp_up rows without ramp_rate = %d, want 0", got)
	}
	if got := countFamily(p, "cap_max_annual"); got != 0 {
		t.Errorf("cap_max_annual rows without max_capacity_annual = %d, want 0", got)
	}

	data.Set("pp_gas", ParamRampRate, Constant(0.0001))
	data.Set("pp_gas", ParamMaxCapacityAnnual, Constant(100))
	p, err = Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	// Two hours per day, ramping skips the first one.
	if got := countFamily(p, "act_ramp_up"); got != 1 {
		t.Errorf("act_ramp_up rows = %d, want 1", got)
	}
	if got := countFamily(p, "cap_max_annual"); got != 1 {
		t.Errorf("cap_max_annual rows = %d, want 1", got)
	}
}

func TestRampSkipWhenVacuous(t *testing.T) {
	// A ramp rate that frees the full capacity within one time slice
	// constrains nothing and is omitted.
	top, data, ts := testSystem()
	data.Set("pp_gas", ParamRampRate, Constant(1))
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := countFamily(p, "act_ramp_up"); got != 0 {
		t.Errorf("vacuous ramp emitted %d rows", got)
	}
}

func TestStrictModeFails(t *testing.T) {
	top, data, ts := testSystem()
	data.SetMode(ParamMaxCapacityAnnual, Strict)
	_, err := Compose(top, data, ts, ComposeOptions{})
	var se *StrictLookupError
	if !errors.As(err, &se) {
		t.Fatalf("want StrictLookupError, got %v", err)
	}
	if se.Param != ParamMaxCapacityAnnual {
		t.Errorf("failing parameter = %s", se.Param)
	}
}

func TestFlowCouplings(t *testing.T) {
	top, data, ts := testSystem()
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	// The plant has both couplings, the source only the output one,
	// the demand only the input one.
	if got := countFamily(p, "flow_in"); got != 2*2 {
		t.Errorf("flow_in rows = %d, want 4", got)
	}
	if got := countFamily(p, "flow_out"); got != 2*2 {
		t.Errorf("flow_out rows = %d, want 4", got)
	}
}

func TestOutputShareConstraint(t *testing.T) {
	// Two plants feeding the same bus, one limited to 40% of it.
	flows := []*Flow{{ID: "elecsupply"}}
	entities := []*Entity{
		{ID: "pp_a", EnableYear: 2020},
		{ID: "pp_b", EnableYear: 2020},
	}
	edges := []EdgeDecl{
		{Flow: "elecsupply", Entity: "pp_a", Direction: Out},
		{Flow: "elecsupply", Entity: "pp_b", Direction: Out},
	}
	top, err := NewTopology(flows, entities, edges)
	if err != nil {
		t.Fatal(err)
	}
	data := NewParamStore()
	data.SetFxE("pp_a", ParamFlowOutShareMax, "elecsupply", Constant(0.4))
	ts, err := NewTimeSlices([]int{2020}, 1, []int{0}, []float64{365}, 1)
	if err != nil {
		t.Fatal(err)
	}
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := countFamily(p, "flow_out_share_max"); got != 1 {
		t.Fatalf("flow_out_share_max rows = %d, want 1", got)
	}
	var row *Constraint
	for _, c := range p.Constraints {
		if c.Name == "flow_out_share_max[elecsupply,pp_a,2020,0,0]" {
			row = c
		}
	}
	if row == nil {
		t.Fatal("share row not found by name")
	}
	if row.Sense != LE || row.RHS != 0 {
		t.Errorf("share row is %v %g", row.Sense, row.RHS)
	}
	// Coefficients: (1-share) on the edge itself, -share on the
	// sibling.
	terms := row.Expr.Terms()
	if len(terms) != 2 {
		t.Fatalf("share row has %d terms", len(terms))
	}
	for _, term := range terms {
		switch term.Var.Key.Entity {
		case "pp_a":
			if different(term.Coef, 0.6) {
				t.Errorf("own coefficient = %g, want 0.6", term.Coef)
			}
		case "pp_b":
			if different(term.Coef, -0.4) {
				t.Errorf("sibling coefficient = %g, want -0.4", term.Coef)
			}
		}
	}
}
