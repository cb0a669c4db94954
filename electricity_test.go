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

func TestVREProfile(t *testing.T) {
	top, data, ts := testSystem()
	top.Entity("pp_gas").Caps |= IsVRE
	data.SetHourly("pp_gas", ParamLFMaxSeries, 2020, []float64{0.2, 0.8})
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := countFamily(p, "act_cf_profile"); got != 2 {
		t.Fatalf("act_cf_profile rows = %d, want 2", got)
	}
	// The constant ceiling is replaced, not doubled.
	if got := countFamily(p, "act_cf_max_hour"); got != 0 {
		t.Errorf("act_cf_max_hour rows = %d, want 0", got)
	}
	for _, c := range p.Constraints {
		if c.Name != "act_cf_profile[pp_gas,2020,0,1]" {
			continue
		}
		for _, term := range c.Expr.Terms() {
			if term.Var.Key.Kind == VarCapTot && different(term.Coef, -0.8) {
				t.Errorf("hour-1 capacity coefficient = %g, want -0.8", term.Coef)
			}
		}
	}
}

func TestVREProfileFallback(t *testing.T) {
	// Without a series the VRE entity falls back to the constant
	// ceiling.
	top, data, ts := testSystem()
	top.Entity("pp_gas").Caps |= IsVRE
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := countFamily(p, "act_cf_max_hour"); got != 2 {
		t.Errorf("fallback act_cf_max_hour rows = %d, want 2", got)
	}
}

func TestPeakAdequacy(t *testing.T) {
	top, data, ts := testSystem()
	data.Set("elecsupply", ParamPeakMargin, Constant(0.2))
	data.Set("elecsupply", ParamPeakDemand, Constant(60))
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	var row *Constraint
	for _, c := range p.Constraints {
		if c.Name == "elec_peak_adequacy[elecsupply,2020]" {
			row = c
		}
	}
	if row == nil {
		t.Fatal("peak adequacy row missing")
	}
	if row.Sense != GE || different(row.RHS, 1.2*60) {
		t.Errorf("peak adequacy is %v %g, want >= 72", row.Sense, row.RHS)
	}
	terms := row.Expr.Terms()
	if len(terms) != 1 {
		t.Fatalf("peak adequacy has %d terms, want 1", len(terms))
	}
	// ctot of the plant weighted by its output efficiency.
	if terms[0].Var.Key.Kind != VarCapTot || terms[0].Var.Key.Entity != "pp_gas" {
		t.Errorf("peak adequacy term is %v", terms[0].Var.Key)
	}
	if different(terms[0].Coef, 0.9) {
		t.Errorf("firm-capacity coefficient = %g, want 0.9", terms[0].Coef)
	}
}

func TestPeakAdequacySkipped(t *testing.T) {
	top, data, ts := testSystem()
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := countFamily(p, "elec_peak_adequacy"); got != 0 {
		t.Errorf("peak adequacy emitted without parameters: %d rows", got)
	}
}

func TestBaseAdequacy(t *testing.T) {
	top, data, ts := testSystem()
	data.Set("elecsupply", ParamBaseDemand, Constant(30))
	data.Set("pp_gas", ParamLFMin, Constant(0.4))
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	var row *Constraint
	for _, c := range p.Constraints {
		if c.Name == "elec_base_adequacy[elecsupply,2020]" {
			row = c
		}
	}
	if row == nil {
		t.Fatal("base adequacy row missing")
	}
	if row.Sense != LE || different(row.RHS, 30) {
		t.Errorf("base adequacy is %v %g, want <= 30", row.Sense, row.RHS)
	}
	terms := row.Expr.Terms()
	if len(terms) != 1 || different(terms[0].Coef, 0.4*0.9) {
		t.Errorf("must-run coefficient = %v", terms)
	}
}
