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
	"strings"
	"testing"
)

// testSystem is a small gas-to-power system: a gas source, a gas-fired
// plant with a capacity lifecycle, and a fixed electricity demand of
// 50 per hour.
func testSystem() (*Topology, *ParamStore, *TimeSlices) {
	flows := []*Flow{{ID: "gassupply"}, {ID: "elecsupply"}}
	entities := []*Entity{
		{ID: "sup_gas", EnableYear: 2020},
		{ID: "pp_gas", Caps: HasCapacity, EnableYear: 2020},
		{ID: "dem_elec", Caps: IsDemand, EnableYear: 2020},
	}
	edges := []EdgeDecl{
		{Flow: "gassupply", Entity: "sup_gas", Direction: Out},
		{Flow: "gassupply", Entity: "pp_gas", Direction: In},
		{Flow: "elecsupply", Entity: "pp_gas", Direction: Out},
		{Flow: "elecsupply", Entity: "dem_elec", Direction: In},
	}
	top, err := NewTopology(flows, entities, edges)
	if err != nil {
		panic(err)
	}

	data := NewParamStore()
	data.SetFxE("pp_gas", ParamOutputEfficiency, "elecsupply", Constant(0.9))
	data.Set("pp_gas", ParamCapToAct, Constant(HoursPerYear))
	data.Set("pp_gas", ParamLFMax, Constant(1))
	data.Set("pp_gas", ParamCostInvestment, Constant(100))
	data.Set("sup_gas", ParamCostVariableOM, Constant(1))
	// 2 slices weighted by 365 days cover 730 hours, so this pins the
	// demand activity at 50 per hour.
	data.Set("dem_elec", ParamActualDemand, Constant(50*730))

	ts, err := NewTimeSlices([]int{2020}, 1, []int{0, 1}, []float64{365}, 1)
	if err != nil {
		panic(err)
	}
	return top, data, ts
}

// countFamily counts the assembled rows of one constraint family.
func countFamily(p *Problem, family string) int {
	n := 0
	for _, c := range p.Constraints {
		if strings.HasPrefix(c.Name, family+"[") {
			n++
		}
	}
	return n
}

func TestComposeDeterminism(t *testing.T) {
	top, data, ts := testSystem()
	first, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	// Composition runs entity assembly concurrently; the emitted
	// problem must still be identical between runs.
	for i := 0; i < 5; i++ {
		p, err := Compose(top, data, ts, ComposeOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if p.Fingerprint() != first.Fingerprint() {
			t.Fatalf("composition %d produced a different problem", i)
		}
	}
}

func TestComposeStructure(t *testing.T) {
	top, data, ts := testSystem()
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}

	// One balance row per flow and time slice.
	if got := countFamily(p, "io_balance"); got != 2*2 {
		t.Errorf("io_balance rows = %d, want 4", got)
	}
	// The plant has a capacity ceiling per hour from lf_max.
	if got := countFamily(p, "act_cf_max_hour"); got != 2 {
		t.Errorf("act_cf_max_hour rows = %d, want 2", got)
	}
	// No storage or trade variables exist for this system.
	for _, v := range p.Vars {
		switch v.Key.Kind {
		case VarSOC, VarImport, VarExport:
			t.Fatalf("unexpected variable %v", v.Key)
		}
	}
	// Only the plant carries the capacity triple.
	for _, v := range p.Vars {
		switch v.Key.Kind {
		case VarCapNew, VarCapRet, VarCapTot:
			if v.Key.Entity != "pp_gas" {
				t.Fatalf("capacity variable for %s", v.Key.Entity)
			}
		}
	}
}

func TestDemandPinned(t *testing.T) {
	top, data, ts := testSystem()
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range ts.Hours {
		v := p.MustVar(VarKey{Kind: VarActivity, Entity: "dem_elec", Year: 2020, Day: 0, Hour: h})
		if !v.Fixed() {
			t.Fatalf("demand activity at hour %d is not fixed", h)
		}
		if different(v.Lo, 50) {
			t.Errorf("demand at hour %d = %g, want 50", h, v.Lo)
		}
	}
}

func TestEnableYearGating(t *testing.T) {
	top, data, _ := testSystem()
	top.Entity("pp_gas").EnableYear = 2030
	ts, err := NewTimeSlices([]int{2020, 2030}, 1, []int{0, 1}, []float64{365}, 1)
	if err != nil {
		t.Fatal(err)
	}
	data.Set("dem_elec", ParamActualDemand, Constant(0))
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []VarKey{
		{Kind: VarCapTot, Entity: "pp_gas", Year: 2020},
		{Kind: VarCapNew, Entity: "pp_gas", Year: 2020},
		{Kind: VarActivity, Entity: "pp_gas", Year: 2020, Day: 0, Hour: 1},
		{Kind: VarFlowOut, Entity: "pp_gas", Flow: "elecsupply", Year: 2020, Day: 0, Hour: 0},
	} {
		v := p.MustVar(key)
		if !v.Fixed() || v.Lo != 0 {
			t.Errorf("%v not gated to zero before enable year", key)
		}
	}
	if v := p.MustVar(VarKey{Kind: VarCapTot, Entity: "pp_gas", Year: 2030}); v.Fixed() {
		t.Error("capacity at the enable year should be free")
	}
}

func TestPinBaseYear(t *testing.T) {
	top, data, ts := testSystem()
	data.Set("pp_gas", ParamActualCapacity, ByYear(map[int]float64{2020: 80}))
	p, err := Compose(top, data, ts, ComposeOptions{PinBaseYear: true})
	if err != nil {
		t.Fatal(err)
	}
	tot := p.MustVar(VarKey{Kind: VarCapTot, Entity: "pp_gas", Year: 2020})
	if !tot.Fixed() || different(tot.Lo, 80) {
		t.Errorf("base-year capacity = [%g, %g], want fixed 80", tot.Lo, tot.Hi)
	}
	cnew := p.MustVar(VarKey{Kind: VarCapNew, Entity: "pp_gas", Year: 2020})
	if !cnew.Fixed() || cnew.Lo != 0 {
		t.Error("base-year new capacity should be pinned to zero")
	}
}

func TestComposeObjective(t *testing.T) {
	top, data, ts := testSystem()
	p, err := Compose(top, data, ts, ComposeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	terms := p.Objective.Terms()
	if len(terms) == 0 {
		t.Fatal("objective is empty")
	}
	// Investment on the plant and variable OM on the source must both
	// appear.
	var hasInvest, hasVOM bool
	for _, term := range terms {
		switch {
		case term.Var.Key.Kind == VarCapNew && term.Var.Key.Entity == "pp_gas":
			hasInvest = true
		case term.Var.Key.Kind == VarActivity && term.Var.Key.Entity == "sup_gas":
			hasVOM = true
		}
	}
	if !hasInvest || !hasVOM {
		t.Errorf("objective misses cost terms: investment=%v, variable OM=%v", hasInvest, hasVOM)
	}
}
