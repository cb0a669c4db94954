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

package restoreutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialmodel/restore"
)

const testScenario = `
Years = [2020]
RepresentativeDays = 1
Hours = [0, 1]
DayWeights = [365.0]
HourWeight = 1.0

[Country]
discount_factor = 0.05

[[Flows]]
ID = "gassupply"

[[Flows]]
ID = "elecsupply"

[[Entities]]
ID = "sup_gas"
Outputs = ["gassupply"]
[Entities.Params]
cost_variable_om = 1.0

[[Entities]]
ID = "pp_gas"
Capabilities = ["capacity"]
Inputs = ["gassupply"]
Outputs = ["elecsupply"]
[Entities.Params]
capacity_to_activity = 8760.0
lf_max = 1.0
[Entities.ParamsByYear.cost_investment]
2020 = 100.0
[Entities.FlowParams.output_efficiency]
elecsupply = 0.9

[[Entities]]
ID = "dem_elec"
Capabilities = ["demand"]
Inputs = ["elecsupply"]
[Entities.Params]
actual_demand = 36500.0
`

func writeScenario(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.toml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadScenario(t *testing.T) {
	sc, err := ReadScenario(writeScenario(t, testScenario))
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Flows) != 2 || len(sc.Entities) != 3 {
		t.Fatalf("scenario has %d flows, %d entities", len(sc.Flows), len(sc.Entities))
	}
	if sc.Entities[1].ParamsByYear["cost_investment"]["2020"] != 100 {
		t.Error("per-year parameter not decoded")
	}
	if sc.Country["discount_factor"] != 0.05 {
		t.Error("country parameter not decoded")
	}
}

func TestBuildAndSolveScenario(t *testing.T) {
	sc, err := ReadScenario(writeScenario(t, testScenario))
	if err != nil {
		t.Fatal(err)
	}
	m, err := BuildModel(sc)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Build(); err != nil {
		t.Fatal(err)
	}
	if err := m.Solve(&restore.SimplexSolver{}); err != nil {
		t.Fatal(err)
	}
	tot, err := m.Capacity("pp_gas", 2020)
	if err != nil {
		t.Fatal(err)
	}
	want := 50.0 / 0.9
	if diff := tot - want; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("capacity = %g, want %g", tot, want)
	}

	var buf bytes.Buffer
	if err := Report(&buf, m); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"entity", "pp_gas", "dem_elec", "2020"} {
		if !strings.Contains(out, want) {
			t.Errorf("report misses %q:\n%s", want, out)
		}
	}
}

func TestCheckCommand(t *testing.T) {
	path := writeScenario(t, testScenario)
	var buf bytes.Buffer
	Root.SetOut(&buf)
	Root.SetArgs([]string{"check", "-s", path})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "constraints") {
		t.Errorf("check output = %q", buf.String())
	}
}

func TestUnknownCapability(t *testing.T) {
	sc := &ScenarioConfig{
		Years:              []int{2020},
		RepresentativeDays: 1,
		Hours:              []int{0},
		DayWeights:         []float64{365},
		HourWeight:         1,
		Flows:              []FlowConfig{{ID: "elecsupply"}},
		Entities: []EntityConfig{{
			ID:           "e",
			Capabilities: []string{"turbo"},
			Outputs:      []string{"elecsupply"},
		}},
	}
	if _, err := BuildModel(sc); err == nil || !strings.Contains(err.Error(), "turbo") {
		t.Errorf("unknown capability accepted: %v", err)
	}
}

func TestDefaultEnableYear(t *testing.T) {
	sc := &ScenarioConfig{
		Years:              []int{2020, 2030},
		RepresentativeDays: 1,
		Hours:              []int{0},
		DayWeights:         []float64{365},
		HourWeight:         1,
		Flows:              []FlowConfig{{ID: "elecsupply"}},
		Entities: []EntityConfig{{
			ID:      "sup",
			Outputs: []string{"elecsupply"},
		}},
	}
	m, err := BuildModel(sc)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Topology.Entity("sup").EnableYear; got != 2020 {
		t.Errorf("default enable year = %d, want 2020", got)
	}
}
