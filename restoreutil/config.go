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
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/unit"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/restore"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

// ScenarioConfig is the on-disk scenario description: temporal
// structure, system-wide parameters, the flow buses, and the entities
// with their edges and parameters. Parameter tables are free-form
// name/value maps; the model decides which names matter.
type ScenarioConfig struct {
	// Years are the modeled years, ascending and equally strided.
	Years []int
	// RepresentativeDays is the number of representative days per
	// year.
	RepresentativeDays int
	// Hours are the intra-day time slices, usually 0 through 23.
	Hours []int
	// DayWeights gives the number of real days each representative
	// day stands for; they should sum to 365.
	DayWeights []float64
	// HourWeight is the number of real hours per time slice.
	HourWeight float64

	PinBaseYear     bool
	PinBaseActivity bool

	// StrictParams lists parameter names whose absence is an error
	// instead of a constraint skip.
	StrictParams []string

	// Country holds system-wide parameters such as the discount
	// rate, population and daily travel time.
	Country map[string]float64
	// CountryByYear holds per-year overrides of Country, keyed
	// name → year → value.
	CountryByYear map[string]map[string]float64

	Flows    []FlowConfig
	Entities []EntityConfig
}

// FlowConfig declares one commodity bus. Params carry flow-keyed
// system parameters such as the electricity peak and base demand.
type FlowConfig struct {
	ID   string
	Unit string // "energy" (default) or "pkm"

	Params       map[string]float64
	ParamsByYear map[string]map[string]float64
}

// EntityConfig declares one entity, its capability tags, its edges and
// its parameters.
type EntityConfig struct {
	ID           string
	Capabilities []string
	EnableYear   int
	Inputs       []string
	Outputs      []string

	// Params holds year-independent entity parameters.
	Params map[string]float64
	// ParamsByYear holds per-year values, keyed name → year → value.
	// Year keys are strings because TOML table keys are.
	ParamsByYear map[string]map[string]float64
	// FlowParams holds per-edge parameters, keyed name → flow →
	// value (efficiencies, shares, ...).
	FlowParams map[string]map[string]float64
	// Hourly holds hour-indexed series, keyed name → year → values
	// (resource profiles, demand shapes).
	Hourly map[string]map[string][]float64
}

var capabilityNames = map[string]restore.Capability{
	"capacity":  restore.HasCapacity,
	"storage":   restore.HasStorage,
	"trade":     restore.IsTrade,
	"vre":       restore.IsVRE,
	"passenger": restore.IsPassenger,
	"demand":    restore.IsDemand,
	"import":    restore.AllowImport,
	"export":    restore.AllowExport,
}

func parseCapabilities(names []string) (restore.Capability, error) {
	var caps restore.Capability
	for _, n := range names {
		c, ok := capabilityNames[n]
		if !ok {
			known := make([]string, 0, len(capabilityNames))
			for k := range capabilityNames {
				known = append(known, k)
			}
			sort.Strings(known)
			return 0, fmt.Errorf("restoreutil: unknown capability %q (known: %v)", n, known)
		}
		caps |= c
	}
	return caps, nil
}

// ReadScenario decodes one scenario file.
func ReadScenario(path string) (*ScenarioConfig, error) {
	var sc ScenarioConfig
	if _, err := toml.DecodeFile(os.ExpandEnv(path), &sc); err != nil {
		return nil, fmt.Errorf("restoreutil: reading scenario %s: %w", path, err)
	}
	return &sc, nil
}

// ScenarioFromViper assembles a ScenarioConfig from a viper
// configuration, so that the model switches can be overridden from the
// command line on top of the scenario file. Only flags the user
// explicitly set override the scenario values.
func ScenarioFromViper(cfg *viper.Viper, flags *pflag.FlagSet) (*ScenarioConfig, error) {
	path := cfg.GetString("scenario")
	if path == "" {
		return nil, fmt.Errorf("restoreutil: no scenario file specified (--scenario)")
	}
	sc, err := ReadScenario(path)
	if err != nil {
		return nil, err
	}
	if flags.Changed("PinBaseYear") {
		sc.PinBaseYear = cfg.GetBool("PinBaseYear")
	}
	if flags.Changed("PinBaseActivity") {
		sc.PinBaseActivity = cfg.GetBool("PinBaseActivity")
	}
	if flags.Changed("HourWeight") {
		sc.HourWeight = cfg.GetFloat64("HourWeight")
	}
	return sc, nil
}

// BuildModel compiles a scenario into a ready-to-build model.
func BuildModel(sc *ScenarioConfig) (*restore.Model, error) {
	ts, err := restore.NewTimeSlices(sc.Years, sc.RepresentativeDays, sc.Hours, sc.DayWeights, sc.HourWeight)
	if err != nil {
		return nil, err
	}

	flows := make([]*restore.Flow, 0, len(sc.Flows))
	for _, fc := range sc.Flows {
		dims := restore.DimsEnergy
		if fc.Unit == "pkm" {
			dims = restore.DimsPassengerKm
		}
		flows = append(flows, &restore.Flow{ID: fc.ID, Unit: unit.New(1, dims)})
	}

	entities := make([]*restore.Entity, 0, len(sc.Entities))
	var edges []restore.EdgeDecl
	for _, ec := range sc.Entities {
		caps, err := parseCapabilities(ec.Capabilities)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", ec.ID, err)
		}
		enable := ec.EnableYear
		if enable == 0 {
			enable = ts.BaseYear()
		}
		entities = append(entities, &restore.Entity{ID: ec.ID, Caps: caps, EnableYear: enable})
		for _, f := range ec.Inputs {
			edges = append(edges, restore.EdgeDecl{Flow: f, Entity: ec.ID, Direction: restore.In})
		}
		for _, f := range ec.Outputs {
			edges = append(edges, restore.EdgeDecl{Flow: f, Entity: ec.ID, Direction: restore.Out})
		}
	}

	top, err := restore.NewTopology(flows, entities, edges)
	if err != nil {
		return nil, err
	}

	data := restore.NewParamStore()
	for _, name := range sc.StrictParams {
		data.SetMode(name, restore.Strict)
	}
	for name, v := range sc.Country {
		data.Set(restore.CountryID, name, restore.Constant(v))
	}
	if err := setByYear(data, restore.CountryID, sc.CountryByYear); err != nil {
		return nil, err
	}
	for _, fc := range sc.Flows {
		for name, v := range fc.Params {
			data.Set(fc.ID, name, restore.Constant(v))
		}
		if err := setByYear(data, fc.ID, fc.ParamsByYear); err != nil {
			return nil, err
		}
	}
	for _, ec := range sc.Entities {
		for name, v := range ec.Params {
			data.Set(ec.ID, name, restore.Constant(v))
		}
		if err := setByYear(data, ec.ID, ec.ParamsByYear); err != nil {
			return nil, err
		}
		for name, perFlow := range ec.FlowParams {
			for f, v := range perFlow {
				data.SetFxE(ec.ID, name, f, restore.Constant(v))
			}
		}
		for name, perYear := range ec.Hourly {
			for ys, vals := range perYear {
				y, err := cast.ToIntE(ys)
				if err != nil {
					return nil, fmt.Errorf("restoreutil: entity %s, series %s: bad year key %q: %w", ec.ID, name, ys, err)
				}
				data.SetHourly(ec.ID, name, y, vals)
			}
		}
	}

	return restore.NewModel(top, data, ts, restore.ComposeOptions{
		PinBaseYear:     sc.PinBaseYear,
		PinBaseActivity: sc.PinBaseActivity,
	})
}

func setByYear(data *restore.ParamStore, id string, byYear map[string]map[string]float64) error {
	for name, perYear := range byYear {
		vals := make(map[int]float64, len(perYear))
		for ys, v := range perYear {
			y, err := cast.ToIntE(ys)
			if err != nil {
				return fmt.Errorf("restoreutil: %s, parameter %s: bad year key %q: %w", id, name, ys, err)
			}
			vals[y] = v
		}
		data.Set(id, name, restore.ByYear(vals))
	}
	return nil
}
