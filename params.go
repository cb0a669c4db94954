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

import "math"

// Parameter names used by the generic libraries and sector modules.
// Sector configurations may define any subset; an undefined optional
// parameter triggers the skip condition of its constraint.
const (
	ParamInputEfficiency  = "input_efficiency"
	ParamOutputEfficiency = "output_efficiency"
	ParamFlowInShareEq    = "flow_in_share_equal"
	ParamFlowInShareMax   = "flow_in_share_max"
	ParamFlowInShareMin   = "flow_in_share_min"
	ParamFlowOutShareEq   = "flow_out_share_equal"
	ParamFlowOutShareMax  = "flow_out_share_max"
	ParamFlowOutShareMin  = "flow_out_share_min"
	ParamInputShareEq     = "input_share_equal"
	ParamInputShareMax    = "input_share_max"
	ParamInputShareMin    = "input_share_min"
	ParamOutputShareEq    = "output_share_equal"
	ParamOutputShareMax   = "output_share_max"
	ParamOutputShareMin   = "output_share_min"

	ParamMaxCapacityAnnual = "max_capacity_annual"
	ParamLifetime          = "lifetime"
	ParamBuildRate         = "buildrate"
	ParamGrowthRate        = "growthrate"
	ParamActualCapacity    = "actual_capacity"
	ParamInitialRetired    = "initial_retired_capacity"
	ParamActualActivity    = "actual_activity"

	ParamRampRate          = "ramp_rate"
	ParamMaxActivityAnnual = "max_activity_annual"
	ParamLFMax             = "lf_max"
	ParamLFMin             = "lf_min"
	ParamCapToAct          = "capacity_to_activity"
	ParamPeakRatio         = "peak_ratio"

	ParamCostInvestment = "cost_investment"
	ParamCostFixedOM    = "cost_fixed_om_annual"
	ParamCostVariableOM = "cost_variable_om"
	ParamCostImport     = "cost_import"
	ParamRevenueExport  = "revenue_export"

	ParamCRate       = "c_rate"
	ParamInitialSOC  = "initial_soc_ratio"
	ParamStandingEff = "standing_efficiency"

	ParamSpeed           = "speed"
	ParamPopulation      = "actual_population"
	ParamDailyTravelTime = "daily_travel_time"

	ParamMaxImportAnnual = "max_import_annual"
	ParamMaxExportAnnual = "max_export_annual"

	ParamDemandShape = "demand_shape"

	ParamDiscountRate  = "discount_factor"
	ParamPeakMargin    = "peak_capacity_margin"
	ParamPeakDemand    = "peak_capacity_demand"
	ParamBaseDemand    = "base_capacity_demand"
	ParamActualDemand  = "actual_demand"
	ParamLFMaxSeries   = "lf_max_series"
	ParamActualImport  = "actual_import"
	ParamActualExport  = "actual_export"
)

// CountryID keys system-wide parameters (discount rate, population)
// in the parameter store.
const CountryID = "country"

// Series is one parameter's values: an optional constant with optional
// per-year overrides. A year lookup prefers the exact year, then the
// constant; when neither exists the parameter is undefined for that
// year.
type Series struct {
	Const *float64
	Years map[int]float64
}

// Constant returns a Series holding a single constant value.
func Constant(v float64) Series {
	return Series{Const: &v}
}

// ByYear returns a Series holding per-year values only.
func ByYear(vals map[int]float64) Series {
	return Series{Years: vals}
}

func (s Series) at(y int) (float64, bool) {
	if v, ok := s.Years[y]; ok {
		return v, true
	}
	if s.Const != nil {
		return *s.Const, true
	}
	return 0, false
}

func (s Series) constant() (float64, bool) {
	if s.Const != nil {
		return *s.Const, true
	}
	return 0, false
}

// LookupMode selects how an undefined parameter is treated: Lenient
// yields "undefined" and lets the caller skip the governed constraint;
// Strict fails with a StrictLookupError.
type LookupMode uint8

const (
	Lenient LookupMode = iota
	Strict
)

type paramKey struct {
	entity string
	name   string
	flow   string // empty for entity-level parameters
}

// ParamStore holds all compiled scenario parameters, keyed by entity
// (or CountryID) and parameter name, with an optional flow dimension
// for per-edge parameters such as efficiencies and shares.
type ParamStore struct {
	series map[paramKey]Series
	hourly map[paramKey]map[int][]float64
	modes  map[string]LookupMode // per parameter name; default Lenient
}

// NewParamStore returns an empty store.
func NewParamStore() *ParamStore {
	return &ParamStore{
		series: make(map[paramKey]Series),
		hourly: make(map[paramKey]map[int][]float64),
		modes:  make(map[string]LookupMode),
	}
}

// SetHourly stores an hour-indexed time series for one year, used for
// variable-renewable load factors.
func (s *ParamStore) SetHourly(entity, name string, year int, vals []float64) {
	k := paramKey{entity: entity, name: name}
	if s.hourly[k] == nil {
		s.hourly[k] = make(map[int][]float64)
	}
	s.hourly[k][year] = vals
}

// GetHourly looks up an hour-indexed time series value. The hour wraps
// modulo the series length, so a 24-value daily profile serves every
// representative day.
func (s *ParamStore) GetHourly(entity, name string, y, h int) (float64, bool, error) {
	vals := s.hourly[paramKey{entity: entity, name: name}][y]
	if len(vals) == 0 {
		if s.modes[name] == Strict {
			return 0, false, &StrictLookupError{Entity: entity, Param: name, Year: y}
		}
		return 0, false, nil
	}
	return vals[((h%len(vals))+len(vals))%len(vals)], true, nil
}

// Set stores an entity-level parameter.
func (s *ParamStore) Set(entity, name string, v Series) {
	s.series[paramKey{entity: entity, name: name}] = v
}

// SetFxE stores a per-edge parameter for (entity, flow).
func (s *ParamStore) SetFxE(entity, name, flow string, v Series) {
	s.series[paramKey{entity: entity, name: name, flow: flow}] = v
}

// SetMode selects the lookup mode for one parameter name.
func (s *ParamStore) SetMode(name string, m LookupMode) { s.modes[name] = m }

// Get looks up an entity-level parameter for a year. The boolean
// reports whether the value is defined; in Strict mode an undefined
// parameter is an error instead.
func (s *ParamStore) Get(entity, name string, y int) (float64, bool, error) {
	v, ok := s.series[paramKey{entity: entity, name: name}].at(y)
	if !ok && s.modes[name] == Strict {
		return 0, false, &StrictLookupError{Entity: entity, Param: name, Year: y}
	}
	return v, ok, nil
}

// GetConst looks up a year-independent entity-level parameter.
func (s *ParamStore) GetConst(entity, name string) (float64, bool, error) {
	v, ok := s.series[paramKey{entity: entity, name: name}].constant()
	if !ok && s.modes[name] == Strict {
		return 0, false, &StrictLookupError{Entity: entity, Param: name}
	}
	return v, ok, nil
}

// GetFxE looks up a per-edge parameter for (entity, flow) and a year.
func (s *ParamStore) GetFxE(entity, name, flow string, y int) (float64, bool, error) {
	v, ok := s.series[paramKey{entity: entity, name: name, flow: flow}].at(y)
	if !ok && s.modes[name] == Strict {
		return 0, false, &StrictLookupError{Entity: entity, Param: name, Flow: flow, Year: y}
	}
	return v, ok, nil
}

// Efficiency returns the input or output efficiency for an edge,
// defaulting to 1 when undefined (a lossless connection).
func (s *ParamStore) Efficiency(entity, flow string, dir Direction, y int) (float64, error) {
	name := ParamInputEfficiency
	if dir == Out {
		name = ParamOutputEfficiency
	}
	v, ok, err := s.GetFxE(entity, name, flow, y)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 1, nil
	}
	return v, nil
}

// DiscountFactors computes per-year discount factors from the
// country-level discount rate relative to the base year. When the rate
// is undefined there is no discounting.
func (s *ParamStore) DiscountFactors(ts *TimeSlices) map[int]float64 {
	rate, ok, _ := s.GetConst(CountryID, ParamDiscountRate)
	disc := make(map[int]float64, len(ts.AllYears))
	for _, y := range ts.AllYears {
		if !ok || rate == 0 {
			disc[y] = 1
			continue
		}
		disc[y] = 1 / math.Pow(1+rate, float64(y-ts.BaseYear()))
	}
	return disc
}
