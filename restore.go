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

// Package restore assembles multi-sector, multi-year energy-system
// optimization problems from declarative entity and flow descriptions.
// Entities (technologies, trade links, storages, demands) are connected
// through flow buses in a sparse bipartite graph; the composer walks the
// graph and emits, per entity, the generic and sector-specific expressions
// and constraints that match the entity's capability set. The assembled
// linear program is handed to a Solver, which is treated as a black box.
package restore

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Version gives the model version.
const Version = "0.1.0"

// Model holds the inputs and the assembled optimization problem for one
// scenario run. The input data (Topology, Data, Slices) is immutable once
// the model has been built; decision-variable values are written exactly
// once, when a Solver solution is applied.
type Model struct {
	Topology *Topology
	Data     *ParamStore
	Slices   *TimeSlices
	Problem  *Problem

	// Options controls base-year pinning and module registration.
	Options ComposeOptions

	solved    bool
	objective float64
}

// ComposeOptions holds switches that alter how the problem is assembled.
type ComposeOptions struct {
	// PinBaseYear fixes capacity variables at the base year to the
	// declared actuals, as a consistency check against residual
	// capacity. Optional; the vintage recurrence alone determines
	// capacity when unset.
	PinBaseYear bool

	// PinBaseActivity fixes activity at the base year to declared
	// actuals divided over the hours of the year, for entities whose
	// enable year coincides with the base year.
	PinBaseActivity bool

	// Modules is the sector-module registry consulted during
	// composition. When nil, DefaultModules() is used.
	Modules []Module
}

// NewModel prepares a model for assembly. It validates the topology
// against the parameter store but does not yet create any variables
// or constraints; call Build for that.
func NewModel(top *Topology, data *ParamStore, ts *TimeSlices, opts ComposeOptions) (*Model, error) {
	if top == nil || data == nil || ts == nil {
		return nil, &ConfigurationError{Reason: "topology, data and time slices must all be provided"}
	}
	if len(ts.Years) == 0 || len(ts.Days) == 0 || len(ts.Hours) == 0 {
		return nil, &ConfigurationError{Reason: "empty year, day or hour set"}
	}
	m := &Model{
		Topology: top,
		Data:     data,
		Slices:   ts,
		Options:  opts,
	}
	if m.Options.Modules == nil {
		m.Options.Modules = DefaultModules()
	}
	return m, nil
}

// Build assembles the variables, constraints and objective.
func (m *Model) Build() error {
	if m.Problem != nil {
		return fmt.Errorf("restore: model has already been built")
	}
	p, err := Compose(m.Topology, m.Data, m.Slices, m.Options)
	if err != nil {
		return err
	}
	m.Problem = p
	log.WithFields(log.Fields{
		"variables":   len(p.Vars),
		"constraints": len(p.Constraints),
	}).Info("model assembled")
	return nil
}

// Solve hands the assembled problem to s and applies the returned
// solution. Infeasibility and unboundedness are surfaced verbatim.
func (m *Model) Solve(s Solver) error {
	if m.Problem == nil {
		return fmt.Errorf("restore: model must be built before solving")
	}
	sol, err := s.Solve(m.Problem)
	if err != nil {
		return err
	}
	if err := m.Problem.Apply(sol); err != nil {
		return err
	}
	m.solved = true
	m.objective = sol.Objective
	return nil
}

// Objective returns the realized objective value. It is only valid
// after a successful Solve.
func (m *Model) Objective() (float64, error) {
	if !m.solved {
		return 0, fmt.Errorf("restore: model has not been solved")
	}
	return m.objective, nil
}

// ConfigurationError indicates a structurally invalid set of
// declarations: duplicate edges, an entity with no edges, conflicting
// module switches. It is fatal at assembly time.
type ConfigurationError struct {
	Entity string
	Flow   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Entity != "" && e.Flow != "":
		return fmt.Sprintf("restore: invalid configuration for entity %q, flow %q: %s", e.Entity, e.Flow, e.Reason)
	case e.Entity != "":
		return fmt.Sprintf("restore: invalid configuration for entity %q: %s", e.Entity, e.Reason)
	case e.Flow != "":
		return fmt.Sprintf("restore: invalid configuration for flow %q: %s", e.Flow, e.Reason)
	default:
		return fmt.Sprintf("restore: invalid configuration: %s", e.Reason)
	}
}

// StrictLookupError reports a parameter that a strict lookup required
// but the configuration does not define.
type StrictLookupError struct {
	Entity string
	Param  string
	Flow   string
	Year   int
}

func (e *StrictLookupError) Error() string {
	if e.Flow != "" {
		return fmt.Sprintf("restore: parameter %q undefined for entity %q, flow %q, year %d", e.Param, e.Entity, e.Flow, e.Year)
	}
	return fmt.Sprintf("restore: parameter %q undefined for entity %q, year %d", e.Param, e.Entity, e.Year)
}
