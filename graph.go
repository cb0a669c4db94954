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
	"sort"

	"github.com/ctessum/unit"
)

// Capability is a behavioral tag carried by an entity. The capability
// set governs which generic and sector-module constraints apply; it is
// the sole dispatch signal during composition.
type Capability uint16

const (
	// HasCapacity enables the capacity lifecycle (cnew, cret, ctot)
	// and the capacity-coupled activity bounds.
	HasCapacity Capability = 1 << iota
	// HasStorage enables the state-of-charge recurrence.
	HasStorage
	// IsTrade splits activity into an import and an export branch.
	IsTrade
	// IsVRE switches the hourly capacity-factor ceiling to a
	// time-series parameter.
	IsVRE
	// IsPassenger includes the entity in the travel-time budget.
	IsPassenger
	// IsDemand pins the entity's activity to an exogenous profile.
	IsDemand
	// AllowImport and AllowExport enable the respective trade branch.
	AllowImport
	AllowExport
)

// Has reports whether c contains all capabilities in want.
func (c Capability) Has(want Capability) bool { return c&want == want }

// Flow is a commodity bus connecting entities: electricity, heat, a
// fuel, passenger-distance. The unit is carried for identification;
// unit conversion happens upstream of the compiled configuration.
type Flow struct {
	ID   string
	Unit *unit.Unit
}

// Entity is a node that converts, extracts or consumes a commodity.
type Entity struct {
	ID         string
	Caps       Capability
	EnableYear int
}

// Direction marks which side of an entity an edge attaches to.
type Direction uint8

const (
	// In marks a flow drawn by the entity (fin).
	In Direction = iota
	// Out marks a flow fed by the entity (fout).
	Out
)

// EdgeDecl declares a single (flow, entity, direction) connection.
// Efficiencies for the edge live in the parameter store under
// "input_efficiency" or "output_efficiency", keyed by (entity, flow).
type EdgeDecl struct {
	Flow      string
	Entity    string
	Direction Direction
}

// Edge is a resolved connection in the arena, holding integer indices
// into the topology's flow and entity slices.
type Edge struct {
	FlowIdx   int
	EntityIdx int
}

// Topology is the sparse bipartite connectivity graph plus all index
// sets derived from it. Every derived view is a filter over the
// declared edge arena; no Flow×Entity product is ever materialized.
type Topology struct {
	Flows    []*Flow
	Entities []*Entity

	flowIdx   map[string]int
	entityIdx map[string]int

	// Edge arenas, sorted by (flow, entity) for deterministic walks.
	EdgesIn  []Edge // flow drawn by entity
	EdgesOut []Edge // flow fed by entity

	// Derived views (entity IDs and flow IDs, sorted).
	inflowEntities  map[string][]string // flow -> entities drawing from it
	outflowEntities map[string][]string // flow -> entities feeding it
	inputs          map[string][]string // entity -> flows drawn
	outputs         map[string][]string // entity -> flows fed
}

// NewTopology builds the connectivity graph from declarations. It
// rejects duplicate edges, references to undeclared flows or entities,
// and entities with neither inputs nor outputs. Runs in time
// proportional to the number of declared edges.
func NewTopology(flows []*Flow, entities []*Entity, edges []EdgeDecl) (*Topology, error) {
	t := &Topology{
		Flows:           append([]*Flow(nil), flows...),
		Entities:        append([]*Entity(nil), entities...),
		flowIdx:         make(map[string]int, len(flows)),
		entityIdx:       make(map[string]int, len(entities)),
		inflowEntities:  make(map[string][]string),
		outflowEntities: make(map[string][]string),
		inputs:          make(map[string][]string),
		outputs:         make(map[string][]string),
	}
	sort.Slice(t.Flows, func(i, j int) bool { return t.Flows[i].ID < t.Flows[j].ID })
	sort.Slice(t.Entities, func(i, j int) bool { return t.Entities[i].ID < t.Entities[j].ID })
	for i, f := range t.Flows {
		if _, ok := t.flowIdx[f.ID]; ok {
			return nil, &ConfigurationError{Flow: f.ID, Reason: "flow declared twice"}
		}
		t.flowIdx[f.ID] = i
	}
	for i, e := range t.Entities {
		if _, ok := t.entityIdx[e.ID]; ok {
			return nil, &ConfigurationError{Entity: e.ID, Reason: "entity declared twice"}
		}
		t.entityIdx[e.ID] = i
	}

	seen := make(map[EdgeDecl]bool, len(edges))
	for _, d := range edges {
		if seen[d] {
			return nil, &ConfigurationError{Entity: d.Entity, Flow: d.Flow, Reason: "edge declared twice"}
		}
		seen[d] = true
		fi, ok := t.flowIdx[d.Flow]
		if !ok {
			return nil, &ConfigurationError{Entity: d.Entity, Flow: d.Flow, Reason: "edge references undeclared flow"}
		}
		ei, ok := t.entityIdx[d.Entity]
		if !ok {
			return nil, &ConfigurationError{Entity: d.Entity, Flow: d.Flow, Reason: "edge references undeclared entity"}
		}
		switch d.Direction {
		case In:
			t.EdgesIn = append(t.EdgesIn, Edge{FlowIdx: fi, EntityIdx: ei})
			t.inflowEntities[d.Flow] = append(t.inflowEntities[d.Flow], d.Entity)
			t.inputs[d.Entity] = append(t.inputs[d.Entity], d.Flow)
		case Out:
			t.EdgesOut = append(t.EdgesOut, Edge{FlowIdx: fi, EntityIdx: ei})
			t.outflowEntities[d.Flow] = append(t.outflowEntities[d.Flow], d.Entity)
			t.outputs[d.Entity] = append(t.outputs[d.Entity], d.Flow)
		default:
			return nil, &ConfigurationError{Entity: d.Entity, Flow: d.Flow, Reason: "edge has invalid direction"}
		}
	}

	for _, e := range t.Entities {
		if len(t.inputs[e.ID]) == 0 && len(t.outputs[e.ID]) == 0 {
			return nil, &ConfigurationError{Entity: e.ID, Reason: "entity has no inputs and no outputs"}
		}
	}

	sortEdges := func(edges []Edge) {
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].FlowIdx != edges[j].FlowIdx {
				return edges[i].FlowIdx < edges[j].FlowIdx
			}
			return edges[i].EntityIdx < edges[j].EntityIdx
		})
	}
	sortEdges(t.EdgesIn)
	sortEdges(t.EdgesOut)
	for _, views := range []map[string][]string{t.inflowEntities, t.outflowEntities, t.inputs, t.outputs} {
		for _, v := range views {
			sort.Strings(v)
		}
	}
	return t, nil
}

// Entity returns the entity with the given ID, or nil.
func (t *Topology) Entity(id string) *Entity {
	i, ok := t.entityIdx[id]
	if !ok {
		return nil
	}
	return t.Entities[i]
}

// Flow returns the flow with the given ID, or nil.
func (t *Topology) Flow(id string) *Flow {
	i, ok := t.flowIdx[id]
	if !ok {
		return nil
	}
	return t.Flows[i]
}

// InflowEntities returns the entities drawing from flow f.
func (t *Topology) InflowEntities(f string) []string { return t.inflowEntities[f] }

// OutflowEntities returns the entities feeding flow f.
func (t *Topology) OutflowEntities(f string) []string { return t.outflowEntities[f] }

// Inputs returns the flows drawn by entity e.
func (t *Topology) Inputs(e string) []string { return t.inputs[e] }

// Outputs returns the flows fed by entity e.
func (t *Topology) Outputs(e string) []string { return t.outputs[e] }

// EntitiesWith returns the IDs of all entities carrying the given
// capability set, in sorted order.
func (t *Topology) EntitiesWith(caps Capability) []string {
	var out []string
	for _, e := range t.Entities {
		if e.Caps.Has(caps) {
			out = append(out, e.ID)
		}
	}
	return out
}

// Commodity dimensions shared by configuration loading. Energy is the
// common case; passenger transport uses distance.
var (
	dimPkm unit.Dimension

	// DimsEnergy is energy in joules.
	DimsEnergy unit.Dimensions
	// DimsPassengerKm is passenger-distance traveled.
	DimsPassengerKm unit.Dimensions
)

func init() {
	dimPkm = unit.NewDimension("pkm")
	DimsEnergy = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: 2, unit.TimeDim: -2}
	DimsPassengerKm = unit.Dimensions{dimPkm: 1}
}
