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
	"runtime"
	"sync"
)

// Assembler carries the shared read-only state (problem arena,
// topology, parameters, time slices, discount factors) plus a private
// constraint buffer. Entity assembly happens on forked assemblers so
// that entities can be processed concurrently; buffers are joined in
// entity order afterwards, which keeps composition deterministic.
type Assembler struct {
	prob *Problem
	top  *Topology
	data *ParamStore
	ts   *TimeSlices
	disc map[int]float64
	opts ComposeOptions

	cons []*Constraint
}

func (a *Assembler) fork() *Assembler {
	c := *a
	c.cons = nil
	return &c
}

// Module is a sector extension: it claims entities by capability set
// and emits their constraints and objective contribution. Claiming is
// exclusive and first-match over the registry, so registry order is
// part of the dispatch contract.
type Module interface {
	Name() string
	// Applies reports whether this module governs the entity.
	Applies(a *Assembler, e *Entity) bool
	// AssembleEntity emits the entity's constraints into a's buffer.
	AssembleEntity(a *Assembler, e *Entity) error
	// Cost returns the entity's objective contribution. Modules
	// override the generic combined cost here; a zero LinExpr means
	// no contribution.
	Cost(a *Assembler, e *Entity) (LinExpr, error)
}

// SystemModule is implemented by modules that additionally emit
// constraints spanning their whole entity set (adequacy margins,
// travel-time budgets). AssembleSystem runs once, after the per-entity
// pass.
type SystemModule interface {
	Module
	AssembleSystem(a *Assembler) error
}

// DefaultModules returns the built-in registry: demand, storage,
// trade, passenger transport, electricity, and the generic converter
// as the catch-all.
func DefaultModules() []Module {
	return []Module{
		&DemandModule{},
		&StorageModule{},
		&TradeModule{},
		&PassengerModule{},
		&ElectricityModule{SupplyFlow: DefaultSupplyFlow},
		&GenericModule{},
	}
}

func dispatch(mods []Module, a *Assembler, e *Entity) Module {
	for _, m := range mods {
		if m.Applies(a, e) {
			return m
		}
	}
	// GenericModule applies to everything; reaching here means the
	// registry was overridden without a catch-all.
	return &GenericModule{}
}

// Compose assembles the full problem: variables first (serially, in
// declaration order), then per-entity constraints concurrently, then
// the system-wide flow balance and module system constraints, then the
// objective as the sum of per-entity combined costs. The same
// configuration always yields an identical variable and constraint
// index set.
func Compose(top *Topology, data *ParamStore, ts *TimeSlices, opts ComposeOptions) (*Problem, error) {
	if opts.Modules == nil {
		opts.Modules = DefaultModules()
	}
	prob := NewProblem()
	declareVariables(prob, top, ts)

	base := &Assembler{
		prob: prob,
		top:  top,
		data: data,
		ts:   ts,
		disc: data.DiscountFactors(ts),
		opts: opts,
	}

	n := len(top.Entities)
	buffers := make([][]*Constraint, n)
	costs := make([]LinExpr, n)
	errs := make([]error, n)

	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for ii := pp; ii < n; ii += nprocs {
				e := top.Entities[ii]
				a := base.fork()
				errs[ii] = assembleEntity(a, e)
				if errs[ii] != nil {
					continue
				}
				mod := dispatch(opts.Modules, a, e)
				costs[ii], errs[ii] = mod.Cost(a, e)
				buffers[ii] = a.cons
			}
		}(pp)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var objective LinExpr
	for ii := 0; ii < n; ii++ {
		prob.Constraints = append(prob.Constraints, buffers[ii]...)
		objective.AddExpr(costs[ii], 1)
	}

	sys := base.fork()
	for _, f := range top.Flows {
		sys.flowBalance(f.ID)
	}
	for _, mod := range opts.Modules {
		if sm, ok := mod.(SystemModule); ok {
			if err := sm.AssembleSystem(sys); err != nil {
				return nil, err
			}
		}
	}
	prob.Constraints = append(prob.Constraints, sys.cons...)
	prob.Objective = objective
	return prob, nil
}

func assembleEntity(a *Assembler, e *Entity) error {
	a.gateEnableYear(e.ID)
	if a.opts.PinBaseYear {
		if err := a.pinBaseYear(e.ID); err != nil {
			return err
		}
	}
	if a.opts.PinBaseActivity && !e.Caps.Has(IsDemand) {
		if err := a.pinBaseActivity(e.ID); err != nil {
			return err
		}
	}
	mod := dispatch(a.opts.Modules, a, e)
	return mod.AssembleEntity(a, e)
}

// declareVariables creates the full sparse variable arena: activity
// per entity, flows per declared edge, the capacity triple per
// capacity-bearing entity, state-of-charge per storage, and the
// import/export split per trade entity. Order of declaration is fixed
// by the sorted topology.
func declareVariables(p *Problem, top *Topology, ts *TimeSlices) {
	for _, e := range top.Entities {
		for _, y := range ts.Years {
			for _, d := range ts.Days {
				for _, h := range ts.Hours {
					p.AddVar(VarKey{Kind: VarActivity, Entity: e.ID, Year: y, Day: d, Hour: h})
				}
			}
		}
	}
	for _, edge := range top.EdgesIn {
		f, e := top.Flows[edge.FlowIdx].ID, top.Entities[edge.EntityIdx].ID
		for _, y := range ts.Years {
			for _, d := range ts.Days {
				for _, h := range ts.Hours {
					p.AddVar(VarKey{Kind: VarFlowIn, Entity: e, Flow: f, Year: y, Day: d, Hour: h})
				}
			}
		}
	}
	for _, edge := range top.EdgesOut {
		f, e := top.Flows[edge.FlowIdx].ID, top.Entities[edge.EntityIdx].ID
		for _, y := range ts.Years {
			for _, d := range ts.Days {
				for _, h := range ts.Hours {
					p.AddVar(VarKey{Kind: VarFlowOut, Entity: e, Flow: f, Year: y, Day: d, Hour: h})
				}
			}
		}
	}
	for _, e := range top.Entities {
		if !e.Caps.Has(HasCapacity) {
			continue
		}
		for _, y := range ts.Years {
			p.AddVar(VarKey{Kind: VarCapNew, Entity: e.ID, Year: y})
			p.AddVar(VarKey{Kind: VarCapRet, Entity: e.ID, Year: y})
			p.AddVar(VarKey{Kind: VarCapTot, Entity: e.ID, Year: y})
		}
	}
	for _, e := range top.Entities {
		if e.Caps.Has(HasStorage) {
			for _, y := range ts.Years {
				for _, d := range ts.Days {
					for _, h := range ts.Hours {
						p.AddVar(VarKey{Kind: VarSOC, Entity: e.ID, Year: y, Day: d, Hour: h})
					}
				}
			}
		}
		if e.Caps.Has(IsTrade) {
			for _, y := range ts.Years {
				for _, d := range ts.Days {
					for _, h := range ts.Hours {
						p.AddVar(VarKey{Kind: VarImport, Entity: e.ID, Year: y, Day: d, Hour: h})
						p.AddVar(VarKey{Kind: VarExport, Entity: e.ID, Year: y, Day: d, Hour: h})
					}
				}
			}
		}
	}
}

// GenericModule is the catch-all converter: activity coupled to
// efficiency-weighted inputs and outputs, share constraints, and the
// full generic capacity and activity families.
type GenericModule struct{}

// Name implements Module.
func (*GenericModule) Name() string { return "generic" }

// Applies implements Module; the generic module accepts any entity.
func (*GenericModule) Applies(*Assembler, *Entity) bool { return true }

// AssembleEntity implements Module.
func (*GenericModule) AssembleEntity(a *Assembler, e *Entity) error {
	if err := a.flowInCoupling(e.ID); err != nil {
		return err
	}
	if err := a.flowOutCoupling(e.ID); err != nil {
		return err
	}
	if err := a.flowShareConstraints(e.ID); err != nil {
		return err
	}
	if err := a.ioShareConstraints(e.ID); err != nil {
		return err
	}
	if err := a.genericCapacityConstraints(e.ID); err != nil {
		return err
	}
	return a.genericActivityConstraints(e.ID)
}

// Cost implements Module with the generic combined cost.
func (*GenericModule) Cost(a *Assembler, e *Entity) (LinExpr, error) {
	return a.CostCombined(e.ID)
}
