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
	"fmt"
	"math"
	"sort"
	"strings"
)

// VarKind identifies one family of decision variables.
type VarKind uint8

const (
	// VarActivity is entity activity a(e,y,d,h).
	VarActivity VarKind = iota
	// VarFlowIn is an input-edge flow fin(f,e,y,d,h).
	VarFlowIn
	// VarFlowOut is an output-edge flow fout(f,e,y,d,h).
	VarFlowOut
	// VarCapNew is new capacity cnew(e,y).
	VarCapNew
	// VarCapRet is retired capacity cret(e,y).
	VarCapRet
	// VarCapTot is total installed capacity ctot(e,y).
	VarCapTot
	// VarSOC is storage state-of-charge soc(e,y,d,h).
	VarSOC
	// VarImport is the import branch of trade activity aimp(e,y,d,h).
	VarImport
	// VarExport is the export branch of trade activity aexp(e,y,d,h).
	VarExport
)

var varKindNames = map[VarKind]string{
	VarActivity: "a",
	VarFlowIn:   "fin",
	VarFlowOut:  "fout",
	VarCapNew:   "cnew",
	VarCapRet:   "cret",
	VarCapTot:   "ctot",
	VarSOC:      "soc",
	VarImport:   "aimp",
	VarExport:   "aexp",
}

func (k VarKind) String() string { return varKindNames[k] }

// VarKey addresses one decision variable. Unused index dimensions are
// zero-valued: capacity variables carry no day/hour, entity-level
// variables no flow.
type VarKey struct {
	Kind   VarKind
	Entity string
	Flow   string
	Year   int
	Day    int
	Hour   int
}

func (k VarKey) String() string {
	var b strings.Builder
	b.WriteString(k.Kind.String())
	b.WriteByte('[')
	if k.Flow != "" {
		fmt.Fprintf(&b, "%s,", k.Flow)
	}
	fmt.Fprintf(&b, "%s,%d", k.Entity, k.Year)
	switch k.Kind {
	case VarCapNew, VarCapRet, VarCapTot:
	default:
		fmt.Fprintf(&b, ",%d,%d", k.Day, k.Hour)
	}
	b.WriteByte(']')
	return b.String()
}

// Var is one decision variable in the arena. All variables are
// non-negative; Fix pins a variable to a constant. Value is written
// once, when the solver's solution is applied.
type Var struct {
	ID  int
	Key VarKey
	Lo  float64
	Hi  float64 // +Inf when unbounded above

	Value float64
}

// Fixed reports whether the variable has been pinned.
func (v *Var) Fixed() bool { return v.Lo == v.Hi }

// Fix pins the variable to x.
func (v *Var) Fix(x float64) { v.Lo, v.Hi = x, x }

// LinTerm is one coefficient·variable product.
type LinTerm struct {
	Var  *Var
	Coef float64
}

// LinExpr is a sparse linear expression over the variable arena plus a
// constant offset. The zero value is an empty expression.
type LinExpr struct {
	coefs  map[int]float64
	vars   map[int]*Var
	Offset float64
}

// Add accumulates coef·v into the expression. A zero coefficient still
// registers the variable so that index sets remain deterministic
// between identical runs; a nil variable is ignored.
func (e *LinExpr) Add(v *Var, coef float64) {
	if v == nil {
		return
	}
	if e.coefs == nil {
		e.coefs = make(map[int]float64)
		e.vars = make(map[int]*Var)
	}
	e.coefs[v.ID] += coef
	e.vars[v.ID] = v
}

// AddExpr accumulates scale·other into the expression.
func (e *LinExpr) AddExpr(other LinExpr, scale float64) {
	for id, c := range other.coefs {
		e.Add(other.vars[id], scale*c)
	}
	e.Offset += scale * other.Offset
}

// Terms returns the expression's terms sorted by variable ID.
func (e *LinExpr) Terms() []LinTerm {
	ids := make([]int, 0, len(e.coefs))
	for id := range e.coefs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]LinTerm, len(ids))
	for i, id := range ids {
		out[i] = LinTerm{Var: e.vars[id], Coef: e.coefs[id]}
	}
	return out
}

// Empty reports whether the expression has no terms and no offset.
func (e *LinExpr) Empty() bool { return len(e.coefs) == 0 && e.Offset == 0 }

// Sense is a constraint relation.
type Sense uint8

const (
	// LE is left ≤ right.
	LE Sense = iota
	// GE is left ≥ right.
	GE
	// EQ is left = right.
	EQ
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case GE:
		return ">="
	default:
		return "=="
	}
}

// Constraint is one assembled row: Expr Sense RHS. Name identifies the
// constraint family and index tuple for reporting and tests.
type Constraint struct {
	Name  string
	Expr  LinExpr
	Sense Sense
	RHS   float64
}

// Problem is the assembled linear program: the variable arena, the
// constraint rows and the (minimized) objective.
type Problem struct {
	Vars        []*Var
	Constraints []*Constraint
	Objective   LinExpr

	index map[VarKey]*Var
}

// NewProblem returns an empty problem.
func NewProblem() *Problem {
	return &Problem{index: make(map[VarKey]*Var)}
}

// AddVar creates the variable for key. Creating the same key twice is
// a programming error and panics: the composer declares each variable
// exactly once.
func (p *Problem) AddVar(key VarKey) *Var {
	if _, ok := p.index[key]; ok {
		panic(fmt.Sprintf("restore: variable %v declared twice", key))
	}
	v := &Var{ID: len(p.Vars), Key: key, Lo: 0, Hi: math.Inf(1)}
	p.Vars = append(p.Vars, v)
	p.index[key] = v
	return v
}

// Var returns the variable for key, or nil when the key was never
// declared. Undeclared (flow, entity) pairs have no variable by
// construction.
func (p *Problem) Var(key VarKey) *Var { return p.index[key] }

// MustVar returns the variable for key and panics when it does not
// exist; used where absence indicates a composer bug rather than a
// sparse index.
func (p *Problem) MustVar(key VarKey) *Var {
	v := p.index[key]
	if v == nil {
		panic(fmt.Sprintf("restore: variable %v was never declared", key))
	}
	return v
}

// AddConstraint appends a row.
func (p *Problem) AddConstraint(c *Constraint) { p.Constraints = append(p.Constraints, c) }

// Fingerprint renders the variable and constraint index sets into a
// canonical string. Two assemblies of the same configuration must
// produce identical fingerprints.
func (p *Problem) Fingerprint() string {
	var b strings.Builder
	for _, v := range p.Vars {
		fmt.Fprintf(&b, "v%d %s [%g,%g]\n", v.ID, v.Key, v.Lo, v.Hi)
	}
	for _, c := range p.Constraints {
		fmt.Fprintf(&b, "c %s:", c.Name)
		for _, t := range c.Expr.Terms() {
			fmt.Fprintf(&b, " %+g*v%d", t.Coef, t.Var.ID)
		}
		if c.Expr.Offset != 0 {
			fmt.Fprintf(&b, " %+g", c.Expr.Offset)
		}
		fmt.Fprintf(&b, " %s %g\n", c.Sense, c.RHS)
	}
	return b.String()
}

// Summary describes the problem size for error reporting.
func (p *Problem) Summary() string {
	return fmt.Sprintf("%d variables, %d constraints", len(p.Vars), len(p.Constraints))
}

// Solution is one value per decision variable plus the objective, as
// returned by a Solver.
type Solution struct {
	Values    []float64
	Objective float64
}

// Apply writes the solution into the variable arena. It fails when the
// solution length does not match the arena.
func (p *Problem) Apply(s *Solution) error {
	if len(s.Values) != len(p.Vars) {
		return fmt.Errorf("restore: solution has %d values for %d variables", len(s.Values), len(p.Vars))
	}
	for i, v := range p.Vars {
		v.Value = s.Values[i]
	}
	return nil
}
