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
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Solver turns an assembled problem into a solution. The composer
// treats it as a black box so that an external solver can be swapped in
// behind the same interface.
type Solver interface {
	Solve(p *Problem) (*Solution, error)
}

// InfeasibleError reports that the assembled problem admits no
// solution.
type InfeasibleError struct {
	Detail string
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("restore: problem is infeasible (%s)", e.Detail)
}

// UnboundedError reports an objective unbounded below, usually a
// missing capacity or activity cap in the configuration.
type UnboundedError struct {
	Detail string
}

func (e *UnboundedError) Error() string {
	return fmt.Sprintf("restore: objective is unbounded (%s)", e.Detail)
}

// SimplexSolver solves the problem with gonum's dense simplex method.
// It is meant for the problem sizes that reduced temporal resolutions
// produce; industrial scenario runs should wrap an external LP solver
// instead.
type SimplexSolver struct {
	// Tol is the simplex pivot tolerance; zero selects gonum's
	// default.
	Tol float64
}

// Solve implements Solver. The problem is rewritten into computational
// standard form (minimize c·x subject to A·x = b, x ≥ 0): inequality
// rows get slack or surplus columns, finite upper bounds and fixed
// variables become rows of their own. Model variables are non-negative
// by construction, so no shifting is needed.
func (s *SimplexSolver) Solve(p *Problem) (*Solution, error) {
	n := len(p.Vars)

	type row struct {
		terms []LinTerm
		rhs   float64
		slack float64 // +1 slack, -1 surplus, 0 none
	}
	var rows []row
	for _, c := range p.Constraints {
		r := row{terms: c.Expr.Terms(), rhs: c.RHS - c.Expr.Offset}
		switch c.Sense {
		case LE:
			r.slack = 1
		case GE:
			r.slack = -1
		}
		rows = append(rows, r)
	}
	for _, v := range p.Vars {
		self := []LinTerm{{Var: v, Coef: 1}}
		switch {
		case v.Fixed():
			rows = append(rows, row{terms: self, rhs: v.Lo})
		default:
			if v.Lo > 0 {
				rows = append(rows, row{terms: self, rhs: v.Lo, slack: -1})
			}
			if !math.IsInf(v.Hi, 1) {
				rows = append(rows, row{terms: self, rhs: v.Hi, slack: 1})
			}
		}
	}

	nSlack := 0
	for _, r := range rows {
		if r.slack != 0 {
			nSlack++
		}
	}
	cols := n + nSlack
	a := mat.NewDense(len(rows), cols, nil)
	b := make([]float64, len(rows))
	next := n
	for i, r := range rows {
		for _, t := range r.terms {
			a.Set(i, t.Var.ID, t.Coef)
		}
		if r.slack != 0 {
			a.Set(i, next, r.slack)
			next++
		}
		b[i] = r.rhs
	}

	c := make([]float64, cols)
	for _, t := range p.Objective.Terms() {
		c[t.Var.ID] = t.Coef
	}

	obj, x, err := lp.Simplex(c, a, b, s.Tol, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return nil, &InfeasibleError{Detail: p.Summary()}
	case errors.Is(err, lp.ErrUnbounded):
		return nil, &UnboundedError{Detail: p.Summary()}
	case err != nil:
		return nil, fmt.Errorf("restore: simplex failed on %s: %w", p.Summary(), err)
	}
	return &Solution{
		Values:    x[:n:n],
		Objective: obj + p.Objective.Offset,
	}, nil
}
