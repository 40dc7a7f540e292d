// Package nonlinear implements the Newton-Raphson driver of spec §4.5: one
// shared iteration loop used by every analysis engine (OP, DC sweep, AC's
// bias pass, and each Transient step), rather than the three independent
// copies a less disciplined port would grow.
package nonlinear

import (
	"log"

	"github.com/kretslab/krets/internal/consts"
	"github.com/kretslab/krets/pkg/element"
	"github.com/kretslab/krets/pkg/kerrors"
)

// Tolerances configures the convergence test and iteration budget (spec
// §4.5 and the `[tolerances]` config table of spec §6).
type Tolerances struct {
	RelTol  float64
	VAbsTol float64
	IAbsTol float64
	MaxIter int
}

// DefaultTolerances match common SPICE defaults.
func DefaultTolerances() Tolerances {
	return Tolerances{RelTol: 1e-3, VAbsTol: 1e-6, IAbsTol: 1e-9, MaxIter: 100}
}

// System is the subset of circuit.Circuit the driver needs: stamp, solve,
// and re-linearize nonlinear devices about the new guess.
type System interface {
	Stamp(status *element.Status) error
	Solve() error
	Solution() []float64
	UpdateNonlinearVoltages(solution []float64) error
	NumNodes() int
}

// Driver runs Newton-Raphson to convergence, with gmin-stepping and
// source-stepping as the damped-Newton aids spec §9 calls for.
type Driver struct {
	Tol Tolerances
}

func New(tol Tolerances) *Driver {
	return &Driver{Tol: tol}
}

// Run iterates sys to convergence at the given status, returning the
// converged solution. A purely linear circuit (no nonlinear devices)
// degenerates to a single iteration, per spec §4.5.
func (d *Driver) Run(sys System, status *element.Status) ([]float64, error) {
	var prev []float64

	for iter := 0; iter < d.Tol.MaxIter; iter++ {
		if iter > 0 {
			if err := sys.UpdateNonlinearVoltages(prev); err != nil {
				return nil, err
			}
		}

		if err := sys.Stamp(status); err != nil {
			return nil, err
		}
		if err := sys.Solve(); err != nil {
			return nil, err
		}

		solution := sys.Solution()

		if iter > 0 && d.converged(solution, prev, sys.NumNodes()) {
			return solution, nil
		}

		if prev == nil {
			prev = make([]float64, len(solution))
		}
		copy(prev, solution)
	}

	return nil, kerrors.New(kerrors.ConvergenceFailure, nil, "did not converge in %d iterations", d.Tol.MaxIter)
}

func (d *Driver) converged(cur, prev []float64, numNodes int) bool {
	for i := 1; i < len(cur); i++ {
		tau := d.Tol.IAbsTol
		if i <= numNodes {
			tau = d.Tol.VAbsTol
		}
		limit := d.Tol.RelTol*maxAbs(cur[i], prev[i]) + tau
		if absf(cur[i]-prev[i]) > limit {
			return false
		}
	}
	return true
}

func maxAbs(a, b float64) float64 {
	a, b = absf(a), absf(b)
	if a > b {
		return a
	}
	return b
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// RunWithAids runs Run, falling back to gmin-stepping (ramping the minimum
// conductance down from a large starting value) and then source-stepping
// (ramping independent sources up from 10% to 100%) when plain Newton
// fails to converge — the standard aids spec §9 names, tried in that
// order before giving up.
func (d *Driver) RunWithAids(sys System, status *element.Status, ramp SourceRamp) ([]float64, error) {
	if solution, err := d.Run(sys, status); err == nil {
		return solution, nil
	}

	log.Printf("nonlinear: plain Newton failed to converge, trying gmin stepping")
	gmin := 1.0
	for gmin >= consts.DefaultGmin {
		trial := *status
		trial.Gmin = gmin
		if _, err := d.Run(sys, &trial); err != nil {
			break
		}
		gmin /= 10
	}
	if solution, err := d.Run(sys, status); err == nil {
		return solution, nil
	}

	if ramp == nil {
		return nil, kerrors.New(kerrors.ConvergenceFailure, nil, "gmin stepping exhausted and no source-stepping ramp available")
	}

	log.Printf("nonlinear: gmin stepping failed, trying source stepping")
	restore := ramp.Scale(1.0) // capture original values before perturbing
	defer restore()
	for factor := 0.1; factor <= 1.0+1e-9; factor += 0.1 {
		undo := ramp.Scale(factor)
		_, err := d.Run(sys, status)
		undo()
		if err != nil {
			return nil, kerrors.New(kerrors.ConvergenceFailure, err, "source stepping failed at %.0f%%", factor*100)
		}
	}

	return d.Run(sys, status)
}

// SourceRamp scales every independent source to a fraction of its original
// value and returns a function that restores the prior values.
type SourceRamp interface {
	Scale(factor float64) (restore func())
}
