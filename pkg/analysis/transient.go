package analysis

import (
	"fmt"

	"github.com/kretslab/krets/pkg/circuit"
	"github.com/kretslab/krets/pkg/element"
	"github.com/kretslab/krets/pkg/kerrors"
	"github.com/kretslab/krets/pkg/nonlinear"
	"github.com/kretslab/krets/pkg/result"
)

// RunTransient integrates from t=0 to tstop with an initial step tstep
// using Backward Euler (spec §4.6): the OP solution seeds both the initial
// node voltages and the companion-model state of every capacitor/inductor,
// then each step re-linearizes that state before running the nonlinear
// driver. tstart only gates when points start being recorded; the
// simulation itself always runs from t=0 so companion-model history is
// correct.
//
// The step size adapts (grounded on the teacher's tran.go, restored per
// SPEC_FULL since spec.md leaves step control as "fixed step h
// (configurable)" without forbidding refinement): it grows by 1.1x toward
// tmax after each accepted step, and halves, down to tstep/50, on a step
// that fails to converge, retrying rather than aborting immediately.
func RunTransient(c *circuit.Circuit, driver *nonlinear.Driver, tstop, tstep, tstart, tmax float64) (*result.Result, error) {
	driver = driverOrDefault(driver)
	if tmax <= 0 {
		tmax = tstep
	}
	minStep := tstep / 50

	opStatus := baseStatus(element.OP)
	opSolution, err := driver.RunWithAids(c, opStatus, c)
	if err != nil {
		return nil, err
	}
	c.AdvanceTimeStep(opSolution, opStatus)

	res := result.New(c.Index.Labels(), result.AxisTime, false)
	if tstart <= 0 {
		res.AppendAxis(0)
		res.AppendReal(opSolution)
	}

	const epsilon = 1e-12
	t := 0.0
	h := tstep
	for t < tstop-epsilon {
		next := t + h
		step := h
		if next > tstop {
			next = tstop
			step = next - t
		}

		status := &element.Status{Mode: element.Transient, Time: next, TimeStep: step, Temp: opStatus.Temp}
		solution, err := driver.RunWithAids(c, status, c)
		if err != nil {
			if h > minStep {
				h /= 2
				continue
			}
			return nil, kerrors.At(kerrors.ConvergenceFailure, fmt.Sprintf("t=%g", next), err, "transient step failed")
		}

		c.AdvanceTimeStep(solution, status)
		t = next

		if t >= tstart-epsilon {
			res.AppendAxis(t)
			res.AppendReal(solution)
		}

		if h < tmax {
			h *= 1.1
			if h > tmax {
				h = tmax
			}
		}
	}

	return res, nil
}
