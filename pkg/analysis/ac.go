package analysis

import (
	"fmt"
	"math"

	"github.com/kretslab/krets/pkg/circuit"
	"github.com/kretslab/krets/pkg/element"
	"github.com/kretslab/krets/pkg/kerrors"
	"github.com/kretslab/krets/pkg/netlist"
	"github.com/kretslab/krets/pkg/nonlinear"
	"github.com/kretslab/krets/pkg/result"
)

// RunAC performs AC small-signal analysis (spec §4.6): an OP solve fixes
// the bias point at which every nonlinear device is linearized, then the
// complex MNA system is assembled and solved once per frequency point.
// Two Circuit instances are built from the same parsed netlist — one real
// (for the bias point), one complex (for the sweep) — since a System's
// real/complex shape is fixed at construction; both share the same
// deterministic node/branch numbering, so the bias solution's rows map
// onto the complex circuit's devices directly.
func RunAC(parsed *netlist.Circuit, driver *nonlinear.Driver, fstart, fstop float64, npoints int, scale string) (*result.Result, error) {
	driver = driverOrDefault(driver)

	biasCircuit, err := circuit.Build(parsed, false)
	if err != nil {
		return nil, err
	}
	defer biasCircuit.Destroy()

	_, bias, err := RunOP(biasCircuit, driver)
	if err != nil {
		return nil, err
	}

	acCircuit, err := circuit.Build(parsed, true)
	if err != nil {
		return nil, err
	}
	defer acCircuit.Destroy()

	if err := acCircuit.UpdateNonlinearVoltages(bias); err != nil {
		return nil, err
	}

	freqs, err := frequencyPoints(fstart, fstop, npoints, scale)
	if err != nil {
		return nil, err
	}

	res := result.New(acCircuit.Index.Labels(), result.AxisFreq, true)

	for _, f := range freqs {
		status := &element.Status{Mode: element.AC, Frequency: f}

		if err := acCircuit.Stamp(status); err != nil {
			return nil, err
		}
		if err := acCircuit.Solve(); err != nil {
			return nil, kerrors.At(kerrors.SingularMatrix, fmt.Sprintf("f=%g", f), err, "AC solve failed")
		}

		res.AppendAxis(f)
		res.AppendComplex(acCircuit.ComplexAt)
	}

	return res, nil
}

// frequencyPoints generates the AC sweep per spec §6's `scale` ∈ {lin, dec}.
func frequencyPoints(fstart, fstop float64, npoints int, scale string) ([]float64, error) {
	if npoints < 1 {
		return nil, kerrors.New(kerrors.ConfigError, nil, "ac: npoints must be >= 1, got %d", npoints)
	}
	if npoints == 1 {
		return []float64{fstart}, nil
	}

	freqs := make([]float64, npoints)
	switch scale {
	case "dec", "":
		if fstart <= 0 || fstop <= 0 {
			return nil, kerrors.New(kerrors.ConfigError, nil, "ac: decade sweep requires fstart, fstop > 0")
		}
		logStart, logStop := math.Log10(fstart), math.Log10(fstop)
		step := (logStop - logStart) / float64(npoints-1)
		for i := range freqs {
			freqs[i] = math.Pow(10, logStart+float64(i)*step)
		}
	case "lin":
		step := (fstop - fstart) / float64(npoints-1)
		for i := range freqs {
			freqs[i] = fstart + float64(i)*step
		}
	default:
		return nil, kerrors.New(kerrors.ConfigError, nil, "ac: unknown scale %q (want lin or dec)", scale)
	}
	return freqs, nil
}
