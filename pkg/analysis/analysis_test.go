package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kretslab/krets/pkg/circuit"
	"github.com/kretslab/krets/pkg/element"
	"github.com/kretslab/krets/pkg/netlist"
	"github.com/kretslab/krets/pkg/nonlinear"
	"github.com/kretslab/krets/pkg/topology"
)

func build(t *testing.T, src string, isComplex bool) (*netlist.Circuit, *circuit.Circuit) {
	t.Helper()
	parsed, err := netlist.Parse(src)
	require.NoError(t, err)
	require.NoError(t, topology.Check(parsed))
	c, err := circuit.Build(parsed, isComplex)
	require.NoError(t, err)
	t.Cleanup(c.Destroy)
	return parsed, c
}

func resultAt(t *testing.T, res map[string][]float64, label string, point int) float64 {
	t.Helper()
	seq, ok := res[label]
	require.True(t, ok, "missing label %q", label)
	require.Greater(t, len(seq), point)
	return seq[point]
}

// Scenario a: voltage divider (spec §8a).
func TestOPVoltageDivider(t *testing.T) {
	_, c := build(t, "V1 in 0 10\nR1 in out 1000\nR2 out 0 1000\n", false)

	res, _, err := RunOP(c, nil)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, resultAt(t, res.Real, "V(in)", 0), 1e-6)
	assert.InDelta(t, 5.0, resultAt(t, res.Real, "V(out)", 0), 1e-6)
	assert.InDelta(t, -0.005, resultAt(t, res.Real, "I(V1)", 0), 1e-9)
}

// Scenario c: diode clamp (spec §8c).
func TestOPDiodeClamp(t *testing.T) {
	_, c := build(t, "V1 a 0 1\nR1 a b 1000\nD1 b 0\n", false)

	res, _, err := RunOP(c, nil)
	require.NoError(t, err)

	vb := resultAt(t, res.Real, "V(b)", 0)
	iv1 := resultAt(t, res.Real, "I(V1)", 0)
	// self-consistent solution of 1000*Is*exp(Vb/Vt) + Vb = 1 for the
	// spec's literal Is=1e-12, N=1, Vt=0.02585 lands near 0.517V, not the
	// "~0.6V silicon knee" rule of thumb the scenario text uses loosely.
	assert.InDelta(t, 0.517, vb, 0.005)
	assert.InDelta(t, -0.483e-3, iv1, 0.01e-3)
}

// Scenario d: RL transient step (spec §8d). i_L -> 1A as t -> infinity;
// at t=1s it should be within a few percent of 1-e^-1 for R=1, L=1.
//
// Spec §4.6 fixes t=0's initial condition to the OP solution, and V1 here
// must actually be off at t=0 to get the classic charging curve (a plain
// DC source is already at its final value during the OP solve, since that
// solve treats the inductor as a short at whatever value the source holds
// — there is no "turn on" transient to observe). A PULSE source that
// turns on shortly after t=0 reproduces the textbook step response
// without contradicting the OP-seeded initial condition; the 5ms turn-on
// delay is negligible against the circuit's 1s time constant.
func TestTransientRLStepResponse(t *testing.T) {
	_, c := build(t, "V1 in 0 PULSE(0 1 0.005 1e-6 1e-6 100 0)\nR1 in out 1\nL1 out 0 1\n", false)

	res, err := RunTransient(c, nil, 5, 0.01, 0, 0)
	require.NoError(t, err)

	times := res.AxisValues()
	seq := res.Real["I(L1)"]
	require.NotEmpty(t, seq)

	// find the recorded point closest to t=1s
	bestIdx, bestDiff := 0, math.Inf(1)
	for i, tt := range times {
		if d := math.Abs(tt - 1.0); d < bestDiff {
			bestDiff, bestIdx = d, i
		}
	}
	want := 1 - math.Exp(-1)
	assert.InDelta(t, want, seq[bestIdx], 0.02, "inductor current at t=1s")

	// steady state: last recorded point should sit near 1A
	assert.InDelta(t, 1.0, seq[len(seq)-1], 0.02)
}

// Scenario e: DC sweep of a resistor (spec §8e).
func TestDCSweepOfAResistor(t *testing.T) {
	_, c := build(t, "V1 in 0 0\nR1 in 0 10\n", false)

	res, err := RunDC(c, nil, "V1", 0, 5, 1)
	require.NoError(t, err)

	axis := res.AxisValues()
	require.Len(t, axis, 6)
	for i, v := range axis {
		want := -v / 10.0
		got := resultAt(t, res.Real, "I(V1)", i)
		assert.InDelta(t, want, got, 1e-9, "point %d (V=%g)", i, v)
	}
}

// Supplemental feature: a nested DC sweep holds the outer source fixed while
// the inner source sweeps its full range, repeated once per outer point.
// Superposition on this resistor bridge gives a closed form to check against:
// V(out) = (V1+V2)/3 for three equal resistors meeting at "out".
func TestNestedDCSweepTracksBothAxes(t *testing.T) {
	_, c := build(t, "V1 a 0 0\nV2 b 0 0\nR1 a out 1000\nR2 b out 1000\nR3 out 0 1000\n", false)

	res, err := RunDCNested(c, nil, "V1", 0, 2, 1, "V2", 0, 1, 0.5)
	require.NoError(t, err)

	outerAxis := res.Axis2Values()
	innerAxis := res.AxisValues()
	require.Len(t, outerAxis, 9) // 3 outer points * 3 inner points
	require.Len(t, innerAxis, 9)

	for i := range outerAxis {
		want := (outerAxis[i] + innerAxis[i]) / 3
		got := resultAt(t, res.Real, "V(out)", i)
		assert.InDelta(t, want, got, 1e-9, "row %d (V1=%g, V2=%g)", i, outerAxis[i], innerAxis[i])
	}
}

// Scenario f: singular detection (spec §8f) — two voltage sources across the
// same node pair form a voltage-source loop, caught during topology
// validation rather than surfacing only as a solver SingularMatrix.
func TestParallelVoltageSourcesAreRejected(t *testing.T) {
	parsed, err := netlist.Parse("V1 a 0 1\nV2 a 0 2\n")
	require.NoError(t, err)
	err = topology.Check(parsed)
	require.Error(t, err, "parallel voltage sources must be rejected before assembly")
}

// General property 5: a purely linear circuit converges in one Newton
// iteration and re-solving from scratch yields a bit-identical result.
func TestLinearCircuitIsIdempotentAcrossReSolves(t *testing.T) {
	_, c := build(t, "V1 in 0 10\nR1 in out 1000\nR2 out 0 1000\n", false)

	driver := nonlinear.New(nonlinear.DefaultTolerances())
	first, _, err := RunOP(c, driver)
	require.NoError(t, err)

	second, _, err := RunOP(c, driver)
	require.NoError(t, err)

	for _, l := range first.Labels {
		assert.Equal(t, first.Real[l][0], second.Real[l][0], "label %s must be bit-identical across re-solves", l)
	}
}

// General property 6: at ω=0 the real part of the AC solution matches the
// OP solution for the same netlist, once the AC source's magnitude is set
// to the DC value.
func TestACAtZeroFrequencyAgreesWithOP(t *testing.T) {
	src := "V1 in 0 10 AC 10\nR1 in out 1000\nR2 out 0 1000\n"
	_, opCircuit := build(t, src, false)
	opRes, _, err := RunOP(opCircuit, nil)
	require.NoError(t, err)

	acCircuit := mustBuildComplex(t, src)
	require.NoError(t, acCircuit.Stamp(&element.Status{Mode: element.AC, Frequency: 0}))
	require.NoError(t, acCircuit.Solve())

	for i, l := range opRes.Labels {
		re, _ := acCircuit.ComplexAt(i + 1)
		assert.InDelta(t, opRes.Real[l][0], re, 1e-6, "label %s", l)
	}
}

func mustBuildComplex(t *testing.T, src string) *circuit.Circuit {
	t.Helper()
	_, c := build(t, src, true)
	return c
}

// RC low-pass AC magnitude at the corner frequency (spec §8b).
func TestACRCLowPassCornerFrequency(t *testing.T) {
	parsed, err := netlist.Parse("V1 in 0 0 AC 1\nR1 in out 1000\nC1 out 0 1u\n")
	require.NoError(t, err)
	require.NoError(t, topology.Check(parsed))

	res, err := RunAC(parsed, nil, 159.155, 159.155, 1, "dec")
	require.NoError(t, err)

	re := resultAt(t, res.Real, "V(out)", 0)
	im := resultAt(t, res.Imag, "V(out)", 0)
	mag := math.Hypot(re, im)
	assert.InDelta(t, 1/math.Sqrt2, mag, 0.01)
}

// A diode in the AC path must linearize to its frozen bias conductance and
// contribute nothing to the complex RHS: with node "a" held exactly at the
// source's AC phasor, node "b" sees a pure resistive divider between R1 and
// the diode's small-signal resistance Rd=1/geq. At the bias point from
// TestOPDiodeClamp (Vb≈0.51689V for V1=1, R1=1000), geq≈0.018693S, so
// Rd≈53.5Ω and V(b) ≈ 1 * Rd/(R1+Rd) ≈ 0.0508 with no imaginary part
// (nothing in this circuit is reactive).
func TestACDiodeLinearizesAboutBiasPoint(t *testing.T) {
	parsed, err := netlist.Parse("V1 a 0 1 AC 1\nR1 a b 1000\nD1 b 0\n")
	require.NoError(t, err)
	require.NoError(t, topology.Check(parsed))

	res, err := RunAC(parsed, nil, 1000, 1000, 1, "lin")
	require.NoError(t, err)

	re := resultAt(t, res.Real, "V(b)", 0)
	im := resultAt(t, res.Imag, "V(b)", 0)
	assert.InDelta(t, 0.0508, re, 0.002)
	assert.InDelta(t, 0, im, 1e-9)
}
