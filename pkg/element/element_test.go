package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSink records contributions without any solving, for stamp-shape
// assertions independent of the linear-solver adapter.
type fakeSink struct {
	real    map[[2]int]float64
	rhs     map[int]float64
	imag    map[[2]int]float64
	rhsImag map[int]float64
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		real:    make(map[[2]int]float64),
		rhs:     make(map[int]float64),
		imag:    make(map[[2]int]float64),
		rhsImag: make(map[int]float64),
	}
}

func (s *fakeSink) AddElement(i, j int, value float64) {
	if i <= 0 || j <= 0 {
		return
	}
	s.real[[2]int{i, j}] += value
}

func (s *fakeSink) AddRHS(i int, value float64) {
	if i <= 0 {
		return
	}
	s.rhs[i] += value
}

func (s *fakeSink) AddComplexElement(i, j int, real, imag float64) {
	if i <= 0 || j <= 0 {
		return
	}
	s.imag[[2]int{i, j}] += imag
	s.real[[2]int{i, j}] += real
}

func (s *fakeSink) AddComplexRHS(i int, real, imag float64) {
	if i <= 0 {
		return
	}
	s.rhs[i] += real
	s.rhsImag[i] += imag
}

func TestResistorStampIsSymmetricAndGroundDropsContributions(t *testing.T) {
	r := NewResistor("R1", []string{"a", "0"}, 1000)
	r.SetNodes([]int{1, 0}) // node "0" resolves to ground, row 0

	sink := newFakeSink()
	require.NoError(t, r.Stamp(sink, &Status{Mode: OP}))

	g := 1.0 / 1000.0
	assert.Equal(t, g, sink.real[[2]int{1, 1}])
	// every contribution touching row/col 0 (ground) must have been dropped
	assert.Empty(t, sink.rhs)
	for k := range sink.real {
		assert.NotEqual(t, 0, k[0])
		assert.NotEqual(t, 0, k[1])
	}
}

func TestResistorStampBetweenTwoNodesIsFullySymmetric(t *testing.T) {
	r := NewResistor("R1", []string{"a", "b"}, 500)
	r.SetNodes([]int{1, 2})

	sink := newFakeSink()
	require.NoError(t, r.Stamp(sink, &Status{Mode: OP}))

	g := 1.0 / 500.0
	assert.Equal(t, g, sink.real[[2]int{1, 1}])
	assert.Equal(t, g, sink.real[[2]int{2, 2}])
	assert.Equal(t, -g, sink.real[[2]int{1, 2}])
	assert.Equal(t, -g, sink.real[[2]int{2, 1}])
}

func TestCapacitorIsOpenOnOPAndAdmittanceOnAC(t *testing.T) {
	c := NewCapacitor("C1", []string{"a", "0"}, 1e-6)
	c.SetNodes([]int{1, 0})

	opSink := newFakeSink()
	require.NoError(t, c.Stamp(opSink, &Status{Mode: OP}))
	assert.Empty(t, opSink.real, "capacitor must not stamp on OP")

	acSink := newFakeSink()
	require.NoError(t, c.Stamp(acSink, &Status{Mode: AC, Frequency: 1000}))
	assert.NotZero(t, acSink.imag[[2]int{1, 1}], "capacitor must stamp a susceptance on AC")
}

func TestCapacitorTransientCompanionUsesPriorVoltage(t *testing.T) {
	c := NewCapacitor("C1", []string{"a", "0"}, 1e-6)
	c.SetNodes([]int{1, 0})
	c.voltage0 = 2.0

	sink := newFakeSink()
	require.NoError(t, c.Stamp(sink, &Status{Mode: Transient, TimeStep: 1e-3}))

	g := 1e-6 / 1e-3
	assert.Equal(t, g, sink.real[[2]int{1, 1}])
	assert.Equal(t, g*2.0, sink.rhs[1])
}

func TestInductorIntroducesBranchCurrentAndShortsOnOP(t *testing.T) {
	l := NewInductor("L1", []string{"a", "b"}, 1e-3)
	l.SetNodes([]int{1, 2})
	l.SetBranchRow(3)

	sink := newFakeSink()
	require.NoError(t, l.Stamp(sink, &Status{Mode: OP}))

	assert.Equal(t, 1.0, sink.real[[2]int{1, 3}])
	assert.Equal(t, -1.0, sink.real[[2]int{2, 3}])
	assert.Equal(t, 0.0, sink.rhs[3], "OP short: branch RHS is zero")
}

func TestVoltageSourceStampsBranchConstraint(t *testing.T) {
	v := NewVoltageSource("V1", []string{"a", "0"}, Waveform{Kind: WaveDC, DC: 5})
	v.SetNodes([]int{1, 0})
	v.SetBranchRow(2)

	sink := newFakeSink()
	require.NoError(t, v.Stamp(sink, &Status{Mode: OP}))

	assert.Equal(t, 1.0, sink.real[[2]int{1, 2}])
	assert.Equal(t, 5.0, sink.rhs[2])
}

func TestVoltageSourceSetDCRoundTrips(t *testing.T) {
	v := NewVoltageSource("V1", []string{"a", "0"}, Waveform{Kind: WaveDC, DC: 1})
	v.SetDC(9)
	assert.Equal(t, 9.0, v.DC())
}

func TestDiodeLinearizesAboutTrialVoltage(t *testing.T) {
	d, err := NewDiode("D1", []string{"a", "0"})
	require.NoError(t, err)
	d.SetNodes([]int{1, 0})

	require.NoError(t, d.UpdateVoltages([]float64{0, 0.6}))

	sink := newFakeSink()
	require.NoError(t, d.Stamp(sink, &Status{Mode: OP}))

	// at forward bias the equivalent conductance must be positive and
	// large relative to the reverse-bias conductance near Is
	assert.Greater(t, sink.real[[2]int{1, 1}], d.Is)
}

func TestDiodeClampsExponentOverflow(t *testing.T) {
	d, err := NewDiode("D1", []string{"a", "0"})
	require.NoError(t, err)
	d.SetNodes([]int{1, 0})
	require.NoError(t, d.UpdateVoltages([]float64{0, 100})) // absurd forward bias

	sink := newFakeSink()
	require.NoError(t, d.Stamp(sink, &Status{Mode: OP}))
	assert.False(t, isInfOrNaN(sink.real[[2]int{1, 1}]), "clamped exponent must not overflow to Inf")
}

func isInfOrNaN(v float64) bool {
	return v != v || v > 1e300 || v < -1e300
}

func TestDiodeOnACStampsOnlyComplexConductanceNoRHS(t *testing.T) {
	d, err := NewDiode("D1", []string{"a", "0"})
	require.NoError(t, err)
	d.SetNodes([]int{1, 0})
	require.NoError(t, d.UpdateVoltages([]float64{0, 0.6}))

	sink := newFakeSink()
	require.NoError(t, d.Stamp(sink, &Status{Mode: AC, Frequency: 1000}))

	assert.Greater(t, sink.real[[2]int{1, 1}], 0.0, "AC stamp must carry the frozen conductance")
	assert.Zero(t, sink.imag[[2]int{1, 1}], "a diode's small-signal admittance has no susceptance")
	assert.Empty(t, sink.rhs, "a linearized device must not perturb the AC right-hand side")
	assert.Empty(t, sink.rhsImag, "a linearized device must not perturb the AC right-hand side")
}

func TestMosfetCutoffContributesNothing(t *testing.T) {
	m, err := NewMosfet("M1", []string{"d", "g", "s"}, 2e-5, 0.7, 0)
	require.NoError(t, err)
	m.SetNodes([]int{1, 2, 3})
	require.NoError(t, m.UpdateVoltages([]float64{0, 0, 0, 0})) // vgs=0 < vth

	sink := newFakeSink()
	require.NoError(t, m.Stamp(sink, &Status{Mode: OP}))
	assert.Zero(t, sink.real[[2]int{1, 1}])
	assert.Zero(t, sink.rhs[1])
}

func TestMosfetSaturationProducesPositiveTransconductance(t *testing.T) {
	m, err := NewMosfet("M1", []string{"d", "g", "s"}, 2e-5, 0.7, 0)
	require.NoError(t, err)
	m.SetNodes([]int{1, 2, 3})
	// vgs=2, vds=5: vgst=1.3 < vds, so saturation
	require.NoError(t, m.UpdateVoltages([]float64{0, 5, 2, 0}))

	sink := newFakeSink()
	require.NoError(t, m.Stamp(sink, &Status{Mode: OP}))
	assert.Greater(t, sink.real[[2]int{1, 2}], 0.0, "gm contribution at the drain must be positive")
}

func TestMosfetOnACStampsOnlyComplexAdmittanceNoRHS(t *testing.T) {
	m, err := NewMosfet("M1", []string{"d", "g", "s"}, 2e-5, 0.7, 0)
	require.NoError(t, err)
	m.SetNodes([]int{1, 2, 3})
	require.NoError(t, m.UpdateVoltages([]float64{0, 5, 2, 0})) // saturation, as above

	sink := newFakeSink()
	require.NoError(t, m.Stamp(sink, &Status{Mode: AC, Frequency: 1000}))

	assert.Greater(t, sink.real[[2]int{1, 2}], 0.0, "AC stamp must carry the frozen gm at the drain")
	assert.Zero(t, sink.imag[[2]int{1, 2}], "a MOSFET's small-signal admittance has no susceptance")
	assert.Empty(t, sink.rhs, "a linearized device must not perturb the AC right-hand side")
	assert.Empty(t, sink.rhsImag, "a linearized device must not perturb the AC right-hand side")
}

func TestWaveformSINEvaluatesAtPhase(t *testing.T) {
	w := Waveform{Kind: WaveSIN, DC: 1, Amplitude: 2, Freq: 1, PhaseDeg: 0}
	assert.InDelta(t, 1.0, w.At(0), 1e-9)
}

func TestWaveformPulseRiseFallShape(t *testing.T) {
	w := Waveform{Kind: WavePULSE, V1: 0, V2: 5, Delay: 0, Rise: 1, Fall: 1, Width: 2, Period: 0}
	assert.InDelta(t, 0, w.At(0), 1e-9)
	assert.InDelta(t, 2.5, w.At(0.5), 1e-9) // midway through rise
	assert.InDelta(t, 5, w.At(2), 1e-9)      // inside the plateau
}

func TestWaveformPWLInterpolatesLinearly(t *testing.T) {
	w := Waveform{Kind: WavePWL, Times: []float64{0, 1, 2}, Values: []float64{0, 10, 0}}
	assert.InDelta(t, 5, w.At(0.5), 1e-9)
	assert.InDelta(t, 0, w.At(2), 1e-9)
	assert.InDelta(t, 0, w.At(5), 1e-9, "beyond the last point holds the last value")
}

func TestWaveformACPhasorZeroMagnitudeContributesNothing(t *testing.T) {
	w := Waveform{Kind: WaveDC, DC: 1}
	re, im := w.ACPhasor()
	assert.Zero(t, re)
	assert.Zero(t, im)
}
