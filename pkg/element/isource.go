package element

import "github.com/kretslab/krets/pkg/mna"

// CurrentSource injects its waveform value into the RHS at its terminals;
// it never introduces a branch-current unknown (spec §4.3).
type CurrentSource struct {
	base
	Wave Waveform
}

func NewCurrentSource(id string, nodeNames []string, wave Waveform) *CurrentSource {
	return &CurrentSource{base: newBase(id, nodeNames), Wave: wave}
}

func (i *CurrentSource) Kind() string { return "I" }

func (i *CurrentSource) Stamp(sink mna.Sink, status *Status) error {
	n1, n2 := i.nodes[0], i.nodes[1]

	if status.Mode == AC {
		real, imag := i.Wave.ACPhasor()
		sink.AddComplexRHS(n1, -real, -imag)
		sink.AddComplexRHS(n2, real, imag)
		return nil
	}

	value := i.Wave.At(status.Time)
	sink.AddRHS(n1, -value)
	sink.AddRHS(n2, value)
	return nil
}

// SetDC overrides the DC value, used by DC sweep to warm-start each point.
func (i *CurrentSource) SetDC(value float64) { i.Wave.DC = value }

// DC returns the source's current DC value.
func (i *CurrentSource) DC() float64 { return i.Wave.DC }
