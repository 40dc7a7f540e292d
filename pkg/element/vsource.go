package element

import "github.com/kretslab/krets/pkg/mna"

// VoltageSource introduces a branch-current unknown and constrains the
// terminal voltage difference to its waveform value (spec §4.3).
type VoltageSource struct {
	base
	Wave   Waveform
	branch int
}

func NewVoltageSource(id string, nodeNames []string, wave Waveform) *VoltageSource {
	return &VoltageSource{base: newBase(id, nodeNames), Wave: wave}
}

func (v *VoltageSource) Kind() string       { return "V" }
func (v *VoltageSource) SetBranchRow(r int) { v.branch = r }
func (v *VoltageSource) BranchRow() int     { return v.branch }

func (v *VoltageSource) Stamp(sink mna.Sink, status *Status) error {
	n1, n2 := v.nodes[0], v.nodes[1]
	k := v.branch

	if status.Mode == AC {
		real, imag := v.Wave.ACPhasor()
		sink.AddComplexElement(n1, k, 1, 0)
		sink.AddComplexElement(k, n1, 1, 0)
		sink.AddComplexElement(n2, k, -1, 0)
		sink.AddComplexElement(k, n2, -1, 0)
		sink.AddComplexRHS(k, real, imag)
		return nil
	}

	sink.AddElement(n1, k, 1)
	sink.AddElement(k, n1, 1)
	sink.AddElement(n2, k, -1)
	sink.AddElement(k, n2, -1)
	sink.AddRHS(k, v.Wave.At(status.Time))
	return nil
}

// SetDC overrides the DC value, used by DC sweep to warm-start each point
// without re-parsing the netlist.
func (v *VoltageSource) SetDC(value float64) { v.Wave.DC = value }

// DC returns the source's current DC value.
func (v *VoltageSource) DC() float64 { return v.Wave.DC }
