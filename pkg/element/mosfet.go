package element

import (
	"github.com/kretslab/krets/pkg/kerrors"
	"github.com/kretslab/krets/pkg/mna"
)

// Mosfet is the 3-terminal (drain, gate, source) n-channel Level-1
// Shockley model of spec §4.3: cutoff / linear / saturation regions,
// parameterized directly by β, V_th, λ rather than the teacher's full
// geometry+process parameter set.
type Mosfet struct {
	base
	Beta   float64 // transconductance parameter, A/V²
	Vth    float64 // threshold voltage, V
	Lambda float64 // channel-length modulation, 1/V (0 disables it)

	vgs, vds float64
}

// NewMosfet checks the terminal count and stores β, V_th and λ as given;
// it applies no defaults (pkg/circuit supplies them, λ=0 included, when the
// netlist omits a parameter).
func NewMosfet(id string, nodeNames []string, beta, vth, lambda float64) (*Mosfet, error) {
	if len(nodeNames) != 3 {
		return nil, kerrors.New(kerrors.ParseError, nil, "mosfet %s: requires exactly 3 nodes (drain, gate, source)", id)
	}
	return &Mosfet{base: newBase(id, nodeNames), Beta: beta, Vth: vth, Lambda: lambda}, nil
}

func (m *Mosfet) Kind() string { return "M" }

func (m *Mosfet) UpdateVoltages(solution []float64) error {
	d, g, s := m.nodes[0], m.nodes[1], m.nodes[2]
	m.vgs = rowValue(solution, g) - rowValue(solution, s)
	m.vds = rowValue(solution, d) - rowValue(solution, s)
	return nil
}

// current returns (id, gds, gm) for the current (vgs, vds) operating point.
func (m *Mosfet) current() (id, gds, gm float64) {
	vgst := m.vgs - m.Vth
	if vgst <= 0 {
		return 0, 0, 0
	}

	if m.vds < vgst {
		// Linear (triode) region.
		id = m.Beta * (vgst*m.vds - 0.5*m.vds*m.vds) * (1 + m.Lambda*m.vds)
		gm = m.Beta * m.vds * (1 + m.Lambda*m.vds)
		gds = m.Beta*(vgst-m.vds)*(1+m.Lambda*m.vds) + m.Beta*m.Lambda*(vgst*m.vds-0.5*m.vds*m.vds)
		return
	}

	// Saturation region.
	id = 0.5 * m.Beta * vgst * vgst * (1 + m.Lambda*m.vds)
	gm = m.Beta * vgst * (1 + m.Lambda*m.vds)
	gds = 0.5 * m.Beta * vgst * vgst * m.Lambda
	return
}

func (m *Mosfet) Stamp(sink mna.Sink, status *Status) error {
	d, g, s := m.nodes[0], m.nodes[1], m.nodes[2]

	id, gds, gm := m.current()

	if status.Mode == AC {
		// Small-signal: only the frozen gds/gm admittances about the bias
		// point enter the complex system. No RHS contribution.
		sink.AddComplexElement(d, d, gds, 0)
		sink.AddComplexElement(d, s, -gds-gm, 0)
		sink.AddComplexElement(d, g, gm, 0)

		sink.AddComplexElement(s, d, -gds, 0)
		sink.AddComplexElement(s, s, gds+gm, 0)
		sink.AddComplexElement(s, g, -gm, 0)
		return nil
	}

	ieq := id - gds*m.vds - gm*m.vgs

	sink.AddElement(d, d, gds)
	sink.AddElement(d, s, -gds-gm)
	sink.AddElement(d, g, gm)
	sink.AddRHS(d, -ieq)

	sink.AddElement(s, d, -gds)
	sink.AddElement(s, s, gds+gm)
	sink.AddElement(s, g, -gm)
	sink.AddRHS(s, ieq)

	return nil
}
