package element

import (
	"math"

	"github.com/kretslab/krets/internal/consts"
	"github.com/kretslab/krets/pkg/kerrors"
	"github.com/kretslab/krets/pkg/mna"
)

// Diode is the one nonlinear two-terminal device (spec §4.3): linearized
// about the trial voltage each Newton iteration via conductance G_eq and
// equivalent current I_eq.
type Diode struct {
	base
	Is float64 // saturation current, A
	N  float64 // ideality factor
	Vt float64 // thermal voltage, V (kT/q at the simulation temperature)

	vd float64 // trial voltage from the last UpdateVoltages call
}

// NewDiode applies the spec defaults: Is=1e-12 A, N=1, Vt≈0.02585 V (300K).
func NewDiode(id string, nodeNames []string) (*Diode, error) {
	if len(nodeNames) != 2 {
		return nil, kerrors.New(kerrors.ParseError, nil, "diode %s: requires exactly 2 nodes", id)
	}
	return &Diode{
		base: newBase(id, nodeNames),
		Is:   consts.DefaultIs,
		N:    consts.DefaultN,
		Vt:   consts.ThermalVoltage(consts.RoomTemp),
	}, nil
}

func (d *Diode) Kind() string { return "D" }

func (d *Diode) UpdateVoltages(solution []float64) error {
	d.vd = rowValue(solution, d.nodes[0]) - rowValue(solution, d.nodes[1])
	return nil
}

func (d *Diode) Stamp(sink mna.Sink, status *Status) error {
	n1, n2 := d.nodes[0], d.nodes[1]

	expArg := d.vd / (d.N * d.Vt)
	if expArg > 80 {
		expArg = 80 // exp(80) already dwarfs any physical current; clamp to avoid overflow
	}
	ev := math.Exp(expArg)

	geq := (d.Is / (d.N * d.Vt)) * ev
	if status.Gmin > 0 {
		geq += status.Gmin
	}

	if status.Mode == AC {
		// Small-signal: only the frozen conductance about the bias point
		// enters the complex system. No RHS contribution — AC sources are
		// the only thing that belongs there.
		sink.AddComplexElement(n1, n1, geq, 0)
		sink.AddComplexElement(n1, n2, -geq, 0)
		sink.AddComplexElement(n2, n1, -geq, 0)
		sink.AddComplexElement(n2, n2, geq, 0)
		return nil
	}

	id := d.Is * (ev - 1)
	ieq := id - geq*d.vd

	sink.AddElement(n1, n1, geq)
	sink.AddElement(n1, n2, -geq)
	sink.AddElement(n2, n1, -geq)
	sink.AddElement(n2, n2, geq)
	sink.AddRHS(n1, -ieq)
	sink.AddRHS(n2, ieq)
	return nil
}
