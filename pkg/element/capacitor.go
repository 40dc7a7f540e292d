package element

import (
	"math"

	"github.com/kretslab/krets/pkg/mna"
)

// Capacitor's stamp depends on the analysis mode (spec §4.3): open circuit
// on OP/DC, admittance jωC on AC, backward-Euler companion model g=C/h on
// Transient. Companion-model state (the previous terminal voltage) lives
// in the element itself per the project's convention that elements are
// reused only within a single analysis run.
type Capacitor struct {
	base
	Value    float64 // F
	voltage0 float64 // terminal voltage at the previous accepted time step
}

func NewCapacitor(id string, nodeNames []string, farads float64) *Capacitor {
	return &Capacitor{base: newBase(id, nodeNames), Value: farads}
}

func (c *Capacitor) Kind() string { return "C" }

func (c *Capacitor) Stamp(sink mna.Sink, status *Status) error {
	n1, n2 := c.nodes[0], c.nodes[1]

	switch status.Mode {
	case AC:
		omega := 2 * math.Pi * status.Frequency
		b := omega * c.Value
		sink.AddComplexElement(n1, n1, 0, b)
		sink.AddComplexElement(n1, n2, 0, -b)
		sink.AddComplexElement(n2, n1, 0, -b)
		sink.AddComplexElement(n2, n2, 0, b)

	case Transient:
		h := status.TimeStep
		g := c.Value / h
		ieq := g * c.voltage0

		sink.AddElement(n1, n1, g)
		sink.AddElement(n1, n2, -g)
		sink.AddElement(n2, n1, -g)
		sink.AddElement(n2, n2, g)
		sink.AddRHS(n1, ieq)
		sink.AddRHS(n2, -ieq)

	default:
		// OP / DC sweep: open circuit, no stamps.
	}

	return nil
}

// AdvanceTimeStep records the terminal voltage of the step just accepted,
// so the next step's companion model sources from it.
func (c *Capacitor) AdvanceTimeStep(solution []float64, status *Status) {
	c.voltage0 = rowValue(solution, c.nodes[0]) - rowValue(solution, c.nodes[1])
}

// rowValue reads a solution vector entry, treating ground (row 0) and any
// out-of-range row as 0.
func rowValue(solution []float64, row int) float64 {
	if row <= 0 || row >= len(solution) {
		return 0
	}
	return solution[row]
}
