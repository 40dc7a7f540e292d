package element

import (
	"math"

	"github.com/kretslab/krets/pkg/mna"
)

// Inductor always introduces a branch-current unknown (spec §4.3): short
// circuit on OP/DC, impedance jωL on AC, backward-Euler companion model
// g=L/h on Transient.
type Inductor struct {
	base
	Value    float64 // H
	branch   int
	current0 float64 // branch current at the previous accepted time step
}

func NewInductor(id string, nodeNames []string, henries float64) *Inductor {
	return &Inductor{base: newBase(id, nodeNames), Value: henries}
}

func (l *Inductor) Kind() string      { return "L" }
func (l *Inductor) SetBranchRow(r int) { l.branch = r }
func (l *Inductor) BranchRow() int     { return l.branch }

func (l *Inductor) Stamp(sink mna.Sink, status *Status) error {
	n1, n2 := l.nodes[0], l.nodes[1]
	k := l.branch

	switch status.Mode {
	case AC:
		omega := 2 * math.Pi * status.Frequency
		sink.AddComplexElement(n1, k, 1, 0)
		sink.AddComplexElement(k, n1, 1, 0)
		sink.AddComplexElement(n2, k, -1, 0)
		sink.AddComplexElement(k, n2, -1, 0)
		sink.AddComplexElement(k, k, 0, -omega*l.Value)

	case Transient:
		h := status.TimeStep
		sink.AddElement(n1, k, 1)
		sink.AddElement(n2, k, -1)
		sink.AddElement(k, n1, 1)
		sink.AddElement(k, n2, -1)
		sink.AddElement(k, k, -l.Value/h)
		sink.AddRHS(k, -l.Value*l.current0/h)

	default:
		// OP / DC sweep: short circuit via a zero-value voltage source.
		sink.AddElement(n1, k, 1)
		sink.AddElement(k, n1, 1)
		sink.AddElement(n2, k, -1)
		sink.AddElement(k, n2, -1)
		sink.AddRHS(k, 0)
	}

	return nil
}

// AdvanceTimeStep records the branch current of the step just accepted.
func (l *Inductor) AdvanceTimeStep(solution []float64, status *Status) {
	l.current0 = rowValue(solution, l.branch)
}
