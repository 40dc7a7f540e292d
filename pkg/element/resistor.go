package element

import "github.com/kretslab/krets/pkg/mna"

// Resistor stamps a fixed conductance G=1/R between its two terminals
// (spec §4.3, group 1). It never introduces a branch-current unknown.
type Resistor struct {
	base
	Value float64 // Ω
}

func NewResistor(id string, nodeNames []string, ohms float64) *Resistor {
	return &Resistor{base: newBase(id, nodeNames), Value: ohms}
}

func (r *Resistor) Kind() string { return "R" }

func (r *Resistor) Stamp(sink mna.Sink, status *Status) error {
	n1, n2 := r.nodes[0], r.nodes[1]
	g := 1.0 / r.Value

	if status.Mode == AC {
		sink.AddComplexElement(n1, n1, g, 0)
		sink.AddComplexElement(n1, n2, -g, 0)
		sink.AddComplexElement(n2, n1, -g, 0)
		sink.AddComplexElement(n2, n2, g, 0)
		return nil
	}

	sink.AddElement(n1, n1, g)
	sink.AddElement(n1, n2, -g)
	sink.AddElement(n2, n1, -g)
	sink.AddElement(n2, n2, g)
	return nil
}
