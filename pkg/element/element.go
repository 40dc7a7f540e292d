// Package element implements the closed device variant set of §4.1: each
// device type knows its terminal count, its extra branch-current unknowns
// (if any), and how to stamp itself into an mna.Sink for a given analysis
// mode. The set of kinds is closed (pkg/circuit constructs only these);
// stamping dispatches through the Element interface, not a tagged-variant
// table.
package element

import "github.com/kretslab/krets/pkg/mna"

// Mode selects which analysis is currently stamping; several devices stamp
// differently per mode (capacitors open on OP/DC, admittances on AC,
// companion models on Transient).
type Mode int

const (
	OP Mode = iota
	DCSweep
	AC
	Transient
)

// Status carries the per-evaluation context a stamp needs beyond its own
// parameters: the analysis mode, the transient step size, the AC frequency
// in Hz, the current simulation time, and the Newton minimum-conductance
// aid. It is rebuilt by the analysis engine for every stamp pass.
type Status struct {
	Mode      Mode
	Time      float64
	TimeStep  float64
	Frequency float64 // Hz; devices compute ω = 2π·Frequency where needed
	Gmin      float64
	Temp      float64 // Kelvin
}

// Element is the capability every device variant implements.
type Element interface {
	ID() string
	Kind() string
	Nodes() []int
	SetNodes(nodes []int)
	Stamp(sink mna.Sink, status *Status) error
}

// BranchHolder is implemented by elements that introduce an extra
// branch-current unknown (voltage sources, inductors): the assembler
// assigns it a row after indexing and hands it back here.
type BranchHolder interface {
	SetBranchRow(row int)
	BranchRow() int
}

// NonLinear is implemented by elements that must be linearized about the
// current solution guess each Newton iteration.
type NonLinear interface {
	UpdateVoltages(solution []float64) error
}

// TimeState is implemented by elements carrying companion-model state
// across transient time steps (capacitors, inductors). State lives in the
// element instance itself, indexed implicitly by element identity —
// analyses keep one Element slice per run and never share it across runs.
type TimeState interface {
	AdvanceTimeStep(solution []float64, status *Status)
}

// base holds the fields common to every device: identifier, ordered node
// row indices (0 = ground), and the original node labels for diagnostics.
type base struct {
	id        string
	nodeNames []string
	nodes     []int
}

func newBase(id string, nodeNames []string) base {
	return base{id: id, nodeNames: nodeNames, nodes: make([]int, len(nodeNames))}
}

func (b *base) ID() string          { return b.id }
func (b *base) Nodes() []int        { return b.nodes }
func (b *base) SetNodes(n []int)    { b.nodes = n }
func (b *base) NodeNames() []string { return b.nodeNames }
