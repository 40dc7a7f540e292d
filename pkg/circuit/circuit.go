// Package circuit assembles a parsed netlist into a stampable system: it
// owns the variable index, the device list, and the MNA matrix for the
// lifetime of a single analysis run (spec §5 — each analysis constructs
// its own matrices and state, released when the analysis returns).
package circuit

import (
	"github.com/kretslab/krets/pkg/element"
	"github.com/kretslab/krets/pkg/index"
	"github.com/kretslab/krets/pkg/kerrors"
	"github.com/kretslab/krets/pkg/mna"
	"github.com/kretslab/krets/pkg/netlist"
)

// Circuit ties together the variable index, the device list, and the MNA
// system for one analysis.
type Circuit struct {
	Index    *index.Index
	Elements []element.Element
	System   *mna.System

	nonlinear []element.NonLinear
	stateful  []element.TimeState
}

// Build assembles a Circuit from a parsed netlist for the given analysis
// mode (complex systems are allocated only for AC).
func Build(parsed *netlist.Circuit, isComplex bool) (*Circuit, error) {
	elems := make([]element.Element, 0, len(parsed.Elements))
	for _, e := range parsed.Elements {
		dev, err := newElement(e)
		if err != nil {
			return nil, err
		}
		elems = append(elems, dev)
	}

	ix := index.New()
	for _, e := range parsed.Elements {
		for _, n := range e.Nodes {
			ix.ObserveNode(n)
		}
	}
	for i, dev := range elems {
		if _, ok := dev.(element.BranchHolder); ok {
			ix.ObserveBranch(parsed.Elements[i].ID)
		}
	}
	ix.Freeze()

	for i, dev := range elems {
		nodeNames := parsed.Elements[i].Nodes
		rows := make([]int, len(nodeNames))
		for j, n := range nodeNames {
			row, err := ix.MustNodeRow(n)
			if err != nil {
				return nil, err
			}
			rows[j] = row
		}
		dev.SetNodes(rows)

		if bh, ok := dev.(element.BranchHolder); ok {
			row, ok := ix.BranchRow(parsed.Elements[i].ID)
			if !ok {
				return nil, kerrors.New(kerrors.AssemblyError, nil, "no branch row assigned for %s", parsed.Elements[i].ID)
			}
			bh.SetBranchRow(row)
		}
	}

	sys, err := mna.New(ix.Size(), isComplex)
	if err != nil {
		return nil, err
	}
	sys.Preallocate()

	c := &Circuit{Index: ix, Elements: elems, System: sys}
	for _, dev := range elems {
		if nl, ok := dev.(element.NonLinear); ok {
			c.nonlinear = append(c.nonlinear, nl)
		}
		if ts, ok := dev.(element.TimeState); ok {
			c.stateful = append(c.stateful, ts)
		}
	}

	return c, nil
}

// Stamp clears the system and re-stamps every device, as required before
// each linear solve (every Newton iteration, every sweep/time point).
func (c *Circuit) Stamp(status *element.Status) error {
	c.System.Clear()
	if status.Gmin > 0 {
		c.System.LoadGmin(status.Gmin)
	}
	for _, dev := range c.Elements {
		if err := dev.Stamp(c.System, status); err != nil {
			return err
		}
	}
	return nil
}

// UpdateNonlinearVoltages re-linearizes every nonlinear device about the
// given solution, ahead of the next Stamp call.
func (c *Circuit) UpdateNonlinearVoltages(solution []float64) error {
	for _, nl := range c.nonlinear {
		if err := nl.UpdateVoltages(solution); err != nil {
			return err
		}
	}
	return nil
}

// AdvanceTimeStep commits the companion-model state of every time-dependent
// device (capacitors, inductors) after a transient step is accepted.
func (c *Circuit) AdvanceTimeStep(solution []float64, status *element.Status) {
	for _, ts := range c.stateful {
		ts.AdvanceTimeStep(solution, status)
	}
}

// FindSource returns the element with the given id, or nil if there is
// none; DC sweep uses it to look up the swept source.
func (c *Circuit) FindSource(id string) element.Element {
	for _, dev := range c.Elements {
		if dev.ID() == id {
			return dev
		}
	}
	return nil
}

// Solve factors and solves the currently stamped system.
func (c *Circuit) Solve() error { return c.System.Solve() }

// Solution returns the last solved solution vector.
func (c *Circuit) Solution() []float64 { return c.System.Solution() }

// ComplexAt returns the real and imaginary parts of solution row i, valid
// only after an AC solve.
func (c *Circuit) ComplexAt(i int) (float64, float64) { return c.System.ComplexAt(i) }

// NumNodes returns the count of node (non-branch) rows, the boundary the
// nonlinear driver's convergence test uses to pick v_abs_tol vs i_abs_tol.
func (c *Circuit) NumNodes() int { return len(c.Index.Nodes()) }

type sourceSetter interface {
	SetDC(value float64)
	DC() float64
}

// Scale implements nonlinear.SourceRamp: it scales every independent
// source's DC value by factor and returns a closure that restores the
// original values.
func (c *Circuit) Scale(factor float64) func() {
	type saved struct {
		dev   sourceSetter
		value float64
	}
	var originals []saved

	for _, dev := range c.Elements {
		if s, ok := dev.(sourceSetter); ok {
			orig := s.DC()
			originals = append(originals, saved{s, orig})
			s.SetDC(orig * factor)
		}
	}

	return func() {
		for _, o := range originals {
			o.dev.SetDC(o.value)
		}
	}
}

// Destroy releases the underlying matrix.
func (c *Circuit) Destroy() {
	if c.System != nil {
		c.System.Destroy()
	}
}
