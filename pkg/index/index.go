// Package index assigns the unknowns of the modified nodal system: one row
// per non-ground node, plus one extra row per voltage source and inductor
// (the "branch current" unknowns of group 2). It is built in two passes so
// that every node row is numbered before any branch row, per spec §3.
package index

import "github.com/kretslab/krets/pkg/kerrors"

// Ground is the reserved label for the reference node; it is never
// assigned a row and always resolves to index 0.
const Ground = "0"

// isGround reports whether a netlist node label names the reference node.
func isGround(label string) bool {
	return label == Ground
}

// Index maps node and branch labels to 1-based matrix rows. Rows are
// frozen once Freeze is called; earlier calls build up the label set by
// observing netlist elements in declaration order.
type Index struct {
	nodeRow   map[string]int
	branchRow map[string]int
	nodeOrder []string
	branchOrder []string
	frozen    bool
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		nodeRow:   make(map[string]int),
		branchRow: make(map[string]int),
	}
}

// ObserveNode registers a node label if not already known. Ground labels
// are accepted and silently ignored: they never consume a row, so the
// ground label is transparent to indexing, per spec §8 property 3.
func (ix *Index) ObserveNode(label string) {
	if ix.frozen {
		return
	}
	if isGround(label) {
		return
	}
	if _, ok := ix.nodeRow[label]; ok {
		return
	}
	ix.nodeRow[label] = len(ix.nodeOrder) + 1
	ix.nodeOrder = append(ix.nodeOrder, label)
}

// ObserveBranch registers an extra branch-current unknown for a voltage
// source or inductor id. Branch rows are numbered after all node rows,
// regardless of declaration order relative to nodes, since node numbering
// must complete in pass one before branch numbering begins in pass two.
func (ix *Index) ObserveBranch(id string) {
	if ix.frozen {
		return
	}
	if _, ok := ix.branchRow[id]; ok {
		return
	}
	ix.branchRow[id] = 0 // placeholder; assigned in Freeze
	ix.branchOrder = append(ix.branchOrder, id)
}

// Freeze finalizes branch row numbers (node rows are already final after
// ObserveNode) and prevents further observation. It must be called once,
// after every element has been observed, and before any Row/Label lookup.
func (ix *Index) Freeze() {
	if ix.frozen {
		return
	}
	start := len(ix.nodeOrder) + 1
	for i, id := range ix.branchOrder {
		ix.branchRow[id] = start + i
	}
	ix.frozen = true
}

// Size returns the total unknown count: node rows plus branch rows.
func (ix *Index) Size() int {
	return len(ix.nodeOrder) + len(ix.branchOrder)
}

// NodeRow returns the 1-based row for a node label, or 0 for ground.
// ok is false only if label was never observed.
func (ix *Index) NodeRow(label string) (row int, ok bool) {
	if isGround(label) {
		return 0, true
	}
	row, ok = ix.nodeRow[label]
	return
}

// MustNodeRow is NodeRow without the ok return, for call sites that have
// already validated the label during assembly; it reports an AssemblyError
// if the label is unknown.
func (ix *Index) MustNodeRow(label string) (int, error) {
	row, ok := ix.NodeRow(label)
	if !ok {
		return 0, kerrors.New(kerrors.AssemblyError, nil, "unknown node %q", label)
	}
	return row, nil
}

// BranchRow returns the 1-based row for a voltage-source/inductor branch id.
func (ix *Index) BranchRow(id string) (row int, ok bool) {
	row, ok = ix.branchRow[id]
	return
}

// Labels returns the ordered variable labels ("V(n1)", "V(n2)", ...,
// "I(v1)", "I(l1)", ...), matching the row order of the solution vector.
// The ordering is stable across repeated assembly of the same netlist, per
// spec §8 property 4.
func (ix *Index) Labels() []string {
	labels := make([]string, 0, ix.Size())
	for _, n := range ix.nodeOrder {
		labels = append(labels, "V("+n+")")
	}
	for _, b := range ix.branchOrder {
		labels = append(labels, "I("+b+")")
	}
	return labels
}

// Nodes returns the node labels in assigned-row order (1-based, index 0
// is node "a" at row 1, etc.).
func (ix *Index) Nodes() []string { return ix.nodeOrder }

// Branches returns the branch ids in assigned-row order.
func (ix *Index) Branches() []string { return ix.branchOrder }
