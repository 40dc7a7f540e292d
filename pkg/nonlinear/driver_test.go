package nonlinear

import (
	"testing"

	"github.com/kretslab/krets/pkg/element"
)

// fakeLinearSystem converges in exactly one iteration (Run's documented
// degenerate case for a purely linear circuit): Stamp/Solve always return
// the same fixed solution, and UpdateNonlinearVoltages is a no-op.
type fakeLinearSystem struct {
	solution []float64
	stamps   int
}

func (f *fakeLinearSystem) Stamp(status *element.Status) error { f.stamps++; return nil }
func (f *fakeLinearSystem) Solve() error                        { return nil }
func (f *fakeLinearSystem) Solution() []float64                 { return f.solution }
func (f *fakeLinearSystem) UpdateNonlinearVoltages(solution []float64) error { return nil }
func (f *fakeLinearSystem) NumNodes() int                       { return 1 }

func TestLinearSystemConvergesInOneIteration(t *testing.T) {
	sys := &fakeLinearSystem{solution: []float64{0, 5, -0.005}}
	d := New(DefaultTolerances())

	solution, err := d.Run(sys, &element.Status{Mode: element.OP})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sys.stamps != 1 {
		t.Fatalf("stamps: got %d, want 1 for a linear system", sys.stamps)
	}
	if solution[1] != 5 {
		t.Fatalf("solution[1]: got %v, want 5", solution[1])
	}
}

// neverConvergesSystem drifts its solution by a fixed delta every call, so
// the convergence test never passes.
type neverConvergesSystem struct {
	solution []float64
}

func (n *neverConvergesSystem) Stamp(status *element.Status) error { return nil }
func (n *neverConvergesSystem) Solve() error                        { return nil }
func (n *neverConvergesSystem) Solution() []float64 {
	n.solution[1] += 1
	return n.solution
}
func (n *neverConvergesSystem) UpdateNonlinearVoltages(solution []float64) error { return nil }
func (n *neverConvergesSystem) NumNodes() int                                   { return 1 }

func TestRunReportsConvergenceFailureAfterMaxIter(t *testing.T) {
	sys := &neverConvergesSystem{solution: []float64{0, 0}}
	d := New(Tolerances{RelTol: 1e-3, VAbsTol: 1e-6, IAbsTol: 1e-9, MaxIter: 5})

	_, err := d.Run(sys, &element.Status{Mode: element.OP})
	if err == nil {
		t.Fatal("expected a convergence failure")
	}
}

func TestConvergedUsesVAbsTolForNodeRowsAndIAbsTolForBranchRows(t *testing.T) {
	d := New(Tolerances{RelTol: 0, VAbsTol: 1e-3, IAbsTol: 1e-9, MaxIter: 10})

	// row 1 is a node row (within numNodes): a 1e-4 shift is within VAbsTol
	cur := []float64{0, 1.0001, 5}
	prev := []float64{0, 1.0000, 5}
	if !d.converged(cur, prev, 1) {
		t.Fatal("expected convergence: node-row shift is within v_abs_tol")
	}

	// row 2 is a branch row (beyond numNodes): the same absolute shift
	// must fail against the much tighter i_abs_tol
	cur2 := []float64{0, 1.0000, 5.0001}
	prev2 := []float64{0, 1.0000, 5.0000}
	if d.converged(cur2, prev2, 1) {
		t.Fatal("expected non-convergence: branch-row shift exceeds i_abs_tol")
	}
}
