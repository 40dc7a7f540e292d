// Package mna implements the linear-solver adapter of spec §4.4: it wraps
// github.com/edp1096/sparse's LU factor-and-solve over a real or complex
// square matrix behind the Sink contribution interface the stampers use.
package mna

import (
	"fmt"

	"github.com/edp1096/sparse"

	"github.com/kretslab/krets/pkg/kerrors"
)

// System is the assembled MNA linear system: a square matrix A of size N,
// a right-hand side b, and (when Complex) their imaginary counterparts.
// It is owned by a single analysis for the lifetime of one assembly/solve
// cycle and is re-zeroed (Clear) between Newton iterations or sweep points.
type System struct {
	Size      int
	Complex   bool
	matrix    *sparse.Matrix
	rhs       []float64
	rhsImag   []float64
	solution  []float64
	solImag   []float64
	config    *sparse.Configuration
}

// New allocates an N x N MNA system. isComplex selects AC (complex A, b)
// versus OP/DC/Transient (real A, b) per spec §3.
func New(size int, isComplex bool) (*System, error) {
	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 isComplex,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	m, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}

	vecSize := size + 1 // 1-based indexing
	vecSizeImag := size + 1
	if isComplex {
		vecSize *= 2
		vecSizeImag = 1
	}

	return &System{
		Size:     size,
		Complex:  isComplex,
		matrix:   m,
		rhs:      make([]float64, vecSize),
		rhsImag:  make([]float64, vecSizeImag),
		solution: make([]float64, vecSize),
		solImag:  make([]float64, vecSizeImag),
		config:   config,
	}, nil
}

// Preallocate touches every (i,j) entry once so later stamping never
// triggers sparse-pattern growth mid-analysis.
func (s *System) Preallocate() {
	for i := 1; i <= s.Size; i++ {
		for j := 1; j <= s.Size; j++ {
			s.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (s *System) AddElement(i, j int, value float64) {
	if i <= 0 || j <= 0 || i > s.Size || j > s.Size {
		return // ground row/column: contribution dropped per spec §3
	}
	s.matrix.GetElement(int64(i), int64(j)).Real += value
}

func (s *System) AddComplexElement(i, j int, real, imag float64) {
	if i <= 0 || j <= 0 || i > s.Size || j > s.Size {
		return
	}
	e := s.matrix.GetElement(int64(i), int64(j))
	e.Real += real
	e.Imag += imag
}

func (s *System) AddRHS(i int, value float64) {
	if i <= 0 || i > s.Size {
		return
	}
	s.rhs[i] += value
}

func (s *System) AddComplexRHS(i int, real, imag float64) {
	if i <= 0 || i > s.Size {
		return
	}
	s.rhs[2*i] += real
	s.rhs[2*i+1] += imag
}

// LoadGmin adds a minimum conductance to every diagonal entry, branch-current
// rows included, a standard Newton-Raphson convergence aid (spec §9).
func (s *System) LoadGmin(gmin float64) {
	for i := 1; i <= s.Size; i++ {
		if d := s.diag(i); d != nil {
			d.Real += gmin
		}
	}
}

func (s *System) diag(i int) *sparse.Element {
	if i <= 0 || i > s.Size {
		return nil
	}
	return s.matrix.Diags[i]
}

// Clear zeroes A and b before the next (re)assembly, per spec §3's stamping
// convention.
func (s *System) Clear() {
	s.matrix.Clear()
	for i := range s.rhs {
		s.rhs[i] = 0
	}
	for i := range s.rhsImag {
		s.rhsImag[i] = 0
	}
}

// Solve factors A and solves Ax=b, reporting kerrors.SingularMatrix if the
// factorization fails.
func (s *System) Solve() error {
	if err := s.matrix.Factor(); err != nil {
		return kerrors.New(kerrors.SingularMatrix, err, "matrix factorization failed")
	}

	var err error
	if s.Complex {
		s.solution, s.solImag, err = s.matrix.SolveComplex(s.rhs, s.rhsImag)
	} else {
		s.solution, err = s.matrix.Solve(s.rhs)
	}
	if err != nil {
		return kerrors.New(kerrors.SingularMatrix, err, "matrix solve failed")
	}
	return nil
}

// RHS returns the right-hand side vector as currently assembled.
func (s *System) RHS() []float64 { return s.rhs }

// Solution returns the real solution vector (1-based; index 0 unused).
func (s *System) Solution() []float64 { return s.solution }

// ComplexAt returns the real and imaginary parts of solution row i.
func (s *System) ComplexAt(i int) (float64, float64) {
	if !s.Complex || i <= 0 || i > s.Size {
		return 0, 0
	}
	return s.solution[i], s.solution[i+s.Size]
}

// Destroy releases the underlying sparse matrix.
func (s *System) Destroy() {
	if s.matrix != nil {
		s.matrix.Destroy()
	}
}
