package mna

// Sink is the per-device stamping target: additive accumulation into the
// system matrix A and right-hand side b, using 1-based row/column indices.
// Row/column 0 is ground: devices pass it through as given, and a Sink
// drops any contribution that targets it.
type Sink interface {
	AddElement(i, j int, value float64)
	AddRHS(i int, value float64)
	AddComplexElement(i, j int, real, imag float64)
	AddComplexRHS(i int, real, imag float64)
}
