// Package result implements the ordered Result mapping of spec §4.7:
// variable label -> numeric sequence, plus a parallel sweep axis (time,
// frequency, or DC sweep value) under a reserved key.
package result

// Axis names the reserved sweep-axis key for each analysis kind.
const (
	AxisTime  = "time"
	AxisFreq  = "freq"
	AxisSweep = "sweep"
)

// Result holds append-only per-variable sequences, real or complex,
// indexed by sweep point. Labels preserve the indexer's row order exactly
// (spec §8 property 4).
type Result struct {
	Labels  []string
	Axis    string
	Axis2   string // non-empty only for a nested DC sweep's outer axis
	Real    map[string][]float64
	Imag    map[string][]float64 // non-nil only when the analysis is AC
	Complex bool

	axisValues  []float64
	axis2Values []float64
}

// New creates an empty Result with one real (or complex) sequence per
// label, plus the named sweep axis.
func New(labels []string, axis string, isComplex bool) *Result {
	r := &Result{Labels: labels, Axis: axis, Real: make(map[string][]float64), Complex: isComplex}
	for _, l := range labels {
		r.Real[l] = nil
	}
	if isComplex {
		r.Imag = make(map[string][]float64)
		for _, l := range labels {
			r.Imag[l] = nil
		}
	}
	return r
}

// AppendAxis records one sweep-point value (time / frequency / DC value).
func (r *Result) AppendAxis(v float64) { r.axisValues = append(r.axisValues, v) }

// AxisValues returns the recorded sweep axis.
func (r *Result) AxisValues() []float64 { return r.axisValues }

// AppendAxis2 records one outer-sweep-point value, for a nested DC sweep.
func (r *Result) AppendAxis2(v float64) { r.axis2Values = append(r.axis2Values, v) }

// Axis2Values returns the recorded outer sweep axis (nested DC sweep only).
func (r *Result) Axis2Values() []float64 { return r.axis2Values }

// AppendReal records a real solution vector as one point for every label.
// r.Labels is already in row order (1..N), so label i reads solution[i+1].
func (r *Result) AppendReal(solution []float64) {
	for i, l := range r.Labels {
		row := i + 1
		v := 0.0
		if row < len(solution) {
			v = solution[row]
		}
		r.Real[l] = append(r.Real[l], v)
	}
}

// AppendComplex records a complex solution, fetched per row via atRow, as
// one point for every label.
func (r *Result) AppendComplex(atRow func(row int) (float64, float64)) {
	for i, l := range r.Labels {
		re, im := atRow(i + 1)
		r.Real[l] = append(r.Real[l], re)
		r.Imag[l] = append(r.Imag[l], im)
	}
}

// Len returns the number of recorded sweep points.
func (r *Result) Len() int { return len(r.axisValues) }
