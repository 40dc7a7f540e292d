// Package resultio serializes a result.Result as CSV (spec §6: "Results
// are emitted to stdout as CSV ... or to a file if configured"), one
// column per variable plus the sweep axis. The result serializer is an
// external collaborator to the core engine per spec §1; this is that
// collaborator, built on the standard library's encoding/csv rather than
// a third-party table/serialization library, since no example repo in the
// retrieval pack pulls one in for this kind of flat numeric export.
package resultio

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/kretslab/krets/pkg/result"
)

// Write renders res as CSV to w: a header row of column names, then one
// row per recorded sweep point. Complex results (AC) emit two columns per
// label, "<label>_re" and "<label>_im".
func Write(w io.Writer, res *result.Result) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{res.Axis}
	nested := len(res.Axis2Values()) > 0
	if nested {
		header = []string{res.Axis2, res.Axis}
	}
	for _, l := range res.Labels {
		if res.Complex {
			header = append(header, l+"_re", l+"_im")
		} else {
			header = append(header, l)
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	axis := res.AxisValues()
	axis2 := res.Axis2Values()

	for i := range axis {
		row := []string{formatFloat(axis[i])}
		if nested {
			row = []string{formatFloat(axis2[i]), formatFloat(axis[i])}
		}
		for _, l := range res.Labels {
			row = append(row, formatFloat(res.Real[l][i]))
			if res.Complex {
				row = append(row, formatFloat(res.Imag[l][i]))
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.10g", v)
}
