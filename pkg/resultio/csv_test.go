package resultio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kretslab/krets/pkg/result"
)

func TestWriteRealSweepProducesOneColumnPerVariablePlusAxis(t *testing.T) {
	res := result.New([]string{"V(a)", "V(b)"}, result.AxisSweep, false)
	res.AppendAxis(0)
	res.AppendReal([]float64{0, 1, 2})
	res.AppendAxis(1)
	res.AppendReal([]float64{0, 3, 4})

	var buf strings.Builder
	require.NoError(t, Write(&buf, res))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3) // header + 2 rows
	assert.Equal(t, "sweep,V(a),V(b)", lines[0])
	assert.Equal(t, "0,1,2", lines[1])
	assert.Equal(t, "1,3,4", lines[2])
}

func TestWriteComplexResultEmitsReImColumnPairs(t *testing.T) {
	res := result.New([]string{"V(out)"}, result.AxisFreq, true)
	res.AppendAxis(1000)
	res.AppendComplex(func(row int) (float64, float64) { return 0.5, -0.5 })

	var buf strings.Builder
	require.NoError(t, Write(&buf, res))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "freq,V(out)_re,V(out)_im", lines[0])
	assert.Equal(t, "1000,0.5,-0.5", lines[1])
}

func TestWriteNestedSweepEmitsTwoAxisColumns(t *testing.T) {
	res := result.New([]string{"V(a)"}, result.AxisSweep, false)
	res.Axis2 = result.AxisSweep
	res.AppendAxis2(1)
	res.AppendAxis(0)
	res.AppendReal([]float64{0, 10})

	var buf strings.Builder
	require.NoError(t, Write(&buf, res))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "sweep,sweep,V(a)", lines[0])
	assert.Equal(t, "1,0,10", lines[1])
}
