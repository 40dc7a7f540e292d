package analysis

import (
	"github.com/kretslab/krets/pkg/circuit"
	"github.com/kretslab/krets/pkg/element"
	"github.com/kretslab/krets/pkg/nonlinear"
	"github.com/kretslab/krets/pkg/result"
)

// RunOP computes the operating point: a single Newton-Raphson solve with
// capacitors open and inductors shorted (spec §4.6). It returns both the
// Result (one point, sweep axis pinned at 0) and the raw solution vector,
// which AC reuses as its bias point.
func RunOP(c *circuit.Circuit, driver *nonlinear.Driver) (*result.Result, []float64, error) {
	driver = driverOrDefault(driver)
	status := baseStatus(element.OP)

	solution, err := driver.RunWithAids(c, status, c)
	if err != nil {
		return nil, nil, err
	}

	res := result.New(c.Index.Labels(), result.AxisSweep, false)
	res.AppendAxis(0)
	res.AppendReal(solution)
	return res, solution, nil
}
