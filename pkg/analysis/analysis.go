// Package analysis implements the four engines of spec §4.6 (Operating
// Point, DC sweep, AC small-signal, Transient). Each orchestrates a
// circuit.Circuit and a nonlinear.Driver to produce a result.Result; none
// of them know how a device stamps itself, only when to ask it to.
package analysis

import (
	"github.com/kretslab/krets/internal/consts"
	"github.com/kretslab/krets/pkg/circuit"
	"github.com/kretslab/krets/pkg/element"
	"github.com/kretslab/krets/pkg/kerrors"
	"github.com/kretslab/krets/pkg/nonlinear"
)

// sourceSetter is the subset of circuit.Circuit's source devices that DC
// sweep and source-stepping need: read/write the DC operating value.
type sourceSetter interface {
	SetDC(value float64)
	DC() float64
}

func findSetter(c *circuit.Circuit, id string) (sourceSetter, error) {
	dev := c.FindSource(id)
	if dev == nil {
		return nil, kerrors.New(kerrors.ConfigError, nil, "sweep source %q not found in circuit", id)
	}
	s, ok := dev.(sourceSetter)
	if !ok {
		return nil, kerrors.New(kerrors.ConfigError, nil, "sweep source %q is not an independent source", id)
	}
	return s, nil
}

func baseStatus(mode element.Mode) *element.Status {
	return &element.Status{Mode: mode, Temp: consts.RoomTemp}
}

// driverOrDefault returns driver, or a new Driver with default tolerances
// if driver is nil.
func driverOrDefault(driver *nonlinear.Driver) *nonlinear.Driver {
	if driver != nil {
		return driver
	}
	return nonlinear.New(nonlinear.DefaultTolerances())
}
