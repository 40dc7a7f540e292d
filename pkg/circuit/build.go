package circuit

import (
	"strconv"
	"strings"

	"github.com/kretslab/krets/internal/consts"
	"github.com/kretslab/krets/pkg/element"
	"github.com/kretslab/krets/pkg/kerrors"
	"github.com/kretslab/krets/pkg/netlist"
)

// newElement constructs the element.Element for one parsed netlist record,
// applying inline key=value overrides for D/M and building the waveform
// descriptor for V/I.
func newElement(e netlist.Element) (element.Element, error) {
	switch e.Kind {
	case "R":
		return element.NewResistor(e.ID, e.Nodes, e.Value), nil
	case "C":
		return element.NewCapacitor(e.ID, e.Nodes, e.Value), nil
	case "L":
		return element.NewInductor(e.ID, e.Nodes, e.Value), nil
	case "V":
		wave, err := buildWaveform(e)
		if err != nil {
			return nil, err
		}
		return element.NewVoltageSource(e.ID, e.Nodes, wave), nil
	case "I":
		wave, err := buildWaveform(e)
		if err != nil {
			return nil, err
		}
		return element.NewCurrentSource(e.ID, e.Nodes, wave), nil
	case "D":
		d, err := element.NewDiode(e.ID, e.Nodes)
		if err != nil {
			return nil, err
		}
		if v, ok := e.Params["is"]; ok {
			d.Is, err = parseFloatParam(e.ID, "Is", v)
			if err != nil {
				return nil, err
			}
		}
		if v, ok := e.Params["n"]; ok {
			d.N, err = parseFloatParam(e.ID, "N", v)
			if err != nil {
				return nil, err
			}
		}
		return d, nil
	case "M":
		beta, vth, lambda := 2e-5, 0.7, consts.DefaultLambda
		var err error
		if v, ok := e.Params["beta"]; ok {
			if beta, err = parseFloatParam(e.ID, "beta", v); err != nil {
				return nil, err
			}
		}
		if v, ok := e.Params["vth"]; ok {
			if vth, err = parseFloatParam(e.ID, "vth", v); err != nil {
				return nil, err
			}
		}
		if v, ok := e.Params["lambda"]; ok {
			if lambda, err = parseFloatParam(e.ID, "lambda", v); err != nil {
				return nil, err
			}
		}
		return element.NewMosfet(e.ID, e.Nodes, beta, vth, lambda)
	case "Q":
		return nil, kerrors.New(kerrors.AssemblyError, nil, "BJT (%s) is not implemented in this build", e.ID)
	default:
		return nil, kerrors.New(kerrors.AssemblyError, nil, "unsupported element kind %q (%s)", e.Kind, e.ID)
	}
}

func parseFloatParam(id, name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, kerrors.New(kerrors.ParseError, err, "%s: invalid %s=%q", id, name, raw)
	}
	return v, nil
}

func buildWaveform(e netlist.Element) (element.Waveform, error) {
	w := element.Waveform{Kind: element.WaveDC, DC: e.Value}

	switch e.Params["type"] {
	case "sin":
		fields := strings.Fields(e.Params["sin"])
		vals, err := parseFloats(e.ID, fields)
		if err != nil {
			return w, err
		}
		if len(vals) < 3 {
			return w, kerrors.New(kerrors.ParseError, nil, "%s: SIN requires offset amplitude freq [phase]", e.ID)
		}
		w.Kind = element.WaveSIN
		w.DC = vals[0]
		w.Amplitude = vals[1]
		w.Freq = vals[2]
		if len(vals) > 3 {
			w.PhaseDeg = vals[3]
		}
	case "pulse":
		fields := strings.Fields(e.Params["pulse"])
		vals, err := parseFloats(e.ID, fields)
		if err != nil {
			return w, err
		}
		if len(vals) < 7 {
			return w, kerrors.New(kerrors.ParseError, nil, "%s: PULSE requires v1 v2 delay rise fall width period", e.ID)
		}
		w.Kind = element.WavePULSE
		w.V1, w.V2, w.Delay, w.Rise, w.Fall, w.Width, w.Period = vals[0], vals[1], vals[2], vals[3], vals[4], vals[5], vals[6]
	case "pwl":
		fields := strings.Fields(e.Params["pwl"])
		vals, err := parseFloats(e.ID, fields)
		if err != nil {
			return w, err
		}
		if len(vals) < 2 || len(vals)%2 != 0 {
			return w, kerrors.New(kerrors.ParseError, nil, "%s: PWL requires time/value pairs", e.ID)
		}
		w.Kind = element.WavePWL
		for i := 0; i < len(vals); i += 2 {
			w.Times = append(w.Times, vals[i])
			w.Values = append(w.Values, vals[i+1])
		}
	}

	if magStr, ok := e.Params["ac_mag"]; ok {
		mag, err := parseFloatParam(e.ID, "AC magnitude", magStr)
		if err != nil {
			return w, err
		}
		w.ACMag = mag
		if phaseStr, ok := e.Params["ac_phase"]; ok {
			phase, err := parseFloatParam(e.ID, "AC phase", phaseStr)
			if err != nil {
				return w, err
			}
			w.ACPhase = phase
		}
	}

	return w, nil
}

func parseFloats(id string, fields []string) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := netlist.ParseValue(f)
		if err != nil {
			return nil, kerrors.New(kerrors.ParseError, err, "%s: %v", id, err)
		}
		vals[i] = v
	}
	return vals, nil
}
