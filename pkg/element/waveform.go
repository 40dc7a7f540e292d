package element

import "math"

// WaveKind selects the time-domain waveform an independent source follows;
// only DC carries through to AC analysis (spec §6's `Vxxx ... [AC mag
// [phase]]` grammar is a separate, optional tag on top of any waveform).
type WaveKind int

const (
	WaveDC WaveKind = iota
	WaveSIN
	WavePULSE
	WavePWL
)

// Waveform evaluates an independent source's value at a given transient
// time, and separately carries the AC small-signal phasor used only when
// status.Mode == AC.
type Waveform struct {
	Kind WaveKind

	DC float64

	// SIN
	Amplitude float64
	Freq      float64
	PhaseDeg  float64

	// PULSE
	V1, V2                  float64
	Delay, Rise, Fall, Width float64
	Period                   float64

	// PWL
	Times, Values []float64

	// AC phasor (magnitude, phase in degrees); zero magnitude means the
	// source contributes nothing to an AC assembly.
	ACMag   float64
	ACPhase float64
}

// At returns the waveform's instantaneous value at time t (used for
// OP/DC/Transient; OP and DC sweep evaluate at t=0).
func (w *Waveform) At(t float64) float64 {
	switch w.Kind {
	case WaveSIN:
		phase := w.PhaseDeg * math.Pi / 180
		return w.DC + w.Amplitude*math.Sin(2*math.Pi*w.Freq*t+phase)
	case WavePULSE:
		return w.pulseAt(t)
	case WavePWL:
		return w.pwlAt(t)
	default:
		return w.DC
	}
}

func (w *Waveform) pulseAt(t float64) float64 {
	if t < w.Delay {
		return w.V1
	}
	t -= w.Delay
	if w.Period > 0 {
		t = math.Mod(t, w.Period)
	}
	if t < w.Rise {
		if w.Rise == 0 {
			return w.V2
		}
		return w.V1 + (w.V2-w.V1)*t/w.Rise
	}
	if t < w.Rise+w.Width {
		return w.V2
	}
	fallStart := w.Rise + w.Width
	if t < fallStart+w.Fall {
		if w.Fall == 0 {
			return w.V1
		}
		return w.V2 - (w.V2-w.V1)*(t-fallStart)/w.Fall
	}
	return w.V1
}

func (w *Waveform) pwlAt(t float64) float64 {
	n := len(w.Times)
	if n == 0 {
		return 0
	}
	if t <= w.Times[0] {
		return w.Values[0]
	}
	if t >= w.Times[n-1] {
		return w.Values[n-1]
	}
	for i := 1; i < n; i++ {
		if t <= w.Times[i] {
			t0, t1 := w.Times[i-1], w.Times[i]
			v0, v1 := w.Values[i-1], w.Values[i]
			return v0 + (v1-v0)*(t-t0)/(t1-t0)
		}
	}
	return w.Values[n-1]
}

// ACPhasor returns the real/imaginary AC contribution, or (0,0) if this
// source carries no AC tag.
func (w *Waveform) ACPhasor() (real, imag float64) {
	if w.ACMag == 0 {
		return 0, 0
	}
	rad := w.ACPhase * math.Pi / 180
	return w.ACMag * math.Cos(rad), w.ACMag * math.Sin(rad)
}
