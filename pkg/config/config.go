// Package config decodes and validates the TOML configuration file of
// spec §6: a circuit path, exactly one `[analysis.<kind>]` table, and an
// optional `[tolerances]` table.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/kretslab/krets/pkg/kerrors"
	"github.com/kretslab/krets/pkg/nonlinear"
)

// Config is the top-level decoded document.
type Config struct {
	CircuitPath string      `toml:"circuit_path"`
	Output      string      `toml:"output"` // optional result file path; empty means stdout
	Analysis    analysisDoc `toml:"analysis"`
	Tolerances  *tolDoc     `toml:"tolerances"`
}

type analysisDoc struct {
	OP        *struct{}        `toml:"op"`
	DC        *DCConfig        `toml:"dc"`
	AC        *ACConfig        `toml:"ac"`
	Transient *TransientConfig `toml:"transient"`
}

// DCConfig is `[analysis.dc]`: sweep one named source over [start, stop].
type DCConfig struct {
	Source string  `toml:"source"`
	Start  float64 `toml:"start"`
	Stop   float64 `toml:"stop"`
	Step   float64 `toml:"step"`
}

// ACConfig is `[analysis.ac]`: frequency sweep, linear or decade-log.
type ACConfig struct {
	FStart  float64 `toml:"fstart"`
	FStop   float64 `toml:"fstop"`
	NPoints int     `toml:"npoints"`
	Scale   string  `toml:"scale"` // "lin" or "dec"
}

// TransientConfig is `[analysis.transient]`: fixed initial step, optional
// recording start time.
type TransientConfig struct {
	TStop  float64 `toml:"tstop"`
	TStep  float64 `toml:"tstep"`
	TStart float64 `toml:"tstart"`
}

type tolDoc struct {
	Rel     float64 `toml:"rel"`
	VAbs    float64 `toml:"v_abs"`
	IAbs    float64 `toml:"i_abs"`
	MaxIter int     `toml:"max_iter"`
}

// Kind is the selected analysis kind, one of "op", "dc", "ac", "transient".
type Kind string

const (
	KindOP        Kind = "op"
	KindDC        Kind = "dc"
	KindAC        Kind = "ac"
	KindTransient Kind = "transient"
)

// Load reads and validates a configuration file from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, kerrors.New(kerrors.IOError, err, "reading config %s", path)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, kerrors.New(kerrors.ConfigError, err, "parsing config %s", path)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.CircuitPath == "" {
		return kerrors.New(kerrors.ConfigError, nil, "circuit_path is required")
	}

	selected := 0
	if c.Analysis.OP != nil {
		selected++
	}
	if c.Analysis.DC != nil {
		selected++
	}
	if c.Analysis.AC != nil {
		selected++
	}
	if c.Analysis.Transient != nil {
		selected++
	}
	if selected != 1 {
		return kerrors.New(kerrors.ConfigError, nil, "exactly one [analysis.<kind>] table is required, found %d", selected)
	}

	switch {
	case c.Analysis.DC != nil:
		d := c.Analysis.DC
		if d.Source == "" {
			return kerrors.New(kerrors.ConfigError, nil, "analysis.dc: source is required")
		}
		if d.Start == d.Stop && d.Step == 0 {
			return kerrors.New(kerrors.ConfigError, nil, "analysis.dc: start, stop, step describe an empty sweep")
		}
	case c.Analysis.AC != nil:
		a := c.Analysis.AC
		if a.FStart <= 0 || a.FStop <= 0 {
			return kerrors.New(kerrors.ConfigError, nil, "analysis.ac: fstart and fstop must be positive")
		}
		if a.NPoints < 1 {
			return kerrors.New(kerrors.ConfigError, nil, "analysis.ac: npoints must be >= 1")
		}
		if a.Scale != "" && a.Scale != "lin" && a.Scale != "dec" {
			return kerrors.New(kerrors.ConfigError, nil, "analysis.ac: scale must be \"lin\" or \"dec\"")
		}
	case c.Analysis.Transient != nil:
		t := c.Analysis.Transient
		if t.TStop <= 0 || t.TStep <= 0 {
			return kerrors.New(kerrors.ConfigError, nil, "analysis.transient: tstop and tstep must be positive")
		}
	}

	return nil
}

// SelectedKind reports which analysis table was supplied.
func (c *Config) SelectedKind() Kind {
	switch {
	case c.Analysis.DC != nil:
		return KindDC
	case c.Analysis.AC != nil:
		return KindAC
	case c.Analysis.Transient != nil:
		return KindTransient
	default:
		return KindOP
	}
}

// ResolveTolerances returns the configured tolerances, or the engine
// defaults when `[tolerances]` is absent.
func (c *Config) ResolveTolerances() nonlinear.Tolerances {
	if c.Tolerances == nil {
		return nonlinear.DefaultTolerances()
	}
	tol := nonlinear.DefaultTolerances()
	t := c.Tolerances
	if t.Rel > 0 {
		tol.RelTol = t.Rel
	}
	if t.VAbs > 0 {
		tol.VAbsTol = t.VAbs
	}
	if t.IAbs > 0 {
		tol.IAbsTol = t.IAbs
	}
	if t.MaxIter > 0 {
		tol.MaxIter = t.MaxIter
	}
	return tol
}
