// Command krets runs one circuit analysis from a TOML configuration file
// (spec §6): parse the netlist, validate its topology, assemble the MNA
// system, run the configured analysis, and write the result as CSV.
package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/kretslab/krets/pkg/analysis"
	"github.com/kretslab/krets/pkg/circuit"
	"github.com/kretslab/krets/pkg/config"
	"github.com/kretslab/krets/pkg/kerrors"
	"github.com/kretslab/krets/pkg/netlist"
	"github.com/kretslab/krets/pkg/nonlinear"
	"github.com/kretslab/krets/pkg/result"
	"github.com/kretslab/krets/pkg/resultio"
	"github.com/kretslab/krets/pkg/topology"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("usage: krets <config.toml>")
	}

	if err := run(flag.Arg(0)); err != nil {
		var kerr *kerrors.Error
		if errors.As(err, &kerr) {
			log.Fatalf("%s", kerr.Error())
		}
		log.Fatalf("%v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(cfg.CircuitPath)
	if err != nil {
		return kerrors.New(kerrors.IOError, err, "reading circuit %s", cfg.CircuitPath)
	}

	parsed, err := netlist.Parse(string(content))
	if err != nil {
		return err
	}

	if err := topology.Check(parsed); err != nil {
		return err
	}

	driver := nonlinear.New(cfg.ResolveTolerances())

	res, err := runAnalysis(cfg, parsed, driver)
	if err != nil {
		return err
	}

	out := os.Stdout
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return kerrors.New(kerrors.IOError, err, "creating output %s", cfg.Output)
		}
		defer f.Close()
		out = f
	}

	if err := resultio.Write(out, res); err != nil {
		return kerrors.New(kerrors.IOError, err, "writing result")
	}
	return nil
}

func runAnalysis(cfg *config.Config, parsed *netlist.Circuit, driver *nonlinear.Driver) (*result.Result, error) {
	switch cfg.SelectedKind() {
	case config.KindAC:
		a := cfg.Analysis.AC
		scale := a.Scale
		if scale == "" {
			scale = "dec"
		}
		return analysis.RunAC(parsed, driver, a.FStart, a.FStop, a.NPoints, scale)

	case config.KindDC:
		d := cfg.Analysis.DC
		c, err := circuit.Build(parsed, false)
		if err != nil {
			return nil, err
		}
		defer c.Destroy()
		return analysis.RunDC(c, driver, d.Source, d.Start, d.Stop, d.Step)

	case config.KindTransient:
		t := cfg.Analysis.Transient
		c, err := circuit.Build(parsed, false)
		if err != nil {
			return nil, err
		}
		defer c.Destroy()
		return analysis.RunTransient(c, driver, t.TStop, t.TStep, t.TStart, 0)

	default:
		c, err := circuit.Build(parsed, false)
		if err != nil {
			return nil, err
		}
		defer c.Destroy()
		res, _, err := analysis.RunOP(c, driver)
		return res, err
	}
}
