// Package topology validates a parsed netlist's connectivity ahead of
// assembly: floating subnetworks (no DC path to ground) and voltage-source
// loops both make the MNA system singular before a single matrix entry is
// stamped, so catching them here gives a clearer diagnostic than waiting
// for the solver to report SingularMatrix (spec §7).
package topology

import (
	"github.com/kretslab/krets/pkg/kerrors"
	"github.com/kretslab/krets/pkg/netlist"
)

type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) find(x string) string {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		return x
	}
	if u.parent[x] != x {
		u.parent[x] = u.find(u.parent[x])
	}
	return u.parent[x]
}

// union reports whether x and y were already in the same component before
// the call (i.e. this union closes a cycle).
func (u *unionFind) union(x, y string) (alreadyConnected bool) {
	rx, ry := u.find(x), u.find(y)
	if rx == ry {
		return true
	}
	u.parent[rx] = ry
	return false
}

// Check validates connectivity and reports a TopologyError for a floating
// subnetwork or a voltage-source loop.
func Check(c *netlist.Circuit) error {
	if err := checkVoltageSourceLoops(c); err != nil {
		return err
	}
	return checkFloatingSubnetworks(c)
}

func checkVoltageSourceLoops(c *netlist.Circuit) error {
	uf := newUnionFind()
	for _, e := range c.Elements {
		if e.Kind != "V" {
			continue
		}
		if len(e.Nodes) != 2 {
			continue
		}
		if uf.union(e.Nodes[0], e.Nodes[1]) {
			return kerrors.New(kerrors.TopologyError, nil,
				"voltage source %s forms a loop with existing voltage sources between %s and %s", e.ID, e.Nodes[0], e.Nodes[1])
		}
	}
	return nil
}

func checkFloatingSubnetworks(c *netlist.Circuit) error {
	uf := newUnionFind()
	uf.find("0") // ensure ground participates even if isolated

	for _, e := range c.Elements {
		switch e.Kind {
		case "C", "I":
			// no DC conduction between the terminals
			continue
		case "M":
			// the gate draws no current: only drain and source conduct
			if len(e.Nodes) == 3 {
				uf.union(e.Nodes[0], e.Nodes[2])
			}
			continue
		}
		for i := 1; i < len(e.Nodes); i++ {
			uf.union(e.Nodes[0], e.Nodes[i])
		}
	}

	ground := uf.find("0")
	for _, e := range c.Elements {
		for _, n := range e.Nodes {
			if uf.find(n) != ground {
				return kerrors.New(kerrors.TopologyError, nil,
					"node %s (via element %s) has no DC path to ground", n, e.ID)
			}
		}
	}
	return nil
}
