package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Simulation is the root aggregate: the network, the auxiliary domain
// registry, the global step counter and the top-level request router. One
// instance lives per episode; Reset returns it to its initial snapshot
// without reallocating its identity.
type Simulation struct {
	entity

	cfg  SimulationConfig
	step int

	rng     *PartitionedRNG
	network *Network
	domain  *DomainController
}

// NewSimulation validates the configuration and builds the initial state.
// Validation happens before any mutation, and the caller's config object
// is left untouched; a rejected config leaves nothing behind.
func NewSimulation(cfg SimulationConfig) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.clone()
	cfg.applyDefaults()
	s := &Simulation{
		entity: newEntity("simulation", "simulation"),
		cfg:    cfg,
	}
	if err := s.build(); err != nil {
		return nil, err
	}
	return s, nil
}

// build constructs network and domain state from the stored config. Used
// by both construction and Reset.
func (s *Simulation) build() error {
	s.step = 0
	s.rng = NewPartitionedRNG(NewSimulationKey(s.cfg.Seed))
	s.network = newNetwork(DefaultSoftwareRegistry, s.rng, func() int { return s.step })
	for _, nc := range s.cfg.Nodes {
		if _, err := s.network.AddNode(nc); err != nil {
			return err
		}
	}
	for _, lc := range s.cfg.Links {
		if _, err := s.network.Connect(lc.NodeA, lc.NICA, lc.NodeB, lc.NICB, lc.BandwidthMbps); err != nil {
			return err
		}
	}
	domain, err := newDomainController(s.cfg.Accounts)
	if err != nil {
		return err
	}
	s.domain = domain
	return nil
}

// Network returns the topology container.
func (s *Simulation) Network() *Network { return s.network }

// Domain returns the auxiliary account registry.
func (s *Simulation) Domain() *DomainController { return s.domain }

// CurrentStep returns the number of completed timesteps.
func (s *Simulation) CurrentStep() int { return s.step }

// ApplyAction routes one request path into the component tree. The
// reserved root path "do_nothing" is a no-op.
func (s *Simulation) ApplyAction(path []string) Response {
	if len(path) == 0 {
		return Failure("empty request path: missing verb")
	}
	ctx := &RequestContext{Step: s.step}
	switch path[0] {
	case "do_nothing":
		return Success(nil)
	case "network":
		return s.network.ApplyRequest(path[1:], ctx)
	case "domain":
		return s.domain.ApplyRequest(path[1:], ctx)
	}
	return Response{Status: StatusFailure, Data: map[string]any{
		"reason":  "unknown path segment",
		"segment": path[0],
	}}
}

// ApplyRequest satisfies the Component contract at the root.
func (s *Simulation) ApplyRequest(path []string, ctx *RequestContext) Response {
	return s.ApplyAction(path)
}

// ApplyTimestep advances simulated time by one unit. Must be called
// exactly once per step, after the step's actions have been applied.
// The fixed phase order is: node power countdowns, software countdowns,
// file integrity countdowns, pending protocol deliveries.
func (s *Simulation) ApplyTimestep() {
	logrus.Debugf("advancing timestep %d", s.step)
	s.network.advanceNodePower()
	s.network.advanceSoftware()
	s.network.advanceFileSystems()
	s.network.FlushDeliveries()
	s.step++
}

// DescribeState returns the merged recursive snapshot of the whole tree.
func (s *Simulation) DescribeState() map[string]any {
	return map[string]any{
		"step":    s.step,
		"network": s.network.DescribeState(),
		"domain":  s.domain.DescribeState(),
	}
}

// Reset rebuilds the initial state from the construction config. The
// Simulation keeps its identity; the step counter and the RNG return to
// their seeded origins.
func (s *Simulation) Reset() error {
	if err := s.build(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	logrus.Info("simulation reset")
	return nil
}
