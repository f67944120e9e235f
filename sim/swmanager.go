package sim

import (
	"fmt"

	"github.com/Autonomous-Resilient-Cyber-Defence/PrimAITE-sub003/sim/protocol"
)

// SoftwareManager is a node's registry of installed software, keyed by
// variant name. A node cannot host two instances under the same name.
type SoftwareManager struct {
	installed map[string]*Software
	order     []string
}

func newSoftwareManager() *SoftwareManager {
	return &SoftwareManager{installed: make(map[string]*Software)}
}

// Install registers a software instance. Duplicate names are rejected.
func (m *SoftwareManager) Install(s *Software) error {
	if _, exists := m.installed[s.Variant()]; exists {
		return fmt.Errorf("software %q already installed", s.Variant())
	}
	m.installed[s.Variant()] = s
	m.order = append(m.order, s.Variant())
	return nil
}

// Uninstall removes an installed instance by name.
func (m *SoftwareManager) Uninstall(name string) error {
	if _, exists := m.installed[name]; !exists {
		return fmt.Errorf("software %q not installed", name)
	}
	delete(m.installed, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get looks up installed software by name.
func (m *SoftwareManager) Get(name string) (*Software, bool) {
	s, ok := m.installed[name]
	return s, ok
}

// Installed returns the installed names in installation order.
func (m *SoftwareManager) Installed() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// ForceStopAll stops every installed instance unconditionally. Part of the
// node's shutdown cascade.
func (m *SoftwareManager) ForceStopAll() {
	for _, name := range m.order {
		m.installed[name].ForceStop()
	}
}

// AutoStartAll starts every instance configured to auto-start. Part of the
// node's boot-complete cascade.
func (m *SoftwareManager) AutoStartAll() {
	for _, name := range m.order {
		if s := m.installed[name]; s.AutoStart() {
			s.Start()
		}
	}
}

// Receive dispatches an inbound packet to the instance listening on the
// packet's destination port. Returns the reply, if the handler produced
// one. Unclaimed traffic is dropped silently.
func (m *SoftwareManager) Receive(p protocol.Packet) (protocol.Packet, bool) {
	port := p.Header().DstPort
	for _, name := range m.order {
		s := m.installed[name]
		if s.Port() != port {
			continue
		}
		if reply, ok := s.Receive(p); ok {
			return reply, true
		}
	}
	return nil, false
}

// AdvanceTimestep advances every instance's health countdowns.
func (m *SoftwareManager) AdvanceTimestep() {
	for _, name := range m.order {
		m.installed[name].AdvanceTimestep()
	}
}

// DescribeState returns the states of all installed software keyed by name.
func (m *SoftwareManager) DescribeState() map[string]any {
	out := map[string]any{}
	for name, s := range m.installed {
		out[name] = s.DescribeState()
	}
	return out
}
