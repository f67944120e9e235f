package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLink_IsUpRequiresBothInterfacesAndBothNodes(t *testing.T) {
	s := mustSimulation(officeConfig(1))
	pc1, _ := s.Network().NodeByHostname("pc1")
	nic, _ := pc1.NIC("eth0")
	link, ok := nic.Link()
	assert.True(t, ok)

	// all four conditions hold
	assert.True(t, link.IsUp())

	// disabling one endpoint interface takes the link down
	nic.Disable()
	assert.False(t, link.IsUp())
	nic.Enable()
	assert.True(t, link.IsUp())

	// powering off one owning node takes the link down
	sw1, _ := s.Network().NodeByHostname("sw1")
	sw1.PowerOff()
	assert.False(t, link.IsUp())
}

func TestConnect_InterfaceAlreadyLinked_Rejected(t *testing.T) {
	s := mustSimulation(officeConfig(1))

	// pc1:eth0 already participates in a link
	_, err := s.Network().Connect("pc1", "eth0", "sw1", "port3", 100)
	assert.Error(t, err)
}

func TestConnect_SameNodeEndpoints_Rejected(t *testing.T) {
	cfg := SimulationConfig{
		Seed: 1,
		Nodes: []NodeConfig{{
			Hostname: "sw1",
			Type:     NodeSwitch,
			NICs:     []NICConfig{{Name: "port1"}, {Name: "port2"}},
		}},
	}
	s := mustSimulation(cfg)

	_, err := s.Network().Connect("sw1", "port1", "sw1", "port2", 100)
	assert.Error(t, err)
}

func TestDisconnect_ReleasesInterfacesForReuse(t *testing.T) {
	s := mustSimulation(officeConfig(1))
	pc1, _ := s.Network().NodeByHostname("pc1")
	nic, _ := pc1.NIC("eth0")
	link, _ := nic.Link()

	assert.NoError(t, s.Network().Disconnect(link.Name()))
	_, connected := nic.Link()
	assert.False(t, connected)

	// the freed interfaces can be joined again
	_, err := s.Network().Connect("pc1", "eth0", "sw1", "port1", 100)
	assert.NoError(t, err)
}

func TestPing_AcrossSwitchSucceeds(t *testing.T) {
	// GIVEN two computers joined via a switch, everything enabled and ON
	s := mustSimulation(officeConfig(1))

	// WHEN pc1 pings pc2
	resp := s.ApplyAction([]string{"network", "node", "pc1", "ping", "10.0.0.2"})

	// THEN the reachability check succeeds
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, true, resp.Data["reachable"])
}

func TestPing_FailsSilentlyAcrossDownedLink(t *testing.T) {
	s := mustSimulation(officeConfig(1))

	// WHEN one endpoint interface of pc2's link is disabled
	resp := s.ApplyAction([]string{"network", "node", "pc2", "nic", "eth0", "disable"})
	assert.Equal(t, StatusSuccess, resp.Status)

	// THEN the link is down and deliveries fail silently: the request
	// itself still succeeds, carrying an unreachable result
	resp = s.ApplyAction([]string{"network", "node", "pc1", "ping", "10.0.0.2"})
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, false, resp.Data["reachable"])
}

func TestPing_PoweredOffDestinationUnreachable(t *testing.T) {
	s := mustSimulation(officeConfig(1))
	pc2, _ := s.Network().NodeByHostname("pc2")
	pc2.PowerOff()
	for i := 0; i < 3; i++ {
		s.ApplyTimestep()
	}

	resp := s.ApplyAction([]string{"network", "node", "pc1", "ping", "10.0.0.2"})
	assert.Equal(t, false, resp.Data["reachable"])
}

func TestPing_NonForwardingNodeDoesNotRelay(t *testing.T) {
	// pc1 -- pc2(second nic) -- pc3: computers do not forward frames
	cfg := SimulationConfig{
		Seed: 1,
		Nodes: []NodeConfig{
			{Hostname: "pc1", Type: NodeComputer, PoweredOn: true,
				NICs: []NICConfig{{Name: "eth0", IP: "10.0.0.1"}}},
			{Hostname: "pc2", Type: NodeComputer, PoweredOn: true,
				NICs: []NICConfig{{Name: "eth0", IP: "10.0.0.2"}, {Name: "eth1", IP: "10.0.1.2"}}},
			{Hostname: "pc3", Type: NodeComputer, PoweredOn: true,
				NICs: []NICConfig{{Name: "eth0", IP: "10.0.1.3"}}},
		},
		Links: []LinkConfig{
			{NodeA: "pc1", NICA: "eth0", NodeB: "pc2", NICB: "eth0"},
			{NodeA: "pc2", NICA: "eth1", NodeB: "pc3", NICB: "eth0"},
		},
	}
	s := mustSimulation(cfg)

	// direct neighbor is reachable
	resp := s.ApplyAction([]string{"network", "node", "pc1", "ping", "10.0.0.2"})
	assert.Equal(t, true, resp.Data["reachable"])

	// but pc2 does not forward on behalf of pc1
	resp = s.ApplyAction([]string{"network", "node", "pc1", "ping", "10.0.1.3"})
	assert.Equal(t, false, resp.Data["reachable"])
}

func TestRouter_ForwardsBetweenSegments(t *testing.T) {
	cfg := SimulationConfig{
		Seed: 1,
		Nodes: []NodeConfig{
			{Hostname: "pc1", Type: NodeComputer, PoweredOn: true,
				NICs: []NICConfig{{Name: "eth0", IP: "10.0.0.1"}}},
			{Hostname: "r1", Type: NodeRouter, PoweredOn: true,
				NICs: []NICConfig{{Name: "ge0", IP: "10.0.0.254"}, {Name: "ge1", IP: "10.0.1.254"}}},
			{Hostname: "pc2", Type: NodeComputer, PoweredOn: true,
				NICs: []NICConfig{{Name: "eth0", IP: "10.0.1.1"}}},
		},
		Links: []LinkConfig{
			{NodeA: "pc1", NICA: "eth0", NodeB: "r1", NICB: "ge0"},
			{NodeA: "pc2", NICA: "eth0", NodeB: "r1", NICB: "ge1"},
		},
	}
	s := mustSimulation(cfg)

	resp := s.ApplyAction([]string{"network", "node", "pc1", "ping", "10.0.1.1"})
	assert.Equal(t, true, resp.Data["reachable"])
}

func TestNetwork_AddNodeValidatesConfig(t *testing.T) {
	s := mustSimulation(officeConfig(1))

	// dynamic additions pass the same gate as root construction
	_, err := s.Network().AddNode(NodeConfig{
		Hostname: "pc9", Type: NodeComputer,
		NICs: []NICConfig{{Name: "eth0", IP: "999.9.9.9"}},
	})
	assert.Error(t, err, "malformed IP")

	_, err = s.Network().AddNode(NodeConfig{
		Hostname: "pc9", Type: NodeComputer,
		Software: []SoftwareConfig{{Variant: "bitcoin-miner"}},
	})
	assert.Error(t, err, "unknown variant")

	_, ok := s.Network().NodeByHostname("pc9")
	assert.False(t, ok, "rejected configs leave nothing behind")
}

func TestNetwork_AddRemoveNode(t *testing.T) {
	s := mustSimulation(officeConfig(1))

	_, err := s.Network().AddNode(NodeConfig{Hostname: "pc1", Type: NodeComputer})
	assert.Error(t, err, "duplicate hostname")

	n, err := s.Network().AddNode(NodeConfig{
		Hostname: "printer1", Type: NodePrinter, PoweredOn: true,
		NICs: []NICConfig{{Name: "eth0", IP: "10.0.0.40"}},
	})
	assert.NoError(t, err)
	assert.Equal(t, NodePrinter, n.Type())

	// removing a linked node tears down its links first
	assert.NoError(t, s.Network().RemoveNode("pc2"))
	_, ok := s.Network().NodeByHostname("pc2")
	assert.False(t, ok)
	sw1, _ := s.Network().NodeByHostname("sw1")
	port2, _ := sw1.NIC("port2")
	_, connected := port2.Link()
	assert.False(t, connected)
}

func TestGeneratedMACsAreSeedDeterministic(t *testing.T) {
	a := mustSimulation(officeConfig(7))
	b := mustSimulation(officeConfig(7))
	c := mustSimulation(officeConfig(8))

	macOf := func(s *Simulation, host, nic string) string {
		n, _ := s.Network().NodeByHostname(host)
		i, _ := n.NIC(nic)
		return i.MAC()
	}

	assert.Equal(t, macOf(a, "sw1", "port1"), macOf(b, "sw1", "port1"))
	assert.NotEqual(t, macOf(a, "sw1", "port1"), macOf(c, "sw1", "port1"))
}
