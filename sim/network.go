package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Autonomous-Resilient-Cyber-Defence/PrimAITE-sub003/sim/protocol"
)

// maxDeliveriesPerStep bounds one step's delivery phase so a forwarding
// loop in a misconfigured topology cannot hang the engine.
const maxDeliveriesPerStep = 1024

// delivery is one queued packet awaiting the next delivery phase.
type delivery struct {
	from   *Node
	packet protocol.Packet
}

// Network is the container of nodes and links and the carrier of traffic
// between them.
type Network struct {
	entity

	nodes     map[string]*Node
	links     map[string]*Link
	linkOrder []string

	reg     *SoftwareRegistry
	rng     *PartitionedRNG
	clockFn func() int

	pending []delivery
}

func newNetwork(reg *SoftwareRegistry, rng *PartitionedRNG, clockFn func() int) *Network {
	return &Network{
		entity:  newEntity("network", "network"),
		nodes:   make(map[string]*Node),
		links:   make(map[string]*Link),
		reg:     reg,
		rng:     rng,
		clockFn: clockFn,
	}
}

// AddNode constructs a node from its config and registers it. The config
// passes the same validation gate as root construction; duplicate
// hostnames are rejected.
func (nw *Network) AddNode(cfg NodeConfig) (*Node, error) {
	if _, exists := nw.nodes[cfg.Hostname]; exists {
		return nil, fmt.Errorf("network: duplicate hostname %q", cfg.Hostname)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("node %s: %w", cfg.Hostname, err)
	}
	if err := validateNodeNames(cfg); err != nil {
		return nil, err
	}
	cfg = cfg.clone()
	cfg.applyDefaults()
	n, err := newNode(nw, cfg, nw.reg)
	if err != nil {
		return nil, err
	}
	nw.nodes[cfg.Hostname] = n
	logrus.Infof("added %s node %s", cfg.Type, cfg.Hostname)
	return n, nil
}

// RemoveNode disconnects and drops a node.
func (nw *Network) RemoveNode(hostname string) error {
	n, ok := nw.nodes[hostname]
	if !ok {
		return fmt.Errorf("network: no node %q", hostname)
	}
	for _, name := range n.nicOrder {
		if l, ok := n.nics[name].Link(); ok {
			if err := nw.Disconnect(l.Name()); err != nil {
				return err
			}
		}
	}
	delete(nw.nodes, hostname)
	logrus.Infof("removed node %s", hostname)
	return nil
}

// NodeByHostname looks up a node.
func (nw *Network) NodeByHostname(hostname string) (*Node, bool) {
	n, ok := nw.nodes[hostname]
	return n, ok
}

// Connect joins two named interfaces with a new link. Interfaces already
// in a link, or both on the same node, are a caller bug and rejected.
func (nw *Network) Connect(hostA, nicA, hostB, nicB string, bandwidthMbps float64) (*Link, error) {
	a, err := nw.lookupNIC(hostA, nicA)
	if err != nil {
		return nil, err
	}
	b, err := nw.lookupNIC(hostB, nicB)
	if err != nil {
		return nil, err
	}
	l, err := newLink(a, b, bandwidthMbps)
	if err != nil {
		return nil, err
	}
	nw.links[l.Name()] = l
	nw.linkOrder = append(nw.linkOrder, l.Name())
	logrus.Infof("connected %s:%s <-> %s:%s", hostA, nicA, hostB, nicB)
	return l, nil
}

// Disconnect destroys a link by name, releasing both endpoints.
func (nw *Network) Disconnect(linkName string) error {
	l, ok := nw.links[linkName]
	if !ok {
		return fmt.Errorf("network: no link %q", linkName)
	}
	l.release()
	delete(nw.links, linkName)
	for i, name := range nw.linkOrder {
		if name == linkName {
			nw.linkOrder = append(nw.linkOrder[:i], nw.linkOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (nw *Network) lookupNIC(host, nic string) (*NetworkInterface, error) {
	n, ok := nw.nodes[host]
	if !ok {
		return nil, fmt.Errorf("network: no node %q", host)
	}
	i, ok := n.NIC(nic)
	if !ok {
		return nil, fmt.Errorf("network: node %s has no nic %q", host, nic)
	}
	return i, nil
}

// generateMAC produces a locally-administered MAC from the seeded network
// RNG, so generated addresses are reproducible per seed.
func (nw *Network) generateMAC() string {
	r := nw.rng.ForSubsystem(SubsystemNetwork)
	return fmt.Sprintf("02:%02x:%02x:%02x:%02x:%02x",
		r.Intn(256), r.Intn(256), r.Intn(256), r.Intn(256), r.Intn(256))
}

func (nw *Network) clock() int {
	if nw.clockFn == nil {
		return 0
	}
	return nw.clockFn()
}

// enqueue schedules a packet for the next delivery phase.
func (nw *Network) enqueue(from *Node, p protocol.Packet) {
	nw.pending = append(nw.pending, delivery{from: from, packet: p})
}

// ApplyRequest routes ["node", hostname, ...] into the owning node.
func (nw *Network) ApplyRequest(path []string, ctx *RequestContext) Response {
	if len(path) == 0 {
		return Failure("empty request path: missing verb")
	}
	if path[0] == "node" {
		if len(path) < 2 {
			return Failure("node requests need a hostname")
		}
		n, ok := nw.nodes[path[1]]
		if !ok {
			return Response{Status: StatusFailure, Data: map[string]any{
				"reason":  "unknown node",
				"segment": path[1],
			}}
		}
		return n.ApplyRequest(path[2:], ctx)
	}
	return Response{Status: StatusFailure, Data: map[string]any{
		"reason":  "unknown path segment",
		"segment": path[0],
	}}
}

// === traffic ===

// findDestination walks up links outward from src looking for the node
// that owns dstIP. Intermediate hops must forward frames; traversal order
// is deterministic.
func (nw *Network) findDestination(src *Node, dstIP string) (*Node, bool) {
	if src.ownsIP(dstIP) {
		return src, true
	}
	visited := map[string]bool{src.hostname: true}
	frontier := []*Node{src}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		for _, nicName := range cur.nicOrder {
			nic := cur.nics[nicName]
			l, ok := nic.Link()
			if !ok || !l.IsUp() {
				continue
			}
			peer := l.Peer(nic).node
			if visited[peer.hostname] {
				continue
			}
			visited[peer.hostname] = true
			if peer.ownsIP(dstIP) {
				return peer, true
			}
			if peer.ForwardsFrames() && peer.power == PowerOn {
				frontier = append(frontier, peer)
			}
		}
	}
	return nil, false
}

// resolveMAC learns the destination's hardware address through an ARP
// request/reply exchange before first delivery. Subsequent traffic to the
// same address uses the cached entry; the table empties again when the
// owning node powers off.
func (nw *Network) resolveMAC(src, dst *Node, dstIP string) {
	if src == dst {
		return
	}
	if _, known := src.arp[dstIP]; known {
		return
	}
	srcIP, ok := src.primaryIP()
	if !ok {
		return
	}
	req := protocol.NewARPRequest(src.macFor(srcIP), srcIP, dstIP)
	reply, ok := dst.receivePacket(req)
	if !ok {
		return
	}
	src.receivePacket(reply)
}

// exchange synchronously carries a packet from src to the node owning its
// destination address and returns that node's reply, if any. Delivery into
// an unreachable or powered-off destination fails silently.
func (nw *Network) exchange(src *Node, p protocol.Packet) (protocol.Packet, bool) {
	dst, ok := nw.findDestination(src, p.Header().DstIP)
	if !ok {
		logrus.Debugf("dropping %s packet for %s: unreachable", p.Protocol(), p.Header().DstIP)
		return nil, false
	}
	nw.resolveMAC(src, dst, p.Header().DstIP)
	return dst.receivePacket(p)
}

// FlushDeliveries resolves every pending delivery, including replies
// generated while the phase runs, in FIFO order.
func (nw *Network) FlushDeliveries() {
	processed := 0
	for len(nw.pending) > 0 {
		if processed >= maxDeliveriesPerStep {
			logrus.Warnf("per-step delivery limit reached, dropping %d packets", len(nw.pending))
			nw.pending = nil
			return
		}
		d := nw.pending[0]
		nw.pending = nw.pending[1:]
		processed++
		dst, ok := nw.findDestination(d.from, d.packet.Header().DstIP)
		if !ok {
			logrus.Debugf("dropping %s packet for %s: unreachable",
				d.packet.Protocol(), d.packet.Header().DstIP)
			continue
		}
		nw.resolveMAC(d.from, dst, d.packet.Header().DstIP)
		if reply, ok := dst.receivePacket(d.packet); ok {
			nw.pending = append(nw.pending, delivery{from: dst, packet: reply})
		}
	}
}

// === per-step phases, invoked in fixed order by the Simulation ===

func (nw *Network) advanceNodePower() {
	for _, name := range sortedKeys(nw.nodes) {
		nw.nodes[name].AdvanceTimestep()
	}
}

func (nw *Network) advanceSoftware() {
	for _, name := range sortedKeys(nw.nodes) {
		nw.nodes[name].sw.AdvanceTimestep()
	}
}

func (nw *Network) advanceFileSystems() {
	for _, name := range sortedKeys(nw.nodes) {
		nw.nodes[name].fs.AdvanceTimestep()
	}
}

func (nw *Network) DescribeState() map[string]any {
	nodes := map[string]any{}
	for name, n := range nw.nodes {
		nodes[name] = n.DescribeState()
	}
	links := map[string]any{}
	for name, l := range nw.links {
		links[name] = l.DescribeState()
	}
	return map[string]any{
		"nodes": nodes,
		"links": links,
	}
}
