package sim

import (
	"fmt"

	"github.com/Autonomous-Resilient-Cyber-Defence/PrimAITE-sub003/sim/protocol"
)

// NodeType is the closed set of device variants. Variants differ only in
// capability flags; lifecycle and request routing are shared.
type NodeType string

const (
	NodeComputer NodeType = "computer"
	NodeServer   NodeType = "server"
	NodeSwitch   NodeType = "switch"
	NodeRouter   NodeType = "router"
	NodePrinter  NodeType = "printer"
)

// capabilities captures what a node variant can do.
type capabilities struct {
	// ForwardsFrames marks devices that relay traffic between their
	// interfaces (switches, routers).
	ForwardsFrames bool
	// Layer3 marks devices whose interfaces carry IP addresses.
	Layer3 bool
}

var nodeCapabilities = map[NodeType]capabilities{
	NodeComputer: {Layer3: true},
	NodeServer:   {Layer3: true},
	NodeSwitch:   {ForwardsFrames: true},
	NodeRouter:   {ForwardsFrames: true, Layer3: true},
	NodePrinter:  {Layer3: true},
}

// Node is a network-attached device: a power state machine owning
// interfaces, a software manager and a file system.
type Node struct {
	entity
	router *RequestRouter

	hostname string
	typ      NodeType
	caps     capabilities

	power             PowerState
	startUpDuration   int
	shutDownDuration  int
	bootCountdown     int
	shutdownCountdown int

	nics     map[string]*NetworkInterface
	nicOrder []string
	fs       *FileSystem
	sw       *SoftwareManager
	arp      map[string]string // ip -> mac, learned from ARP traffic

	network *Network
}

func newNode(network *Network, cfg NodeConfig, reg *SoftwareRegistry) (*Node, error) {
	caps, ok := nodeCapabilities[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown node type %q", cfg.Type)
	}
	n := &Node{
		entity:           newEntity("node", cfg.Hostname),
		router:           NewRequestRouter(),
		hostname:         cfg.Hostname,
		typ:              cfg.Type,
		caps:             caps,
		power:            PowerOff,
		startUpDuration:  cfg.StartUpDuration,
		shutDownDuration: cfg.ShutDownDuration,
		nics:             make(map[string]*NetworkInterface),
		sw:               newSoftwareManager(),
		arp:              make(map[string]string),
		network:          network,
	}
	for _, nc := range cfg.NICs {
		if nc.IP != "" && !caps.Layer3 {
			return nil, fmt.Errorf("node %s: %s interfaces cannot carry an IP", cfg.Hostname, cfg.Type)
		}
		if _, exists := n.nics[nc.Name]; exists {
			return nil, fmt.Errorf("node %s: duplicate nic %q", cfg.Hostname, nc.Name)
		}
		mac := nc.MAC
		if mac == "" {
			mac = network.generateMAC()
		}
		n.nics[nc.Name] = newNIC(n, nc, mac)
		n.nicOrder = append(n.nicOrder, nc.Name)
	}
	fs, err := newFileSystem(cfg.Hostname, cfg.Folders)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", cfg.Hostname, err)
	}
	n.fs = fs
	for _, sc := range cfg.Software {
		s, err := newSoftware(n, sc, reg)
		if err != nil {
			return nil, err
		}
		if err := n.sw.Install(s); err != nil {
			return nil, fmt.Errorf("node %s: %w", cfg.Hostname, err)
		}
	}
	n.router.mustOp("power_on", n.opPowerOn)
	n.router.mustOp("power_off", n.opPowerOff)
	n.router.mustOp("ping", n.opPing)
	if cfg.PoweredOn {
		// nodes configured powered-on skip the boot countdown; NIC
		// enablement follows the per-interface config
		n.power = PowerOn
		n.sw.AutoStartAll()
	}
	return n, nil
}

// Hostname returns the node's unique name within its network.
func (n *Node) Hostname() string { return n.hostname }

// Type returns the device variant.
func (n *Node) Type() NodeType { return n.typ }

// ForwardsFrames reports whether this node relays traffic between its
// interfaces.
func (n *Node) ForwardsFrames() bool { return n.caps.ForwardsFrames }

// NIC looks up an interface by its node-local name.
func (n *Node) NIC(name string) (*NetworkInterface, bool) {
	nic, ok := n.nics[name]
	return nic, ok
}

// FileSystem returns the node's file system.
func (n *Node) FileSystem() *FileSystem { return n.fs }

// SoftwareManager returns the node's software registry.
func (n *Node) SoftwareManager() *SoftwareManager { return n.sw }

// ApplyRequest routes requests addressed at or below this node. Power
// verbs are always reachable; every other target requires the node to be
// ON.
func (n *Node) ApplyRequest(path []string, ctx *RequestContext) Response {
	if len(path) == 0 {
		return Failure("empty request path: missing verb")
	}
	if path[0] == "power_on" || path[0] == "power_off" {
		return n.router.Dispatch(path, ctx)
	}
	if n.power != PowerOn {
		return Failure(fmt.Sprintf("node %s is not powered on", n.hostname))
	}
	switch path[0] {
	case "service", "application", "process":
		return n.dispatchSoftware(path, ctx)
	case "file_system":
		return n.fs.ApplyRequest(path[1:], ctx)
	case "nic":
		if len(path) < 2 {
			return Failure("nic requests need an interface name")
		}
		nic, ok := n.nics[path[1]]
		if !ok {
			return Failure(fmt.Sprintf("node %s has no nic %q", n.hostname, path[1]))
		}
		return nic.ApplyRequest(path[2:], ctx)
	}
	return n.router.Dispatch(path, ctx)
}

// dispatchSoftware resolves ["service", name, verb...]; the class segment
// must match the target's kind.
func (n *Node) dispatchSoftware(path []string, ctx *RequestContext) Response {
	if len(path) < 2 {
		return Failure(fmt.Sprintf("%s requests need a software name", path[0]))
	}
	s, ok := n.sw.Get(path[1])
	if !ok {
		return Failure(fmt.Sprintf("node %s has no software %q", n.hostname, path[1]))
	}
	if string(s.Kind()) != path[0] {
		return Failure(fmt.Sprintf("%q is a %s, not a %s", path[1], s.Kind(), path[0]))
	}
	return s.ApplyRequest(path[2:], ctx)
}

// opPing checks reachability of the target address from this node,
// exchanging an echo request/reply with the owning node.
func (n *Node) opPing(ctx *RequestContext, args []string) Response {
	if len(args) < 1 {
		return Failure("ping requires a target address")
	}
	srcIP, ok := n.primaryIP()
	if !ok {
		return Failure("node has no addressable interface")
	}
	echo := protocol.NewEcho(srcIP, args[0], 1, ctx.Step)
	reply, ok := n.network.exchange(n, echo)
	if !ok {
		return Success(map[string]any{"reachable": false})
	}
	icmp, _ := reply.(protocol.ICMPPacket)
	return Success(map[string]any{
		"reachable": true,
		"sequence":  icmp.Sequence,
	})
}

// primaryIP returns the address of the first enabled layer-3 interface.
func (n *Node) primaryIP() (string, bool) {
	for _, name := range n.nicOrder {
		nic := n.nics[name]
		if nic.enabled && nic.ip != "" {
			return nic.ip, true
		}
	}
	return "", false
}

// ownsIP reports whether one of the node's enabled interfaces holds ip.
func (n *Node) ownsIP(ip string) bool {
	for _, name := range n.nicOrder {
		nic := n.nics[name]
		if nic.enabled && nic.ip == ip {
			return true
		}
	}
	return false
}

// sendPacket queues a packet for the network's next delivery phase.
func (n *Node) sendPacket(p protocol.Packet) {
	n.network.enqueue(n, p)
}

// clock returns the current simulation step.
func (n *Node) clock() int {
	return n.network.clock()
}

// findFile searches all folders for a file by name.
func (n *Node) findFile(name string) (*File, bool) {
	for _, folderName := range sortedKeys(n.fs.folders) {
		if f, ok := n.fs.folders[folderName].File(name); ok {
			return f, true
		}
	}
	return nil, false
}

// receivePacket handles a packet delivered to this node: ARP and ICMP are
// answered by the node itself, everything else goes to the software
// listening on the destination port. Returns a reply to send back, if any.
func (n *Node) receivePacket(p protocol.Packet) (protocol.Packet, bool) {
	if n.power != PowerOn {
		return nil, false
	}
	switch pk := p.(type) {
	case protocol.ARPPacket:
		if pk.Request {
			if !n.ownsIP(pk.TargetIP) {
				return nil, false
			}
			n.arp[pk.SenderIP] = pk.SenderMAC
			return pk.GenerateReply(n.macFor(pk.TargetIP)), true
		}
		n.arp[pk.SenderIP] = pk.SenderMAC
		return nil, false
	case protocol.ICMPPacket:
		if pk.Request {
			return pk.GenerateReply(), true
		}
		return nil, false
	}
	return n.sw.Receive(p)
}

// macFor returns the MAC of the enabled interface holding ip.
func (n *Node) macFor(ip string) string {
	for _, name := range n.nicOrder {
		nic := n.nics[name]
		if nic.enabled && nic.ip == ip {
			return nic.mac
		}
	}
	return ""
}

// AdvanceTimestep advances the node's power countdowns.
func (n *Node) AdvanceTimestep() {
	n.advancePower()
}

func (n *Node) DescribeState() map[string]any {
	nics := map[string]any{}
	for name, nic := range n.nics {
		nics[name] = nic.DescribeState()
	}
	arp := map[string]any{}
	for ip, mac := range n.arp {
		arp[ip] = mac
	}
	return map[string]any{
		"hostname":    n.hostname,
		"type":        string(n.typ),
		"power_state": string(n.power),
		"nics":        nics,
		"software":    n.sw.DescribeState(),
		"file_system": n.fs.DescribeState(),
		"arp":         arp,
	}
}
