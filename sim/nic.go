package sim

import (
	"fmt"
)

// NetworkInterface is a node's attachment point. It is owned exclusively by
// one node and referenced by at most one link.
type NetworkInterface struct {
	entity
	router *RequestRouter

	localName  string
	mac        string
	ip         string
	subnetMask string
	enabled    bool

	node *Node
	link *Link
}

func newNIC(node *Node, cfg NICConfig, mac string) *NetworkInterface {
	nic := &NetworkInterface{
		entity:     newEntity("nic", node.Hostname()+"/"+cfg.Name),
		router:     NewRequestRouter(),
		localName:  cfg.Name,
		mac:        mac,
		ip:         cfg.IP,
		subnetMask: cfg.SubnetMask,
		enabled:    !cfg.Disabled,
		node:       node,
	}
	nic.router.mustOp("enable", nic.opEnable)
	nic.router.mustOp("disable", nic.opDisable)
	return nic
}

func (nic *NetworkInterface) ApplyRequest(path []string, ctx *RequestContext) Response {
	return nic.router.Dispatch(path, ctx)
}

// MAC returns the interface's hardware address.
func (nic *NetworkInterface) MAC() string { return nic.mac }

// IP returns the interface's layer-3 address, empty for layer-2-only
// interfaces.
func (nic *NetworkInterface) IP() string { return nic.ip }

// Enabled reports the administrative state.
func (nic *NetworkInterface) Enabled() bool { return nic.enabled }

// Link returns the link this interface participates in, if any.
func (nic *NetworkInterface) Link() (*Link, bool) {
	return nic.link, nic.link != nil
}

// Enable brings the interface up. Fails while the owning node is not ON.
func (nic *NetworkInterface) Enable() bool {
	if nic.node.PowerState() != PowerOn {
		return false
	}
	nic.enabled = true
	return true
}

// Disable takes the interface down administratively.
func (nic *NetworkInterface) Disable() {
	nic.enabled = false
}

func (nic *NetworkInterface) opEnable(ctx *RequestContext, args []string) Response {
	if !nic.Enable() {
		return Failure("cannot enable interface while node is not ON")
	}
	return Success(nil)
}

func (nic *NetworkInterface) opDisable(ctx *RequestContext, args []string) Response {
	nic.Disable()
	return Success(nil)
}

func (nic *NetworkInterface) DescribeState() map[string]any {
	return map[string]any{
		"mac":         nic.mac,
		"ip":          nic.ip,
		"subnet_mask": nic.subnetMask,
		"enabled":     nic.enabled,
		"connected":   nic.link != nil,
	}
}

// Link is a physical connection joining exactly two interfaces on two
// distinct nodes. An interface participates in at most one link.
type Link struct {
	entity
	a, b          *NetworkInterface
	bandwidthMbps float64
}

// newLink wires two interfaces together. Violating the one-link-per-
// interface or distinct-node invariants is a caller bug and rejected
// eagerly.
func newLink(a, b *NetworkInterface, bandwidthMbps float64) (*Link, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("link: both interfaces are required")
	}
	if a.node == b.node {
		return nil, fmt.Errorf("link: endpoints must be on distinct nodes (%s)", a.node.Hostname())
	}
	if a.link != nil {
		return nil, fmt.Errorf("link: interface %s already connected", a.Name())
	}
	if b.link != nil {
		return nil, fmt.Errorf("link: interface %s already connected", b.Name())
	}
	l := &Link{
		entity:        newEntity("link", a.Name()+"<->"+b.Name()),
		a:             a,
		b:             b,
		bandwidthMbps: bandwidthMbps,
	}
	a.link = l
	b.link = l
	return l, nil
}

// release detaches the link from its endpoints on disconnect.
func (l *Link) release() {
	l.a.link = nil
	l.b.link = nil
}

// Endpoints returns the two joined interfaces.
func (l *Link) Endpoints() (*NetworkInterface, *NetworkInterface) {
	return l.a, l.b
}

// IsUp is computed, never stored: the link carries traffic iff both
// endpoint interfaces are enabled and both owning nodes are powered ON.
func (l *Link) IsUp() bool {
	return l.a.enabled && l.b.enabled &&
		l.a.node.PowerState() == PowerOn && l.b.node.PowerState() == PowerOn
}

// Peer returns the interface opposite the given one.
func (l *Link) Peer(nic *NetworkInterface) *NetworkInterface {
	if nic == l.a {
		return l.b
	}
	return l.a
}

func (l *Link) DescribeState() map[string]any {
	return map[string]any{
		"endpoint_a":     l.a.node.Hostname() + ":" + l.a.localName,
		"endpoint_b":     l.b.node.Hostname() + ":" + l.b.localName,
		"bandwidth_mbps": l.bandwidthMbps,
		"is_up":          l.IsUp(),
	}
}
