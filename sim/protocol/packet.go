// Package protocol defines the simplified packet records exchanged between
// simulated hosts. Packets are plain data: a request carries addressing and
// protocol-specific fields, and each type exposes a GenerateReply transform
// that derives a fresh reply packet with the addressing swapped. Replies are
// never produced by mutating the request in place.
package protocol

// IPProtocol is the closed set of transport protocols the simulation models.
type IPProtocol string

const (
	TCP  IPProtocol = "tcp"
	UDP  IPProtocol = "udp"
	ICMP IPProtocol = "icmp"
)

// Well-known ports used by the built-in services.
const (
	PortFTP  = 21
	PortDNS  = 53
	PortHTTP = 80
	PortNTP  = 123
)

// MaxPort is the largest valid port number.
const MaxPort = 65535

// ValidProtocol reports whether name is a recognized transport protocol.
func ValidProtocol(name string) bool {
	switch IPProtocol(name) {
	case TCP, UDP, ICMP:
		return true
	}
	return false
}

// Packet is implemented by every protocol message the network can carry.
type Packet interface {
	// Header returns the shared addressing and status fields.
	Header() DataPacket
	// Protocol identifies the transport the packet rides on.
	Protocol() IPProtocol
	// Describe returns the packet as a nested mapping for state snapshots
	// and logs.
	Describe() map[string]any
}

// DataPacket carries the cross-protocol metadata every message shares:
// source and destination addressing, a request/reply discriminator and an
// HTTP-style status code populated on replies.
type DataPacket struct {
	SrcIP      string
	DstIP      string
	SrcPort    int
	DstPort    int
	Request    bool
	StatusCode int
}

// Header returns the shared fields.
func (p DataPacket) Header() DataPacket { return p }

// reply returns the addressing fields swapped for a response, with the
// request flag cleared and the given status code attached.
func (p DataPacket) reply(status int) DataPacket {
	return DataPacket{
		SrcIP:      p.DstIP,
		DstIP:      p.SrcIP,
		SrcPort:    p.DstPort,
		DstPort:    p.SrcPort,
		Request:    false,
		StatusCode: status,
	}
}

func (p DataPacket) describe(proto IPProtocol) map[string]any {
	return map[string]any{
		"protocol":    string(proto),
		"src_ip":      p.SrcIP,
		"dst_ip":      p.DstIP,
		"src_port":    p.SrcPort,
		"dst_port":    p.DstPort,
		"request":     p.Request,
		"status_code": p.StatusCode,
	}
}

// Status codes attached to reply packets.
const (
	StatusOK       = 200
	StatusNotFound = 404
	StatusRefused  = 503
)
