package protocol

// ICMPPacket is an echo request or reply used for reachability checks.
type ICMPPacket struct {
	DataPacket
	Identifier int
	Sequence   int
}

// NewEcho builds an echo request addressed to targetIP.
func NewEcho(srcIP, targetIP string, identifier, sequence int) ICMPPacket {
	return ICMPPacket{
		DataPacket: DataPacket{SrcIP: srcIP, DstIP: targetIP, Request: true},
		Identifier: identifier,
		Sequence:   sequence,
	}
}

func (p ICMPPacket) Protocol() IPProtocol { return ICMP }

// GenerateReply derives the matching echo reply.
func (p ICMPPacket) GenerateReply() ICMPPacket {
	return ICMPPacket{
		DataPacket: p.DataPacket.reply(StatusOK),
		Identifier: p.Identifier,
		Sequence:   p.Sequence,
	}
}

func (p ICMPPacket) Describe() map[string]any {
	m := p.DataPacket.describe(p.Protocol())
	m["type"] = "icmp"
	m["identifier"] = p.Identifier
	m["sequence"] = p.Sequence
	return m
}
