package protocol

// MasqueradePacket is traffic that claims to belong to some protocol and
// port without carrying a legitimate payload for it. Scripted attackers use
// it to exercise services with plausible-looking but bogus requests.
type MasqueradePacket struct {
	DataPacket
	ClaimedProtocol IPProtocol
	Payload         string
}

// NewMasquerade builds a masquerade packet aimed at dstIP:dstPort claiming
// to be claimed-protocol traffic.
func NewMasquerade(srcIP, dstIP string, dstPort int, claimed IPProtocol, payload string) MasqueradePacket {
	return MasqueradePacket{
		DataPacket: DataPacket{
			SrcIP:   srcIP,
			DstIP:   dstIP,
			DstPort: dstPort,
			SrcPort: dstPort,
			Request: true,
		},
		ClaimedProtocol: claimed,
		Payload:         payload,
	}
}

func (p MasqueradePacket) Protocol() IPProtocol { return p.ClaimedProtocol }

// GenerateReply derives a refused reply; no service answers masquerade
// traffic with anything useful.
func (p MasqueradePacket) GenerateReply() MasqueradePacket {
	return MasqueradePacket{
		DataPacket:      p.DataPacket.reply(StatusRefused),
		ClaimedProtocol: p.ClaimedProtocol,
	}
}

func (p MasqueradePacket) Describe() map[string]any {
	m := p.DataPacket.describe(p.Protocol())
	m["type"] = "masquerade"
	m["payload"] = p.Payload
	return m
}
