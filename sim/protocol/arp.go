package protocol

// ARPPacket resolves an IP address to the MAC address of the interface that
// owns it. Requests are broadcast; the owning node answers with its MAC.
type ARPPacket struct {
	DataPacket
	SenderMAC string
	SenderIP  string
	TargetMAC string // empty on requests
	TargetIP  string
}

// NewARPRequest builds a who-has request for targetIP originating from the
// interface with senderMAC/senderIP.
func NewARPRequest(senderMAC, senderIP, targetIP string) ARPPacket {
	return ARPPacket{
		DataPacket: DataPacket{SrcIP: senderIP, DstIP: targetIP, Request: true},
		SenderMAC:  senderMAC,
		SenderIP:   senderIP,
		TargetIP:   targetIP,
	}
}

func (p ARPPacket) Protocol() IPProtocol { return UDP }

// GenerateReply derives a fresh reply announcing that the target IP is held
// by the interface with targetMAC. The request packet is left untouched.
func (p ARPPacket) GenerateReply(targetMAC string) ARPPacket {
	return ARPPacket{
		DataPacket: p.DataPacket.reply(StatusOK),
		SenderMAC:  targetMAC,
		SenderIP:   p.TargetIP,
		TargetMAC:  p.SenderMAC,
		TargetIP:   p.SenderIP,
	}
}

func (p ARPPacket) Describe() map[string]any {
	m := p.DataPacket.describe(p.Protocol())
	m["type"] = "arp"
	m["sender_mac"] = p.SenderMAC
	m["sender_ip"] = p.SenderIP
	m["target_mac"] = p.TargetMAC
	m["target_ip"] = p.TargetIP
	return m
}
