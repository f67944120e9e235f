package protocol

// NTPPacket requests the current simulation time from a time server.
//
// The reply is a fresh packet like every other protocol here; the Time field
// is only meaningful on replies.
type NTPPacket struct {
	DataPacket
	Time int64
}

// NewNTPRequest builds a time-sync request addressed to serverIP.
func NewNTPRequest(srcIP, serverIP string) NTPPacket {
	return NTPPacket{
		DataPacket: DataPacket{
			SrcIP:   srcIP,
			DstIP:   serverIP,
			SrcPort: PortNTP,
			DstPort: PortNTP,
			Request: true,
		},
	}
}

func (p NTPPacket) Protocol() IPProtocol { return UDP }

// GenerateReply derives a fresh reply stamped with the server's current
// time.
func (p NTPPacket) GenerateReply(now int64) NTPPacket {
	return NTPPacket{
		DataPacket: p.DataPacket.reply(StatusOK),
		Time:       now,
	}
}

func (p NTPPacket) Describe() map[string]any {
	m := p.DataPacket.describe(p.Protocol())
	m["type"] = "ntp"
	m["time"] = p.Time
	return m
}
