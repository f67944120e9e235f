package protocol

// DNSPacket asks a name server to resolve a domain name to an IP address.
type DNSPacket struct {
	DataPacket
	QueryName  string
	ResolvedIP string // empty until a reply is generated
}

// NewDNSRequest builds a resolution request for name, addressed to the name
// server at serverIP.
func NewDNSRequest(srcIP, serverIP, name string) DNSPacket {
	return DNSPacket{
		DataPacket: DataPacket{
			SrcIP:   srcIP,
			DstIP:   serverIP,
			SrcPort: PortDNS,
			DstPort: PortDNS,
			Request: true,
		},
		QueryName: name,
	}
}

func (p DNSPacket) Protocol() IPProtocol { return UDP }

// GenerateReply derives a fresh reply carrying the resolved address. An
// empty resolvedIP produces a not-found reply with the query echoed back.
func (p DNSPacket) GenerateReply(resolvedIP string) DNSPacket {
	status := StatusOK
	if resolvedIP == "" {
		status = StatusNotFound
	}
	return DNSPacket{
		DataPacket: p.DataPacket.reply(status),
		QueryName:  p.QueryName,
		ResolvedIP: resolvedIP,
	}
}

func (p DNSPacket) Describe() map[string]any {
	m := p.DataPacket.describe(p.Protocol())
	m["type"] = "dns"
	m["query_name"] = p.QueryName
	m["resolved_ip"] = p.ResolvedIP
	return m
}
