package protocol

// FTPCommand is the closed set of file-transfer commands the simulation
// models.
type FTPCommand string

const (
	FTPRetrieve FTPCommand = "RETR"
	FTPStore    FTPCommand = "STOR"
)

// FTPPacket carries a file-transfer command between an FTP client and
// server. Transfers are modelled as a single request/reply exchange; the
// reply's SizeBytes stands in for the transferred payload.
type FTPPacket struct {
	DataPacket
	Command   FTPCommand
	FileName  string
	SizeBytes int
}

// NewFTPRequest builds a transfer request addressed to serverIP. sizeBytes
// is only meaningful for STOR requests.
func NewFTPRequest(srcIP, serverIP string, cmd FTPCommand, fileName string, sizeBytes int) FTPPacket {
	return FTPPacket{
		DataPacket: DataPacket{
			SrcIP:   srcIP,
			DstIP:   serverIP,
			SrcPort: PortFTP,
			DstPort: PortFTP,
			Request: true,
		},
		Command:   cmd,
		FileName:  fileName,
		SizeBytes: sizeBytes,
	}
}

func (p FTPPacket) Protocol() IPProtocol { return TCP }

// GenerateReply derives a fresh reply with the given status. sizeBytes
// reports the size of the transferred file on success.
func (p FTPPacket) GenerateReply(status int, sizeBytes int) FTPPacket {
	return FTPPacket{
		DataPacket: p.DataPacket.reply(status),
		Command:    p.Command,
		FileName:   p.FileName,
		SizeBytes:  sizeBytes,
	}
}

func (p FTPPacket) Describe() map[string]any {
	m := p.DataPacket.describe(p.Protocol())
	m["type"] = "ftp"
	m["command"] = string(p.Command)
	m["file_name"] = p.FileName
	m["size_bytes"] = p.SizeBytes
	return m
}
