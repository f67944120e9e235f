package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Autonomous-Resilient-Cyber-Defence/PrimAITE-sub003/sim/protocol"
)

// SoftwareKind is the closed set of installable software categories.
type SoftwareKind string

const (
	KindService     SoftwareKind = "service"
	KindApplication SoftwareKind = "application"
	KindProcess     SoftwareKind = "process"
)

// OperatingState is whether a piece of software is running, paused or at
// rest. Services and processes rest as STOPPED, applications as CLOSED.
type OperatingState string

const (
	OpRunning OperatingState = "RUNNING"
	OpStopped OperatingState = "STOPPED"
	OpClosed  OperatingState = "CLOSED"
	OpPaused  OperatingState = "PAUSED"
)

// SoftwareHealth is the integrity axis, independent of operating state. A
// RUNNING service can be COMPROMISED.
type SoftwareHealth string

const (
	HealthUnused      SoftwareHealth = "UNUSED"
	HealthGood        SoftwareHealth = "GOOD"
	HealthCompromised SoftwareHealth = "COMPROMISED"
	HealthPatching    SoftwareHealth = "PATCHING"
	HealthOverwhelmed SoftwareHealth = "OVERWHELMED"
)

// PacketHandler implements a variant's protocol behavior. It returns the
// reply to send back, if any.
type PacketHandler func(s *Software, p protocol.Packet) (protocol.Packet, bool)

// SoftwareSpec is the static description of a registered software variant.
type SoftwareSpec struct {
	Kind        SoftwareKind
	DefaultPort int
	Protocol    protocol.IPProtocol
	Handler     PacketHandler
}

// SoftwareRegistry maps variant names to their specs. It is built once at
// process start and passed by reference into configuration loading;
// duplicate registration is a construction error.
type SoftwareRegistry struct {
	specs map[string]SoftwareSpec
}

func NewSoftwareRegistry() *SoftwareRegistry {
	return &SoftwareRegistry{specs: make(map[string]SoftwareSpec)}
}

// Register adds a variant. Registering the same name twice is rejected.
func (r *SoftwareRegistry) Register(variant string, spec SoftwareSpec) error {
	if _, exists := r.specs[variant]; exists {
		return fmt.Errorf("software registry: variant %q already registered", variant)
	}
	r.specs[variant] = spec
	return nil
}

// Spec looks up a variant.
func (r *SoftwareRegistry) Spec(variant string) (SoftwareSpec, bool) {
	s, ok := r.specs[variant]
	return s, ok
}

// Variants returns the registered variant names in sorted order.
func (r *SoftwareRegistry) Variants() []string {
	return sortedKeys(r.specs)
}

// DefaultSoftwareRegistry holds the built-in variants.
var DefaultSoftwareRegistry = buildDefaultRegistry()

func buildDefaultRegistry() *SoftwareRegistry {
	r := NewSoftwareRegistry()
	mustRegister := func(variant string, spec SoftwareSpec) {
		if err := r.Register(variant, spec); err != nil {
			panic(err)
		}
	}
	mustRegister("dns-server", SoftwareSpec{Kind: KindService, DefaultPort: protocol.PortDNS, Protocol: protocol.UDP, Handler: handleDNSServer})
	mustRegister("dns-client", SoftwareSpec{Kind: KindService, DefaultPort: protocol.PortDNS, Protocol: protocol.UDP, Handler: handleDNSClient})
	mustRegister("ntp-server", SoftwareSpec{Kind: KindService, DefaultPort: protocol.PortNTP, Protocol: protocol.UDP, Handler: handleNTPServer})
	mustRegister("ntp-client", SoftwareSpec{Kind: KindService, DefaultPort: protocol.PortNTP, Protocol: protocol.UDP, Handler: handleNTPClient})
	mustRegister("ftp-server", SoftwareSpec{Kind: KindService, DefaultPort: protocol.PortFTP, Protocol: protocol.TCP, Handler: handleFTPServer})
	mustRegister("ftp-client", SoftwareSpec{Kind: KindService, DefaultPort: protocol.PortFTP, Protocol: protocol.TCP, Handler: handleFTPClient})
	mustRegister("web-browser", SoftwareSpec{Kind: KindApplication, DefaultPort: protocol.PortHTTP, Protocol: protocol.TCP})
	return r
}

// Software is one installed service, application or process. Operating and
// health state are independent axes.
type Software struct {
	entity
	router *RequestRouter

	variant   string
	kind      SoftwareKind
	port      int
	proto     protocol.IPProtocol
	autoStart bool

	operating     OperatingState
	health        SoftwareHealth
	visibleHealth SoftwareHealth

	fixDuration    int
	patchCountdown int

	// variant-specific state
	serverIP     string
	dnsRecords   map[string]string
	resolved     map[string]string
	lastSyncTime int64
	synced       bool

	node    *Node
	handler PacketHandler
}

func newSoftware(node *Node, cfg SoftwareConfig, reg *SoftwareRegistry) (*Software, error) {
	spec, ok := reg.Spec(cfg.Variant)
	if !ok {
		return nil, fmt.Errorf("node %s: unknown software variant %q", node.Hostname(), cfg.Variant)
	}
	port := cfg.Port
	if port == 0 {
		port = spec.DefaultPort
	}
	if port < 0 || port > protocol.MaxPort {
		return nil, fmt.Errorf("software %s: port %d out of range", cfg.Variant, port)
	}
	proto := spec.Protocol
	if cfg.Protocol != "" {
		if !protocol.ValidProtocol(cfg.Protocol) {
			return nil, fmt.Errorf("software %s: unknown protocol %q", cfg.Variant, cfg.Protocol)
		}
		proto = protocol.IPProtocol(cfg.Protocol)
	}
	s := &Software{
		entity:        newEntity("software", node.Hostname()+"/"+cfg.Variant),
		router:        NewRequestRouter(),
		variant:       cfg.Variant,
		kind:          spec.Kind,
		port:          port,
		proto:         proto,
		autoStart:     cfg.AutoStart,
		operating:     restState(spec.Kind),
		health:        HealthUnused,
		visibleHealth: HealthUnused,
		fixDuration:   cfg.FixDuration,
		serverIP:      cfg.ServerIP,
		resolved:      make(map[string]string),
		node:          node,
		handler:       spec.Handler,
	}
	if len(cfg.DNSRecords) > 0 {
		s.dnsRecords = make(map[string]string, len(cfg.DNSRecords))
		for name, ip := range cfg.DNSRecords {
			s.dnsRecords[name] = ip
		}
	}
	s.registerOps()
	return s, nil
}

// restState is the non-running resting state for a software kind.
func restState(kind SoftwareKind) OperatingState {
	if kind == KindApplication {
		return OpClosed
	}
	return OpStopped
}

func (s *Software) registerOps() {
	s.router.mustOp("start", s.opStart)
	s.router.mustOp("stop", s.opStop)
	s.router.mustOp("pause", s.opPause)
	s.router.mustOp("resume", s.opResume)
	s.router.mustOp("fix", s.opFix)
	s.router.mustOp("scan", s.opScan)
	s.router.mustOp("compromise", s.opCompromise)
	s.router.mustOp("overwhelm", s.opOverwhelm)
	switch s.variant {
	case "dns-client":
		s.router.mustOp("lookup", s.opLookup)
	case "ntp-client":
		s.router.mustOp("sync", s.opSync)
	case "ftp-client":
		s.router.mustOp("fetch", s.opFetch)
	}
}

func (s *Software) ApplyRequest(path []string, ctx *RequestContext) Response {
	return s.router.Dispatch(path, ctx)
}

// Variant returns the registry name the software was built from.
func (s *Software) Variant() string { return s.variant }

// Kind returns the software category.
func (s *Software) Kind() SoftwareKind { return s.kind }

// Port returns the port the software listens on.
func (s *Software) Port() int { return s.port }

// OperatingState returns the current operating state.
func (s *Software) OperatingState() OperatingState { return s.operating }

// Health returns the actual health state.
func (s *Software) Health() SoftwareHealth { return s.health }

// AutoStart reports whether the software restarts when its node boots.
func (s *Software) AutoStart() bool { return s.autoStart }

// === operating state machine ===

// Start moves resting software to RUNNING. First start moves health from
// UNUSED to GOOD.
func (s *Software) Start() bool {
	if s.operating != OpStopped && s.operating != OpClosed {
		return false
	}
	s.operating = OpRunning
	if s.health == HealthUnused {
		s.health = HealthGood
	}
	logrus.Debugf("%s on %s started", s.variant, s.node.Hostname())
	return true
}

// Stop moves RUNNING software to its resting state. PAUSED software must
// be resumed first; suspension only ever returns to RUNNING.
func (s *Software) Stop() bool {
	if s.operating != OpRunning {
		return false
	}
	s.operating = restState(s.kind)
	logrus.Debugf("%s on %s stopped", s.variant, s.node.Hostname())
	return true
}

// ForceStop unconditionally moves the software to its resting state. Used
// by the node's power-off cascade; always succeeds regardless of health.
func (s *Software) ForceStop() {
	s.operating = restState(s.kind)
}

// Pause suspends RUNNING software.
func (s *Software) Pause() bool {
	if s.operating != OpRunning {
		return false
	}
	s.operating = OpPaused
	return true
}

// Resume returns PAUSED software to RUNNING.
func (s *Software) Resume() bool {
	if s.operating != OpPaused {
		return false
	}
	s.operating = OpRunning
	return true
}

// === health state machine ===

// Fix moves any non-GOOD health state into PATCHING, which counts down to
// GOOD.
func (s *Software) Fix() bool {
	if s.health == HealthGood {
		return false
	}
	s.health = HealthPatching
	s.patchCountdown = s.fixDuration
	if s.patchCountdown <= 0 {
		s.health = HealthGood
	}
	return true
}

// Compromise marks the software compromised.
func (s *Software) Compromise() {
	s.health = HealthCompromised
	s.patchCountdown = 0
}

// Overwhelm marks the software overwhelmed.
func (s *Software) Overwhelm() {
	s.health = HealthOverwhelmed
	s.patchCountdown = 0
}

// Scan refreshes the visible health state from the actual one.
func (s *Software) Scan() {
	s.visibleHealth = s.health
}

// AdvanceTimestep decrements an active patch countdown, resolving to GOOD
// at zero.
func (s *Software) AdvanceTimestep() {
	if s.health == HealthPatching {
		s.patchCountdown--
		if s.patchCountdown <= 0 {
			s.health = HealthGood
		}
	}
}

// Receive hands an inbound packet to the variant handler. Software that is
// not RUNNING drops traffic silently.
func (s *Software) Receive(p protocol.Packet) (protocol.Packet, bool) {
	if s.operating != OpRunning || s.handler == nil {
		return nil, false
	}
	return s.handler(s, p)
}

// === leaf operations ===

func (s *Software) opStart(ctx *RequestContext, args []string) Response {
	if !s.Start() {
		return Failure(fmt.Sprintf("cannot start from state %s", s.operating))
	}
	return Success(nil)
}

func (s *Software) opStop(ctx *RequestContext, args []string) Response {
	if !s.Stop() {
		return Failure(fmt.Sprintf("cannot stop from state %s", s.operating))
	}
	return Success(nil)
}

func (s *Software) opPause(ctx *RequestContext, args []string) Response {
	if !s.Pause() {
		return Failure(fmt.Sprintf("cannot pause from state %s", s.operating))
	}
	return Success(nil)
}

func (s *Software) opResume(ctx *RequestContext, args []string) Response {
	if !s.Resume() {
		return Failure(fmt.Sprintf("cannot resume from state %s", s.operating))
	}
	return Success(nil)
}

func (s *Software) opFix(ctx *RequestContext, args []string) Response {
	if !s.Fix() {
		return Failure("health already GOOD")
	}
	return Success(nil)
}

func (s *Software) opScan(ctx *RequestContext, args []string) Response {
	s.Scan()
	return Success(map[string]any{"health_state": string(s.visibleHealth)})
}

func (s *Software) opCompromise(ctx *RequestContext, args []string) Response {
	s.Compromise()
	return Success(nil)
}

func (s *Software) opOverwhelm(ctx *RequestContext, args []string) Response {
	s.Overwhelm()
	return Success(nil)
}

// opLookup queues a DNS resolution for the named host; the exchange
// resolves during the next timestep's delivery phase.
func (s *Software) opLookup(ctx *RequestContext, args []string) Response {
	if len(args) < 1 {
		return Failure("lookup requires a domain name")
	}
	if s.operating != OpRunning {
		return Failure("dns-client not running")
	}
	srcIP, ok := s.node.primaryIP()
	if !ok {
		return Failure("node has no addressable interface")
	}
	if s.serverIP == "" {
		return Failure("dns-client has no server configured")
	}
	s.node.sendPacket(protocol.NewDNSRequest(srcIP, s.serverIP, args[0]))
	return Response{Status: StatusPending, Data: map[string]any{"query_name": args[0]}}
}

// opSync queues an NTP time request to the configured server.
func (s *Software) opSync(ctx *RequestContext, args []string) Response {
	if s.operating != OpRunning {
		return Failure("ntp-client not running")
	}
	srcIP, ok := s.node.primaryIP()
	if !ok {
		return Failure("node has no addressable interface")
	}
	if s.serverIP == "" {
		return Failure("ntp-client has no server configured")
	}
	s.node.sendPacket(protocol.NewNTPRequest(srcIP, s.serverIP))
	return Response{Status: StatusPending}
}

// opFetch queues an FTP retrieve of the named file from the configured
// server.
func (s *Software) opFetch(ctx *RequestContext, args []string) Response {
	if len(args) < 1 {
		return Failure("fetch requires a file name")
	}
	if s.operating != OpRunning {
		return Failure("ftp-client not running")
	}
	srcIP, ok := s.node.primaryIP()
	if !ok {
		return Failure("node has no addressable interface")
	}
	if s.serverIP == "" {
		return Failure("ftp-client has no server configured")
	}
	s.node.sendPacket(protocol.NewFTPRequest(srcIP, s.serverIP, protocol.FTPRetrieve, args[0], 0))
	return Response{Status: StatusPending, Data: map[string]any{"file_name": args[0]}}
}

func (s *Software) DescribeState() map[string]any {
	m := map[string]any{
		"variant":              s.variant,
		"kind":                 string(s.kind),
		"operating_state":      string(s.operating),
		"health_state":         string(s.health),
		"visible_health_state": string(s.visibleHealth),
		"port":                 s.port,
		"protocol":             string(s.proto),
		"auto_start":           s.autoStart,
	}
	switch s.variant {
	case "dns-client":
		resolved := map[string]any{}
		for name, ip := range s.resolved {
			resolved[name] = ip
		}
		m["resolved"] = resolved
	case "ntp-client":
		m["synced"] = s.synced
		m["time"] = s.lastSyncTime
	}
	return m
}

// === built-in variant handlers ===

func handleDNSServer(s *Software, p protocol.Packet) (protocol.Packet, bool) {
	req, ok := p.(protocol.DNSPacket)
	if !ok || !req.Request {
		return nil, false
	}
	return req.GenerateReply(s.dnsRecords[req.QueryName]), true
}

func handleDNSClient(s *Software, p protocol.Packet) (protocol.Packet, bool) {
	rep, ok := p.(protocol.DNSPacket)
	if !ok || rep.Request {
		return nil, false
	}
	if rep.StatusCode == protocol.StatusOK {
		s.resolved[rep.QueryName] = rep.ResolvedIP
	}
	return nil, false
}

func handleNTPServer(s *Software, p protocol.Packet) (protocol.Packet, bool) {
	req, ok := p.(protocol.NTPPacket)
	if !ok || !req.Request {
		return nil, false
	}
	return req.GenerateReply(int64(s.node.clock())), true
}

func handleNTPClient(s *Software, p protocol.Packet) (protocol.Packet, bool) {
	rep, ok := p.(protocol.NTPPacket)
	if !ok || rep.Request {
		return nil, false
	}
	s.lastSyncTime = rep.Time
	s.synced = true
	return nil, false
}

func handleFTPServer(s *Software, p protocol.Packet) (protocol.Packet, bool) {
	req, ok := p.(protocol.FTPPacket)
	if !ok || !req.Request {
		return nil, false
	}
	switch req.Command {
	case protocol.FTPRetrieve:
		if f, ok := s.node.findFile(req.FileName); ok && f.Readable() {
			return req.GenerateReply(protocol.StatusOK, f.sizeBytes), true
		}
		return req.GenerateReply(protocol.StatusNotFound, 0), true
	case protocol.FTPStore:
		fd, ok := s.node.fs.Folder("root")
		if !ok {
			return req.GenerateReply(protocol.StatusRefused, 0), true
		}
		cfg := FileConfig{Name: req.FileName, SizeBytes: req.SizeBytes}
		cfg.applyDefaults()
		if err := fd.addFile(cfg); err != nil {
			return req.GenerateReply(protocol.StatusRefused, 0), true
		}
		return req.GenerateReply(protocol.StatusOK, req.SizeBytes), true
	}
	return nil, false
}

func handleFTPClient(s *Software, p protocol.Packet) (protocol.Packet, bool) {
	rep, ok := p.(protocol.FTPPacket)
	if !ok || rep.Request {
		return nil, false
	}
	if rep.StatusCode == protocol.StatusOK && rep.Command == protocol.FTPRetrieve {
		if fd, ok := s.node.fs.Folder("root"); ok {
			cfg := FileConfig{Name: rep.FileName, SizeBytes: rep.SizeBytes}
			cfg.applyDefaults()
			// overwriting an existing local copy is fine
			if _, exists := fd.File(rep.FileName); !exists {
				_ = fd.addFile(cfg)
			}
		}
	}
	return nil, false
}
