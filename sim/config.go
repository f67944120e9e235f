package sim

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the shared struct validator. Construction configs are closed,
// tagged structs; anything malformed is rejected before any engine state is
// mutated.
var validate = validator.New()

// Default countdown durations applied when a config leaves them unset.
const (
	defaultStartUpDuration  = 3
	defaultShutDownDuration = 3
	defaultFixDuration      = 2
	defaultRepairDuration   = 2
	defaultRestoreDuration  = 3
)

// NICConfig describes one network interface on a node.
type NICConfig struct {
	Name       string `yaml:"name" validate:"required"`
	MAC        string `yaml:"mac" validate:"omitempty,mac"`
	IP         string `yaml:"ip" validate:"omitempty,ip4_addr"`
	SubnetMask string `yaml:"subnet_mask" validate:"omitempty,ip4_addr"`
	// Disabled interfaces stay down until explicitly enabled.
	Disabled bool `yaml:"disabled"`
}

// SoftwareConfig describes one installed software instance. Variant names a
// registered software kind (e.g. "dns-server"); Port zero means "use the
// variant's default port".
type SoftwareConfig struct {
	Variant     string `yaml:"variant" validate:"required"`
	AutoStart   bool   `yaml:"auto_start"`
	Port        int    `yaml:"port" validate:"omitempty,min=0,max=65535"`
	Protocol    string `yaml:"protocol" validate:"omitempty,oneof=tcp udp icmp"`
	FixDuration int    `yaml:"fix_duration" validate:"gte=0"`
	// ServerIP points client variants at their server.
	ServerIP string `yaml:"server_ip" validate:"omitempty,ip4_addr"`
	// DNSRecords seeds a dns-server variant's zone.
	DNSRecords map[string]string `yaml:"dns_records" validate:"omitempty,dive,ip4_addr"`
}

func (c *SoftwareConfig) applyDefaults() {
	if c.FixDuration == 0 {
		c.FixDuration = defaultFixDuration
	}
}

// FileConfig describes one file created at construction time.
type FileConfig struct {
	Name            string `yaml:"name" validate:"required"`
	Type            string `yaml:"type"`
	SizeBytes       int    `yaml:"size_bytes" validate:"gte=0"`
	RepairDuration  int    `yaml:"repair_duration" validate:"gte=0"`
	RestoreDuration int    `yaml:"restore_duration" validate:"gte=0"`
}

func (c *FileConfig) applyDefaults() {
	if c.Type == "" {
		c.Type = "data"
	}
	if c.RepairDuration == 0 {
		c.RepairDuration = defaultRepairDuration
	}
	if c.RestoreDuration == 0 {
		c.RestoreDuration = defaultRestoreDuration
	}
}

// FolderConfig describes one folder and its initial files.
type FolderConfig struct {
	Name  string       `yaml:"name" validate:"required"`
	Files []FileConfig `yaml:"files" validate:"dive"`
}

// NodeConfig describes one network-attached device.
type NodeConfig struct {
	Hostname         string           `yaml:"hostname" validate:"required,hostname_rfc1123"`
	Type             NodeType         `yaml:"type" validate:"required,oneof=computer server switch router printer"`
	StartUpDuration  int              `yaml:"start_up_duration" validate:"gte=0"`
	ShutDownDuration int              `yaml:"shut_down_duration" validate:"gte=0"`
	PoweredOn        bool             `yaml:"powered_on"`
	NICs             []NICConfig      `yaml:"nics" validate:"dive"`
	Software         []SoftwareConfig `yaml:"software" validate:"dive"`
	Folders          []FolderConfig   `yaml:"folders" validate:"dive"`
}

// clone deep-copies the node config, including the nested slices and maps,
// so applying defaults never writes through a caller's backing arrays.
func (c NodeConfig) clone() NodeConfig {
	out := c
	out.NICs = append([]NICConfig(nil), c.NICs...)
	out.Software = make([]SoftwareConfig, len(c.Software))
	for i, sc := range c.Software {
		out.Software[i] = sc
		if len(sc.DNSRecords) > 0 {
			records := make(map[string]string, len(sc.DNSRecords))
			for name, ip := range sc.DNSRecords {
				records[name] = ip
			}
			out.Software[i].DNSRecords = records
		}
	}
	out.Folders = make([]FolderConfig, len(c.Folders))
	for i, fc := range c.Folders {
		out.Folders[i] = fc
		out.Folders[i].Files = append([]FileConfig(nil), fc.Files...)
	}
	return out
}

func (c *NodeConfig) applyDefaults() {
	if c.StartUpDuration == 0 {
		c.StartUpDuration = defaultStartUpDuration
	}
	if c.ShutDownDuration == 0 {
		c.ShutDownDuration = defaultShutDownDuration
	}
	for i := range c.Software {
		c.Software[i].applyDefaults()
	}
	for i := range c.Folders {
		for j := range c.Folders[i].Files {
			c.Folders[i].Files[j].applyDefaults()
		}
	}
}

// LinkConfig joins two named interfaces on two distinct nodes.
type LinkConfig struct {
	NodeA         string  `yaml:"node_a" validate:"required"`
	NICA          string  `yaml:"nic_a" validate:"required"`
	NodeB         string  `yaml:"node_b" validate:"required"`
	NICB          string  `yaml:"nic_b" validate:"required"`
	BandwidthMbps float64 `yaml:"bandwidth_mbps" validate:"gte=0"`
}

func (c *LinkConfig) applyDefaults() {
	if c.BandwidthMbps == 0 {
		c.BandwidthMbps = 100
	}
}

// AccountConfig describes one domain account.
type AccountConfig struct {
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password"`
	Disabled bool   `yaml:"disabled"`
}

// SimulationConfig is the full construction-time description of one
// episode: the seed, the topology and the auxiliary domain registry.
type SimulationConfig struct {
	Seed     int64           `yaml:"seed"`
	Nodes    []NodeConfig    `yaml:"nodes" validate:"required,dive"`
	Links    []LinkConfig    `yaml:"links" validate:"dive"`
	Accounts []AccountConfig `yaml:"accounts" validate:"dive"`
}

// Validate applies the struct tags plus the cross-entity invariants that
// tags cannot express (duplicate hostnames, duplicate names within a node).
// It mutates nothing; construction only proceeds on a nil return.
func (c *SimulationConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("simulation config: %w", err)
	}
	hostnames := make(map[string]bool)
	for _, nc := range c.Nodes {
		if hostnames[nc.Hostname] {
			return fmt.Errorf("simulation config: duplicate hostname %q", nc.Hostname)
		}
		hostnames[nc.Hostname] = true
		if err := validateNodeNames(nc); err != nil {
			return err
		}
	}
	for _, lc := range c.Links {
		if lc.NodeA == lc.NodeB {
			return fmt.Errorf("simulation config: link endpoints must be on distinct nodes (%q)", lc.NodeA)
		}
		if !hostnames[lc.NodeA] || !hostnames[lc.NodeB] {
			return fmt.Errorf("simulation config: link references unknown node %q or %q", lc.NodeA, lc.NodeB)
		}
	}
	usernames := make(map[string]bool)
	for _, ac := range c.Accounts {
		if usernames[ac.Username] {
			return fmt.Errorf("simulation config: duplicate account %q", ac.Username)
		}
		usernames[ac.Username] = true
	}
	return nil
}

func validateNodeNames(nc NodeConfig) error {
	nics := make(map[string]bool)
	for _, ic := range nc.NICs {
		if nics[ic.Name] {
			return fmt.Errorf("node %s: duplicate nic %q", nc.Hostname, ic.Name)
		}
		nics[ic.Name] = true
	}
	variants := make(map[string]bool)
	for _, sc := range nc.Software {
		if variants[sc.Variant] {
			return fmt.Errorf("node %s: duplicate software %q", nc.Hostname, sc.Variant)
		}
		variants[sc.Variant] = true
		if _, ok := DefaultSoftwareRegistry.Spec(sc.Variant); !ok {
			return fmt.Errorf("node %s: unknown software variant %q", nc.Hostname, sc.Variant)
		}
	}
	folders := make(map[string]bool)
	for _, fc := range nc.Folders {
		if folders[fc.Name] {
			return fmt.Errorf("node %s: duplicate folder %q", nc.Hostname, fc.Name)
		}
		folders[fc.Name] = true
	}
	return nil
}

// clone deep-copies the whole construction config; the Simulation stores
// and defaults its own copy, leaving the caller's untouched.
func (c SimulationConfig) clone() SimulationConfig {
	out := c
	out.Nodes = make([]NodeConfig, len(c.Nodes))
	for i, nc := range c.Nodes {
		out.Nodes[i] = nc.clone()
	}
	out.Links = append([]LinkConfig(nil), c.Links...)
	out.Accounts = append([]AccountConfig(nil), c.Accounts...)
	return out
}

func (c *SimulationConfig) applyDefaults() {
	for i := range c.Nodes {
		c.Nodes[i].applyDefaults()
	}
	for i := range c.Links {
		c.Links[i].applyDefaults()
	}
}
