package sim

// Shared scenario builders for the engine tests.

// officeConfig builds the canonical two-computers-via-a-switch topology:
//
//	pc1 (10.0.0.1) --- sw1 --- pc2 (10.0.0.2)
//	                    |
//	                   srv (10.0.0.3) running dns/ntp/ftp servers
//
// All nodes start powered on with enabled interfaces.
func officeConfig(seed int64) SimulationConfig {
	return SimulationConfig{
		Seed: seed,
		Nodes: []NodeConfig{
			{
				Hostname:         "pc1",
				Type:             NodeComputer,
				PoweredOn:        true,
				StartUpDuration:  3,
				ShutDownDuration: 3,
				NICs:             []NICConfig{{Name: "eth0", IP: "10.0.0.1", SubnetMask: "255.255.255.0"}},
				Software: []SoftwareConfig{
					{Variant: "dns-client", AutoStart: true, ServerIP: "10.0.0.3"},
					{Variant: "ntp-client", AutoStart: true, ServerIP: "10.0.0.3"},
					{Variant: "ftp-client", AutoStart: true, ServerIP: "10.0.0.3"},
					{Variant: "web-browser"},
				},
				Folders: []FolderConfig{
					{Name: "root", Files: []FileConfig{
						{Name: "notes.txt", Type: "text", SizeBytes: 128, RepairDuration: 2, RestoreDuration: 3},
					}},
				},
			},
			{
				Hostname:         "pc2",
				Type:             NodeComputer,
				PoweredOn:        true,
				StartUpDuration:  3,
				ShutDownDuration: 3,
				NICs:             []NICConfig{{Name: "eth0", IP: "10.0.0.2", SubnetMask: "255.255.255.0"}},
			},
			{
				Hostname:  "sw1",
				Type:      NodeSwitch,
				PoweredOn: true,
				NICs: []NICConfig{
					{Name: "port1"}, {Name: "port2"}, {Name: "port3"},
				},
			},
			{
				Hostname:  "srv",
				Type:      NodeServer,
				PoweredOn: true,
				NICs:      []NICConfig{{Name: "eth0", IP: "10.0.0.3", SubnetMask: "255.255.255.0"}},
				Software: []SoftwareConfig{
					{Variant: "dns-server", AutoStart: true, DNSRecords: map[string]string{"intranet.local": "10.0.0.9"}},
					{Variant: "ntp-server", AutoStart: true},
					{Variant: "ftp-server", AutoStart: true},
				},
				Folders: []FolderConfig{
					{Name: "root", Files: []FileConfig{
						{Name: "report.pdf", Type: "document", SizeBytes: 4096},
					}},
				},
			},
		},
		Links: []LinkConfig{
			{NodeA: "pc1", NICA: "eth0", NodeB: "sw1", NICB: "port1"},
			{NodeA: "pc2", NICA: "eth0", NodeB: "sw1", NICB: "port2"},
			{NodeA: "srv", NICA: "eth0", NodeB: "sw1", NICB: "port3"},
		},
		Accounts: []AccountConfig{
			{Username: "alice", Password: "hunter2"},
			{Username: "svc-backup", Disabled: true},
		},
	}
}

// mustSimulation builds a Simulation from cfg or panics; for tests where
// construction is not the behavior under test.
func mustSimulation(cfg SimulationConfig) *Simulation {
	s, err := NewSimulation(cfg)
	if err != nil {
		panic(err)
	}
	return s
}
