package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate_AcceptsCanonicalTopology(t *testing.T) {
	cfg := officeConfig(1)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(cfg *SimulationConfig)
	}{
		{"no nodes", func(cfg *SimulationConfig) { cfg.Nodes = nil }},
		{"malformed hostname", func(cfg *SimulationConfig) { cfg.Nodes[0].Hostname = "pc 1!" }},
		{"unknown node type", func(cfg *SimulationConfig) { cfg.Nodes[0].Type = "toaster" }},
		{"malformed ip", func(cfg *SimulationConfig) { cfg.Nodes[0].NICs[0].IP = "10.0.0.256" }},
		{"malformed mac", func(cfg *SimulationConfig) { cfg.Nodes[0].NICs[0].MAC = "zz:zz" }},
		{"port out of range", func(cfg *SimulationConfig) { cfg.Nodes[0].Software[0].Port = 70000 }},
		{"unknown protocol", func(cfg *SimulationConfig) { cfg.Nodes[0].Software[0].Protocol = "sctp" }},
		{"unknown variant", func(cfg *SimulationConfig) { cfg.Nodes[0].Software[0].Variant = "bitcoin-miner" }},
		{"negative startup duration", func(cfg *SimulationConfig) { cfg.Nodes[0].StartUpDuration = -1 }},
		{"duplicate hostname", func(cfg *SimulationConfig) { cfg.Nodes[1].Hostname = "pc1" }},
		{"duplicate nic on node", func(cfg *SimulationConfig) { cfg.Nodes[2].NICs[1].Name = "port1" }},
		{"duplicate software on node", func(cfg *SimulationConfig) { cfg.Nodes[0].Software[1].Variant = "dns-client" }},
		{"duplicate folder on node", func(cfg *SimulationConfig) {
			cfg.Nodes[0].Folders = append(cfg.Nodes[0].Folders, FolderConfig{Name: "root"})
		}},
		{"link endpoints on one node", func(cfg *SimulationConfig) { cfg.Links[0].NodeB = "pc1" }},
		{"link references unknown node", func(cfg *SimulationConfig) { cfg.Links[0].NodeB = "sw9" }},
		{"duplicate account", func(cfg *SimulationConfig) { cfg.Accounts[1].Username = "alice" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := officeConfig(1)
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigDefaults_FillOmittedDurations(t *testing.T) {
	cfg := SimulationConfig{
		Seed: 1,
		Nodes: []NodeConfig{{
			Hostname: "pc1",
			Type:     NodeComputer,
			NICs:     []NICConfig{{Name: "eth0", IP: "10.0.0.1"}},
			Software: []SoftwareConfig{{Variant: "web-browser"}},
			Folders: []FolderConfig{{
				Name:  "root",
				Files: []FileConfig{{Name: "a.txt"}},
			}},
		}},
		Links: []LinkConfig{},
	}
	require.NoError(t, cfg.Validate())
	cfg.applyDefaults()

	assert.Equal(t, defaultStartUpDuration, cfg.Nodes[0].StartUpDuration)
	assert.Equal(t, defaultShutDownDuration, cfg.Nodes[0].ShutDownDuration)
	assert.Equal(t, defaultFixDuration, cfg.Nodes[0].Software[0].FixDuration)
	assert.Equal(t, defaultRepairDuration, cfg.Nodes[0].Folders[0].Files[0].RepairDuration)
	assert.Equal(t, defaultRestoreDuration, cfg.Nodes[0].Folders[0].Files[0].RestoreDuration)
	assert.Equal(t, "data", cfg.Nodes[0].Folders[0].Files[0].Type)
}

func TestNewSimulation_LeavesCallerConfigUntouched(t *testing.T) {
	cfg := SimulationConfig{
		Seed: 1,
		Nodes: []NodeConfig{{
			Hostname: "pc1",
			Type:     NodeComputer,
			NICs:     []NICConfig{{Name: "eth0", IP: "10.0.0.1"}},
			Software: []SoftwareConfig{{Variant: "web-browser"}},
			Folders: []FolderConfig{{
				Name:  "root",
				Files: []FileConfig{{Name: "a.txt"}},
			}},
		}},
	}

	_, err := NewSimulation(cfg)
	require.NoError(t, err)

	// construction defaults its own copy; the caller's zero values survive
	assert.Equal(t, 0, cfg.Nodes[0].StartUpDuration)
	assert.Equal(t, 0, cfg.Nodes[0].Software[0].FixDuration)
	assert.Equal(t, 0, cfg.Nodes[0].Folders[0].Files[0].RepairDuration)
	assert.Equal(t, "", cfg.Nodes[0].Folders[0].Files[0].Type)
}

func TestConfigDefaults_PreserveExplicitValues(t *testing.T) {
	cfg := officeConfig(1)
	require.NoError(t, cfg.Validate())
	cfg.applyDefaults()

	assert.Equal(t, 3, cfg.Nodes[0].StartUpDuration)
	assert.Equal(t, 2, cfg.Nodes[0].Folders[0].Files[0].RepairDuration)
	assert.Equal(t, float64(100), cfg.Links[0].BandwidthMbps)
}
