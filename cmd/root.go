package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/Autonomous-Resilient-Cyber-Defence/PrimAITE-sub003/sim"
)

var (
	// CLI flags for the simulation run
	seed         int64  // Master seed for all engine randomness
	steps        int    // Number of timesteps to advance
	logLevel     string // Log verbosity level
	scenarioPath string // Path to the scenario YAML describing the episode
	actionsPath  string // Optional YAML script of request paths, one per step
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "netsim",
	Short: "Discrete-time simulation of an enterprise network for agent training",
}

// runCmd builds a simulation from the scenario file and advances it,
// applying scripted actions when provided.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the network simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if scenarioPath == "" {
			logrus.Fatalf("Scenario file not provided. Exiting simulation.")
		}

		cfg, err := LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("Failed to load scenario: %v", err)
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = seed
		}

		simulation, err := sim.NewSimulation(*cfg)
		if err != nil {
			logrus.Fatalf("Failed to construct simulation: %v", err)
		}

		var actions [][]string
		if actionsPath != "" {
			actions, err = LoadActions(actionsPath)
			if err != nil {
				logrus.Fatalf("Failed to load actions: %v", err)
			}
		}

		for step := 0; step < steps; step++ {
			if step < len(actions) {
				resp := simulation.ApplyAction(actions[step])
				logrus.Infof("step %d: action %v -> %s", step, actions[step], resp.Status)
			}
			simulation.ApplyTimestep()
		}

		logrus.Infof("simulation finished after %d steps", simulation.CurrentStep())
	},
}

func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for engine randomness")
	runCmd.Flags().IntVar(&steps, "steps", 100, "Number of timesteps to simulate")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the scenario YAML file")
	runCmd.Flags().StringVar(&actionsPath, "actions", "", "Path to a YAML script of request paths")

	rootCmd.AddCommand(runCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
