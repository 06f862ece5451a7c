package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nestsim/nestsim/sim"
	"github.com/nestsim/nestsim/sim/results"
)

var (
	// CLI flags for the run subcommand
	configPath string // YAML simulation configuration
	outputDir  string // Base directory for run outputs
	dbPath     string // Optional SQLite database for run persistence
	seed       int64  // Random seed; overrides the config's seed when set
	logLevel   string // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "nestsim",
	Short: "Discrete-event simulator for hen nest-occupancy behavior",
}

// runCmd executes one simulation from a YAML config and writes its outputs
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the nest-occupancy simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := sim.LoadConfig(configPath)
		if err != nil {
			logrus.Fatalf("Could not load config: %v", err)
		}

		runSeed := cfg.Simulation.Seed
		if cmd.Flags().Changed("seed") {
			runSeed = seed
		}

		s, err := sim.NewSimulator(cfg, runSeed)
		if err != nil {
			logrus.Fatalf("Could not construct simulator: %v", err)
		}

		startTime := time.Now()
		res, err := s.Run()
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		dir := filepath.Join(outputDir, cfg.Name())
		if err := results.WriteAll(dir, cfg.StartTime(), res); err != nil {
			logrus.Fatalf("Could not write outputs: %v", err)
		}

		if dbPath != "" {
			ctx := context.Background()
			store, err := results.OpenStore(ctx, dbPath)
			if err != nil {
				logrus.Fatalf("Could not open results db: %v", err)
			}
			defer store.Close()
			info := results.RunInfo{
				Name:         cfg.Name(),
				Seed:         runSeed,
				Discipline:   cfg.Simulation.Discipline,
				DurationDays: cfg.Simulation.DurationDays,
			}
			runID, err := store.SaveRun(ctx, info, res)
			if err != nil {
				logrus.Fatalf("Could not persist run: %v", err)
			}
			logrus.Infof("Persisted run %s to %s", runID, dbPath)
		}

		logrus.Infof("Wrote %d log entries to %s in %s", len(res.Logs), dir, time.Since(startTime).Round(time.Millisecond))
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&configPath, "config", "config/config.yaml", "Path to the YAML simulation config")
	runCmd.Flags().StringVar(&outputDir, "output-dir", "data", "Base directory for run outputs")
	runCmd.Flags().StringVar(&dbPath, "db", "", "Optional SQLite database path for run persistence")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (overrides the config's seed)")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(runCmd)
}
