package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	sim "github.com/evesim/evesim/sim"
	"github.com/evesim/evesim/sim/replication"
	"github.com/evesim/evesim/sim/trace"
)

var (
	// CLI flags for the queueing model
	meanInterarrival float64 // Mean time between customer arrivals
	meanService      float64 // Mean service duration
	numCustomers     int64   // Customers whose delay must be observed
	queueLimit       int     // Max customers waiting for the server

	// CLI flags for run control
	seed         int64  // Seed for the customer stream
	entropy      bool   // Seed from the wall clock instead of --seed
	logLevel     string // Log verbosity level
	configPath   string // YAML config file
	inputPath    string // Legacy whitespace-separated parameter file
	outputPath   string // Report file (stdout when empty)
	outputFormat string // Report format: text, json or yaml
	traceLevel   string // Event trace level

	// CLI flags for replication studies
	replications int     // Number of independent replications
	workers      int     // Max concurrent replications
	confidence   float64 // Confidence level of interval estimates
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "evesim",
	Short: "Discrete-event simulator for a single-server queueing system",
}

// setupLogging applies --log and rejects an unknown --format.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)

	if !validFormats[outputFormat] {
		logrus.Fatalf("Invalid output format: %s", outputFormat)
	}
}

// runCmd executes one simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation and report its summary",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}

		cfg, fc, err := resolveSimConfig(cmd.Flags())
		if err != nil {
			logrus.Fatalf("Invalid simulation parameters: %v", err)
		}
		runSeed := resolveSeed(fc, cmd.Flags())

		s, err := sim.NewSimulator(cfg, sim.NewKeyedSource(sim.NewSimulationKey(runSeed)))
		if err != nil {
			logrus.Fatalf("Invalid simulation parameters: %v", err)
		}
		if traceLevel != "" && trace.TraceLevel(traceLevel) != trace.TraceLevelNone {
			s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(traceLevel)})
		}

		out, err := openOutput(outputPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		report := RunReport{Parameters: newParameters(cfg, runSeed)}
		summary, runErr := s.Run()
		var abort *sim.AbortError
		switch {
		case errors.As(runErr, &abort):
			report.Abort = abort
		case runErr != nil:
			logrus.Fatalf("Simulation failed: %v", runErr)
		default:
			report.Summary = &summary
			if s.Trace != nil {
				report.Trace = trace.Summarize(s.Trace)
			}
		}

		if err := WriteRunReport(out, outputFormat, report); err != nil {
			logrus.Fatalf("Error writing report: %v", err)
		}
		if err := out.Close(); err != nil {
			logrus.Fatalf("Error closing report: %v", err)
		}
		if abort != nil {
			os.Exit(exitCode(abort.Reason))
		}
		logrus.Info("Simulation complete.")
	},
}

// replicateCmd executes independent replications and reports interval estimates
var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Run independent replications and report confidence intervals",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, fc, err := resolveSimConfig(cmd.Flags())
		if err != nil {
			logrus.Fatalf("Invalid simulation parameters: %v", err)
		}
		studySeed := resolveSeed(fc, cmd.Flags())
		n, conf := replications, confidence
		if fc.Replications != nil && !cmd.Flags().Changed("replications") {
			n = *fc.Replications
		}
		if fc.Confidence != nil && !cmd.Flags().Changed("confidence") {
			conf = *fc.Confidence
		}

		res, err := replication.Run(context.Background(), replication.Config{
			Sim:          cfg,
			Replications: n,
			Workers:      workers,
			Key:          sim.NewSimulationKey(studySeed),
			Confidence:   conf,
		})
		if err != nil {
			logrus.Fatalf("Replication study failed: %v", err)
		}

		out, err := openOutput(outputPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		report := ReplicationReport{
			Parameters:   newParameters(cfg, studySeed),
			Replications: n,
			Result:       res,
		}
		if err := WriteReplicationReport(out, outputFormat, report); err != nil {
			logrus.Fatalf("Error writing report: %v", err)
		}
		if err := out.Close(); err != nil {
			logrus.Fatalf("Error closing report: %v", err)
		}
		logrus.Info("Replications complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerSimFlags binds the flags shared by run and replicate.
func registerSimFlags(fs *pflag.FlagSet) {
	fs.Float64Var(&meanInterarrival, "mean-interarrival", 1.0, "Mean interarrival time")
	fs.Float64Var(&meanService, "mean-service", 0.5, "Mean service time")
	fs.Int64Var(&numCustomers, "num-customers", 1000, "Number of customers whose delay is observed")
	fs.IntVar(&queueLimit, "queue-limit", sim.DefaultQueueLimit, "Max customers waiting for the server")

	fs.Int64Var(&seed, "seed", 42, "Seed for interarrival and service draws")
	fs.BoolVar(&entropy, "entropy", false, "Seed from the wall clock instead of --seed; the seed used is echoed in the report")
	fs.StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	fs.StringVar(&configPath, "config", "", "YAML config file")
	fs.StringVar(&inputPath, "input", "", "Parameter file with mean interarrival, mean service and number of customers")
	fs.StringVar(&outputPath, "output", "", "Report file (default stdout)")
	fs.StringVar(&outputFormat, "format", FormatText, "Report format (text, json, yaml)")
}

// init sets up CLI flags and subcommands
func init() {
	registerSimFlags(runCmd.Flags())
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Event trace level (none, services, events)")

	registerSimFlags(replicateCmd.Flags())
	replicateCmd.Flags().IntVar(&replications, "replications", 10, "Number of independent replications")
	replicateCmd.Flags().IntVar(&workers, "workers", 0, "Max concurrent replications (0 = GOMAXPROCS)")
	replicateCmd.Flags().Float64Var(&confidence, "confidence", replication.DefaultConfidence, "Confidence level of interval estimates")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replicateCmd)
}
