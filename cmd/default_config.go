package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	sim "github.com/evesim/evesim/sim"
)

// FileConfig represents a simulation config YAML file.
// Pointer fields distinguish "absent" from an explicit zero, so an explicit
// zero still reaches validation and is rejected there.
// All fields must be listed to satisfy KnownFields(true) strict parsing.
type FileConfig struct {
	MeanInterarrival *float64 `yaml:"mean_interarrival"`
	MeanService      *float64 `yaml:"mean_service"`
	NumCustomers     *int64   `yaml:"num_customers"`
	QueueLimit       *int     `yaml:"queue_limit"`
	Seed             *int64   `yaml:"seed"`
	Replications     *int     `yaml:"replications"`
	Confidence       *float64 `yaml:"confidence"`
}

// LoadFileConfig parses a YAML config file with strict field checking:
// unknown keys (typos) are errors.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var cfg FileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML %s: %w", path, err)
	}
	return &cfg, nil
}

// ReadParameterFile reads the legacy parameter file: mean interarrival time,
// mean service time and number of customers, separated by whitespace.
// Anything after the third value is ignored.
func ReadParameterFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file %s: %w", path, err)
	}
	fields := strings.Fields(string(data))
	if len(fields) < 3 {
		return nil, fmt.Errorf("parameter file %s: expected mean interarrival time, mean service time and number of customers, got %d values", path, len(fields))
	}
	interarrival, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, fmt.Errorf("parameter file %s: expected mean interarrival time: %w", path, err)
	}
	service, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nil, fmt.Errorf("parameter file %s: expected mean service time: %w", path, err)
	}
	customers, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parameter file %s: expected number of customers: %w", path, err)
	}
	return &FileConfig{
		MeanInterarrival: &interarrival,
		MeanService:      &service,
		NumCustomers:     &customers,
	}, nil
}

// applyFileConfig overlays file values onto cfg, except where the matching
// flag was set explicitly on the command line.
func applyFileConfig(cfg *sim.Config, fc *FileConfig, flags *pflag.FlagSet) {
	if fc.MeanInterarrival != nil && !flags.Changed("mean-interarrival") {
		cfg.MeanInterarrival = *fc.MeanInterarrival
	}
	if fc.MeanService != nil && !flags.Changed("mean-service") {
		cfg.MeanService = *fc.MeanService
	}
	if fc.NumCustomers != nil && !flags.Changed("num-customers") {
		cfg.NumCustomers = *fc.NumCustomers
	}
	if fc.QueueLimit != nil && !flags.Changed("queue-limit") {
		cfg.QueueLimit = *fc.QueueLimit
	}
}

// resolveSimConfig builds the run parameters from flag values, then the
// --config file, then the legacy --input file. Explicit flags always win.
func resolveSimConfig(flags *pflag.FlagSet) (sim.Config, *FileConfig, error) {
	cfg := sim.Config{
		MeanInterarrival: meanInterarrival,
		MeanService:      meanService,
		NumCustomers:     numCustomers,
		QueueLimit:       queueLimit,
	}
	if configPath != "" && inputPath != "" {
		return cfg, nil, fmt.Errorf("--config and --input are mutually exclusive")
	}

	var fc *FileConfig
	var err error
	switch {
	case configPath != "":
		fc, err = LoadFileConfig(configPath)
	case inputPath != "":
		fc, err = ReadParameterFile(inputPath)
	default:
		fc = &FileConfig{}
	}
	if err != nil {
		return cfg, nil, err
	}
	applyFileConfig(&cfg, fc, flags)

	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	return cfg, fc, nil
}

// resolveSeed returns a wall-clock seed under --entropy, otherwise --seed
// unless it was left at its default and the config file carries a seed.
func resolveSeed(fc *FileConfig, flags *pflag.FlagSet) int64 {
	if entropy {
		if flags.Changed("seed") {
			logrus.Warnf("--entropy overrides --seed %d", seed)
		}
		s := sim.EntropySeed()
		logrus.Infof("Seeding from the wall clock: %d", s)
		return s
	}
	if fc != nil && fc.Seed != nil && !flags.Changed("seed") {
		return *fc.Seed
	}
	return seed
}
