// Package replication runs independent replications of the single-server
// simulation and turns their summaries into interval estimates.
//
// Each replication owns its Simulator and its own uniform stream derived from
// the study's SimulationKey, so results do not depend on worker count or
// completion order.
package replication

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/evesim/evesim/sim"
	"github.com/evesim/evesim/sim/analytic"
)

// DefaultConfidence is the confidence level used when Config.Confidence is 0.
const DefaultConfidence = 0.95

// Config describes a replication study.
type Config struct {
	Sim          sim.Config
	Replications int               // number of independent runs (must be > 0)
	Workers      int               // max concurrent runs; 0 means GOMAXPROCS
	Key          sim.SimulationKey // master key; replication i uses SubsystemReplication(i)
	Confidence   float64           // two-sided confidence level in (0,1); 0 means DefaultConfidence
}

// Outcome is the result of one replication. Exactly one of Summary and Abort is set.
type Outcome struct {
	Index   int             `json:"index" yaml:"index"`
	Summary *sim.Summary    `json:"summary,omitempty" yaml:"summary,omitempty"`
	Abort   *sim.AbortError `json:"abort,omitempty" yaml:"abort,omitempty"`
}

// Estimate is a point estimate with a Student-t confidence half-width.
// StdDev and HalfWidth are 0 when fewer than two samples are available.
type Estimate struct {
	Mean      float64 `json:"mean" yaml:"mean"`
	StdDev    float64 `json:"std_dev" yaml:"std_dev"`
	HalfWidth float64 `json:"half_width" yaml:"half_width"`
	N         int     `json:"n" yaml:"n"`
}

// Lower returns the lower confidence bound.
func (e Estimate) Lower() float64 { return e.Mean - e.HalfWidth }

// Upper returns the upper confidence bound.
func (e Estimate) Upper() float64 { return e.Mean + e.HalfWidth }

// Result aggregates a replication study. Estimates cover completed
// replications only.
type Result struct {
	Outcomes             []Outcome     `json:"outcomes" yaml:"outcomes"`
	Completed            int           `json:"completed" yaml:"completed"`
	Aborted              int           `json:"aborted" yaml:"aborted"`
	Confidence           float64       `json:"confidence" yaml:"confidence"`
	AverageDelay         Estimate      `json:"average_delay" yaml:"average_delay"`
	AverageNumberInQueue Estimate      `json:"average_number_in_queue" yaml:"average_number_in_queue"`
	ServerUtilization    Estimate      `json:"server_utilization" yaml:"server_utilization"`
	EndTime              Estimate      `json:"end_time" yaml:"end_time"`
	Theory               *analytic.MM1 `json:"theory" yaml:"theory"`
}

func (c Config) validate() error {
	if err := c.Sim.Validate(); err != nil {
		return err
	}
	if c.Replications <= 0 {
		return fmt.Errorf("%w: replications must be positive, got %d", sim.ErrInvalidConfig, c.Replications)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", sim.ErrInvalidConfig, c.Workers)
	}
	if c.Confidence != 0 && !(c.Confidence > 0 && c.Confidence < 1) {
		return fmt.Errorf("%w: confidence must be in (0,1), got %v", sim.ErrInvalidConfig, c.Confidence)
	}
	return nil
}

// Run executes every replication and summarizes the completed ones.
// Aborted replications are reported in Outcomes and excluded from estimates;
// they do not fail the study. Run returns early with ctx's error if ctx is
// cancelled.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	confidence := cfg.Confidence
	if confidence == 0 {
		confidence = DefaultConfidence
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// PartitionedRNG is single-goroutine; derive every stream before fanning out.
	rngs := make([]*rand.Rand, cfg.Replications)
	partitioned := sim.NewPartitionedRNG(cfg.Key)
	logrus.Debugf("Deriving %d replication streams from key %d", cfg.Replications, partitioned.Key())
	for i := range rngs {
		rngs[i] = partitioned.ForSubsystem(sim.SubsystemReplication(i))
	}

	outcomes := make([]Outcome, cfg.Replications)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range outcomes {
		i := i // per-iteration copy (go directive < 1.22)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome, err := runOne(i, cfg.Sim, sim.NewRandSource(rngs[i]))
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return summarize(cfg, outcomes, confidence)
}

func runOne(index int, cfg sim.Config, src sim.UniformSource) (Outcome, error) {
	s, err := sim.NewSimulator(cfg, src)
	if err != nil {
		return Outcome{}, err
	}
	summary, err := s.Run()
	var abort *sim.AbortError
	switch {
	case err == nil:
		return Outcome{Index: index, Summary: &summary}, nil
	case errors.As(err, &abort):
		logrus.Debugf("replication %d aborted: %v", index, abort)
		return Outcome{Index: index, Abort: abort}, nil
	default:
		return Outcome{}, fmt.Errorf("replication %d: %w", index, err)
	}
}

func summarize(cfg Config, outcomes []Outcome, confidence float64) (*Result, error) {
	theory, err := analytic.SolveMM1(cfg.Sim.MeanInterarrival, cfg.Sim.MeanService)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Outcomes:   outcomes,
		Confidence: confidence,
		Theory:     theory,
	}

	var delays, inQueue, util, end []float64
	for _, o := range outcomes {
		if o.Summary == nil {
			res.Aborted++
			continue
		}
		res.Completed++
		delays = append(delays, o.Summary.AverageDelay)
		inQueue = append(inQueue, o.Summary.AverageNumberInQueue)
		util = append(util, o.Summary.ServerUtilization)
		end = append(end, o.Summary.EndTime)
	}

	res.AverageDelay = estimate(delays, confidence)
	res.AverageNumberInQueue = estimate(inQueue, confidence)
	res.ServerUtilization = estimate(util, confidence)
	res.EndTime = estimate(end, confidence)
	logrus.Infof("Replications complete: %d completed, %d aborted", res.Completed, res.Aborted)
	return res, nil
}

// estimate computes the sample mean and a two-sided Student-t interval.
func estimate(xs []float64, confidence float64) Estimate {
	n := len(xs)
	if n == 0 {
		return Estimate{}
	}
	if n == 1 {
		return Estimate{Mean: xs[0], N: 1}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}.Quantile(1 - (1-confidence)/2)
	return Estimate{
		Mean:      mean,
		StdDev:    std,
		HalfWidth: t * std / math.Sqrt(float64(n)),
		N:         n,
	}
}
