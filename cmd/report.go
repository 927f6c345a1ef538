package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	sim "github.com/evesim/evesim/sim"
	"github.com/evesim/evesim/sim/replication"
	"github.com/evesim/evesim/sim/trace"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var validFormats = map[string]bool{
	FormatText: true,
	FormatJSON: true,
	FormatYAML: true,
}

// Parameters echoes the inputs of a run in its report.
type Parameters struct {
	MeanInterarrival float64 `json:"mean_interarrival" yaml:"mean_interarrival"`
	MeanService      float64 `json:"mean_service" yaml:"mean_service"`
	NumCustomers     int64   `json:"num_customers" yaml:"num_customers"`
	QueueLimit       int     `json:"queue_limit" yaml:"queue_limit"`
	Seed             int64   `json:"seed" yaml:"seed"`
}

func newParameters(cfg sim.Config, seed int64) Parameters {
	return Parameters{
		MeanInterarrival: cfg.MeanInterarrival,
		MeanService:      cfg.MeanService,
		NumCustomers:     cfg.NumCustomers,
		QueueLimit:       cfg.QueueLimit,
		Seed:             seed,
	}
}

// RunReport is the rendered outcome of a single run. Exactly one of Summary
// and Abort is set.
type RunReport struct {
	Parameters Parameters          `json:"parameters" yaml:"parameters"`
	Summary    *sim.Summary        `json:"summary,omitempty" yaml:"summary,omitempty"`
	Abort      *sim.AbortError     `json:"abort,omitempty" yaml:"abort,omitempty"`
	Trace      *trace.TraceSummary `json:"trace,omitempty" yaml:"trace,omitempty"`
}

// ReplicationReport is the rendered outcome of a replication study.
type ReplicationReport struct {
	Parameters   Parameters          `json:"parameters" yaml:"parameters"`
	Replications int                 `json:"replications" yaml:"replications"`
	Result       *replication.Result `json:"result" yaml:"result"`
}

// exitCode maps an abort reason to the process exit status.
func exitCode(reason sim.AbortReason) int {
	switch reason {
	case sim.AbortQueueOverflow:
		return 2
	default:
		return 1
	}
}

// openOutput returns the report sink: stdout when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("error creating report file %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func encode(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteRunReport renders r in the given format.
func WriteRunReport(w io.Writer, format string, r RunReport) error {
	if format != FormatText {
		return encode(w, format, r)
	}

	p := r.Parameters
	if _, err := fmt.Fprintf(w, "SINGLE-SERVER QUEUING SYSTEM\n\n"+
		"Mean interarrival time: %.1f minutes\n"+
		"Mean service time: %.1f minutes\n"+
		"Number of customers: %d\n",
		p.MeanInterarrival, p.MeanService, p.NumCustomers); err != nil {
		return err
	}

	if r.Abort != nil {
		var msg string
		switch r.Abort.Reason {
		case sim.AbortQueueOverflow:
			msg = "Overflow of the wait queue at time: "
		default:
			msg = "Event list empty at time: "
		}
		_, err := fmt.Fprintf(w, "\n%s%f\n", msg, r.Abort.Clock)
		return err
	}

	s := r.Summary
	if s == nil {
		return fmt.Errorf("run report has neither summary nor abort")
	}
	if _, err := fmt.Fprintf(w, "\nAverage delay in queue: %.5f minutes\n"+
		"Average number in queue: %.5f\n"+
		"Server utilization: %.5f\n"+
		"Time simulation ended: %.5f\n",
		s.AverageDelay, s.AverageNumberInQueue, s.ServerUtilization, s.EndTime); err != nil {
		return err
	}

	t := r.Trace
	if t == nil {
		return nil
	}
	var events string
	if t.Level == trace.TraceLevelEvents {
		events = fmt.Sprintf("%d events (%d arrivals, %d departures), max queue length %d, ",
			t.TotalEvents, t.EventCounts["arrival"], t.EventCounts["departure"], t.MaxQueueLength)
	}
	_, err := fmt.Fprintf(w, "\nTrace: %s%d of %d customers without wait, max delay %.5f\n",
		events, t.ZeroWaitStarts, t.ServiceStarts, t.MaxDelay)
	return err
}

// WriteReplicationReport renders r in the given format.
func WriteReplicationReport(w io.Writer, format string, r ReplicationReport) error {
	if format != FormatText {
		return encode(w, format, r)
	}

	p := r.Parameters
	res := r.Result
	if _, err := fmt.Fprintf(w, "SINGLE-SERVER QUEUING SYSTEM: %d REPLICATIONS\n\n"+
		"Mean interarrival time: %.1f minutes\n"+
		"Mean service time: %.1f minutes\n"+
		"Number of customers: %d\n"+
		"Completed replications: %d\n"+
		"Aborted replications: %d\n\n",
		r.Replications, p.MeanInterarrival, p.MeanService, p.NumCustomers, res.Completed, res.Aborted); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Measure\tMean\t%.0f%% CI\tM/M/1\n", res.Confidence*100)
	rows := []struct {
		name   string
		est    replication.Estimate
		theory string
	}{
		{"Average delay in queue", res.AverageDelay, theoryValue(res.Theory.Stable, res.Theory.AverageDelay)},
		{"Average number in queue", res.AverageNumberInQueue, theoryValue(res.Theory.Stable, res.Theory.AverageNumberInQueue)},
		{"Server utilization", res.ServerUtilization, theoryValue(true, res.Theory.ServerUtilization)},
		{"Time simulation ended", res.EndTime, "-"},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%.5f\t[%.5f, %.5f]\t%s\n", row.name, row.est.Mean, row.est.Lower(), row.est.Upper(), row.theory)
	}
	return tw.Flush()
}

func theoryValue(stable bool, v float64) string {
	if !stable {
		return "unstable"
	}
	return fmt.Sprintf("%.5f", v)
}
