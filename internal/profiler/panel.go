package profiler

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/GriffinCanCode/elasticbundle/internal/collector"
	"github.com/GriffinCanCode/elasticbundle/internal/shared/id"
)

// LatencyStats summarises call durations in seconds
type LatencyStats struct {
	Mean float64 `json:"mean"`
	P50  float64 `json:"p50"`
	P95  float64 `json:"p95"`
	Max  float64 `json:"max"`
}

// Panel is the collector view of one profile
type Panel struct {
	Name          string            `json:"name"`
	Token         id.Token          `json:"token,omitempty"`
	Calls         int               `json:"calls"`
	Errors        int               `json:"errors"`
	TotalDuration float64           `json:"total_duration"`
	ServerTime    float64           `json:"server_time"`
	Latency       LatencyStats      `json:"latency"`
	Traces        []collector.Trace `json:"traces"`
}

// NewPanel builds the panel of a collector snapshot
func NewPanel(token id.Token, snap collector.Snapshot) Panel {
	panel := Panel{
		Name:          collector.Name,
		Token:         token,
		Calls:         len(snap.Traces),
		TotalDuration: snap.Total,
		Traces:        snap.Traces,
	}
	if panel.Traces == nil {
		panel.Traces = []collector.Trace{}
	}

	durations := make([]float64, 0, len(snap.Traces))
	for _, tr := range snap.Traces {
		durations = append(durations, tr.Duration())
		if tr.Error() != "" {
			panel.Errors++
		}
		if took, ok := tr.Took(); ok {
			panel.ServerTime += took
		}
	}
	panel.Latency = latency(durations)
	return panel
}

func latency(durations []float64) LatencyStats {
	if len(durations) == 0 {
		return LatencyStats{}
	}
	sort.Float64s(durations)
	return LatencyStats{
		Mean: stat.Mean(durations, nil),
		P50:  stat.Quantile(0.5, stat.Empirical, durations, nil),
		P95:  stat.Quantile(0.95, stat.Empirical, durations, nil),
		Max:  floats.Max(durations),
	}
}
