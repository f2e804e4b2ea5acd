// Package metrics records the outcome of a pipeline run as Prometheus gauges
// and writes them in text exposition format for the node_exporter textfile
// collector.
package metrics

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/JonMunkholm/salesetl/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const lastSuccessName = "salesetl_last_success_timestamp_seconds"

// Drop reasons used as the reason label of RowsDropped.
const (
	ReasonDuplicate   = "duplicate"
	ReasonNonPositive = "non_positive"
)

type Registry struct {
	reg             *prometheus.Registry
	RowsLoaded      *prometheus.GaugeVec
	RowsDropped     *prometheus.GaugeVec
	RowsWritten     prometheus.Gauge
	RunDurationSec  prometheus.Gauge
	LastSuccessTime prometheus.Gauge
	RunSuccess      prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	loaded := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "salesetl_rows_loaded",
		Help: "Rows read from each regional source in the last run.",
	}, []string{"region"})
	dropped := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "salesetl_rows_dropped",
		Help: "Rows removed by the transformer in the last run.",
	}, []string{"reason"})
	written := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "salesetl_rows_written",
		Help: "Rows written to the destination table in the last run.",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "salesetl_run_duration_seconds",
		Help: "Wall time of the last run.",
	})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: lastSuccessName,
		Help: "Unix time of the last successful run.",
	})
	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "salesetl_run_success",
		Help: "1 if the last run succeeded, 0 otherwise.",
	})

	r.MustRegister(loaded, dropped, written, duration, lastSuccess, success)
	return &Registry{
		reg:             r,
		RowsLoaded:      loaded,
		RowsDropped:     dropped,
		RowsWritten:     written,
		RunDurationSec:  duration,
		LastSuccessTime: lastSuccess,
		RunSuccess:      success,
	}
}

// ObserveSuccess records a completed run finishing at now.
func (r *Registry) ObserveSuccess(stats core.Stats, elapsed time.Duration, now time.Time) {
	r.RowsLoaded.WithLabelValues(string(core.RegionA)).Set(float64(stats.RegionARows))
	r.RowsLoaded.WithLabelValues(string(core.RegionB)).Set(float64(stats.RegionBRows))
	r.RowsDropped.WithLabelValues(ReasonDuplicate).Set(float64(stats.DuplicateRows))
	r.RowsDropped.WithLabelValues(ReasonNonPositive).Set(float64(stats.NonPositiveRows))
	r.RowsWritten.Set(float64(stats.OutputRows))
	r.RunDurationSec.Set(elapsed.Seconds())
	r.LastSuccessTime.Set(float64(now.Unix()))
	r.RunSuccess.Set(1)
}

// ObserveFailure records a failed run. Row gauges are left unset and the
// last success time keeps whatever RestoreLastSuccess loaded.
func (r *Registry) ObserveFailure(elapsed time.Duration) {
	r.RunDurationSec.Set(elapsed.Seconds())
	r.RunSuccess.Set(0)
}

// RestoreLastSuccess loads the last success time from a textfile written by
// an earlier run, so a failed run does not reset it. A missing file is not
// an error.
func (r *Registry) RestoreLastSuccess(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	mf, ok := families[lastSuccessName]
	if !ok || len(mf.GetMetric()) == 0 {
		return nil
	}
	r.LastSuccessTime.Set(mf.GetMetric()[0].GetGauge().GetValue())
	return nil
}

// WriteTextfile atomically writes every registered metric to path.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
