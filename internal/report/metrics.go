package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteMetrics writes the stage counts in the Prometheus text format to path,
// for collection by node-exporter's textfile collector.
func WriteMetrics(path string, rep Report) error {
	reg := prometheus.NewRegistry()
	tests := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "kitci",
		Name:      "tests",
		Help:      "Number of tests in the last test stage run by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(tests)

	tests.WithLabelValues("passed").Set(float64(rep.Passed))
	tests.WithLabelValues("failed").Set(float64(rep.Failed))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
