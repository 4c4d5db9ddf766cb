// Package noiseband estimates per-endpoint baseline variability from
// negative-control wells. The cutoff — a fixed multiple of the median
// absolute deviation of control values — defines the "inactive" half-width
// used downstream to separate active from inactive responses.
package noiseband

import (
	"fmt"
	"sort"

	"github.com/banshee-data/assay.report/internal/hcs"
)

// Config holds the estimator's statistical policy.
type Config struct {
	// MinControls is the minimum count of usable negative-control values
	// required for a trustworthy estimate.
	MinControls int
	// Multiplier scales the MAD into the cutoff magnitude.
	Multiplier float64
}

// DefaultConfig returns the production policy: 3×MAD over at least 3 controls.
func DefaultConfig() Config {
	return Config{MinControls: 3, Multiplier: 3}
}

// Estimate computes the noise-band cutoff from control values. Fails with
// ErrInsufficientControls when fewer than cfg.MinControls values are given.
func Estimate(values []float64, cfg Config) (float64, error) {
	if len(values) < cfg.MinControls {
		return 0, fmt.Errorf("%w: have %d, need %d", hcs.ErrInsufficientControls, len(values), cfg.MinControls)
	}
	return cfg.Multiplier * MAD(values), nil
}

// MAD returns the raw median absolute deviation, without a consistency
// constant: the cutoff policy is defined on the unscaled MAD.
func MAD(values []float64) float64 {
	m := median(values)
	deviations := make([]float64, len(values))
	for i, v := range values {
		d := v - m
		if d < 0 {
			d = -d
		}
		deviations[i] = d
	}
	return median(deviations)
}

// median averages the two middle order statistics for even counts.
// gonum's stat.Quantile offers only empirical and weighted-interpolation
// estimators, neither of which is the textbook sample median.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Median exposes the sample median used throughout the pipeline's
// control-normalization statistics.
func Median(values []float64) float64 {
	return median(values)
}
