// Package fit defines the pipeline's contract with the external
// dose-response analysis engine, plus a deterministic bounded-interpolation
// summarizer used as the bundled implementation. The pipeline treats any
// Summarizer as a pure function that may fail (non-convergence), which the
// runner records as an ordinary per-endpoint failure.
package fit

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Series is one endpoint's normalized responses across the tested
// concentrations of one chemical.
type Series struct {
	Sample string
	Conc   []float64
	Resp   []float64
}

// Summary carries the activity statistics for one series.
type Summary struct {
	// MEC is the lowest tested concentration whose response exceeds the
	// noise band; nil when the series never leaves the band.
	MEC *float64
	// AC50 is the concentration producing half the maximal observed
	// response magnitude; nil when the series never leaves the band.
	AC50 *float64
	// FitQuality is a confidence indicator in [0, 1].
	FitQuality float64
	// Hit reports whether any response exceeds the noise band.
	Hit bool
}

// Summarizer converts a normalized series plus the endpoint's noise-band
// cutoff into activity statistics.
type Summarizer interface {
	Summarize(ctx context.Context, s Series, cutoff float64) (Summary, error)
}

// SummarizerFunc adapts a function to the Summarizer interface.
type SummarizerFunc func(ctx context.Context, s Series, cutoff float64) (Summary, error)

func (f SummarizerFunc) Summarize(ctx context.Context, s Series, cutoff float64) (Summary, error) {
	return f(ctx, s, cutoff)
}

// Interpolator is the bundled summarizer: it collapses replicates to a
// per-concentration median curve and reads MEC and AC50 off that curve by
// linear interpolation, with the absolute correlation between concentration
// and response magnitude as the fit-quality indicator.
type Interpolator struct{}

// NewInterpolator returns the bundled bounded-interpolation summarizer.
func NewInterpolator() *Interpolator {
	return &Interpolator{}
}

func (ip *Interpolator) Summarize(_ context.Context, s Series, cutoff float64) (Summary, error) {
	if cutoff <= 0 {
		return Summary{}, fmt.Errorf("non-positive noise-band cutoff %v", cutoff)
	}
	if len(s.Conc) != len(s.Resp) {
		return Summary{}, fmt.Errorf("series %q has %d concentrations but %d responses", s.Sample, len(s.Conc), len(s.Resp))
	}

	conc, resp := collapseByConc(s.Conc, s.Resp)
	if len(conc) < 2 {
		return Summary{}, fmt.Errorf("series %q too short to summarize: %d distinct concentrations", s.Sample, len(conc))
	}

	mag := make([]float64, len(resp))
	for i, r := range resp {
		mag[i] = math.Abs(r)
	}
	maxMag := floats.Max(mag)

	summary := Summary{FitQuality: fitQuality(conc, mag)}
	if maxMag <= cutoff {
		return summary, nil
	}
	summary.Hit = true

	// MEC: lowest tested concentration beyond the band.
	for i, m := range mag {
		if m > cutoff {
			mec := conc[i]
			summary.MEC = &mec
			break
		}
	}

	// AC50: first crossing of half the maximal response magnitude, linearly
	// interpolated between the bracketing tested concentrations.
	target := maxMag / 2
	for i, m := range mag {
		if m < target {
			continue
		}
		ac50 := conc[i]
		if i > 0 && mag[i] != mag[i-1] {
			frac := (target - mag[i-1]) / (mag[i] - mag[i-1])
			ac50 = conc[i-1] + frac*(conc[i]-conc[i-1])
		}
		summary.AC50 = &ac50
		break
	}
	return summary, nil
}

// collapseByConc sorts by concentration and collapses replicate measurements
// at the same concentration to their median.
func collapseByConc(conc, resp []float64) ([]float64, []float64) {
	byConc := map[float64][]float64{}
	for i, c := range conc {
		byConc[c] = append(byConc[c], resp[i])
	}

	outConc := make([]float64, 0, len(byConc))
	for c := range byConc {
		outConc = append(outConc, c)
	}
	sort.Float64s(outConc)

	outResp := make([]float64, len(outConc))
	for i, c := range outConc {
		vals := byConc[c]
		sort.Float64s(vals)
		n := len(vals)
		if n%2 == 1 {
			outResp[i] = vals[n/2]
		} else {
			outResp[i] = (vals[n/2-1] + vals[n/2]) / 2
		}
	}
	return outConc, outResp
}

// fitQuality scores how coherently response magnitude tracks concentration,
// as the absolute Pearson correlation. A flat or erratic series scores near
// zero, a clean monotone series near one.
func fitQuality(conc, mag []float64) float64 {
	r := stat.Correlation(conc, mag, nil)
	if math.IsNaN(r) {
		return 0
	}
	return math.Abs(r)
}
