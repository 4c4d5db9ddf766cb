package methods

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/assay.report/internal/hcs"
	"github.com/banshee-data/assay.report/internal/hcs/fit"
	"github.com/banshee-data/assay.report/internal/hcs/noiseband"
)

// log2Ratio is the default level-1 normalization: the log2 ratio of each
// well's raw value to the median raw value of usable negative-control wells
// on the same plate. Masked wells are excluded from both numerator
// eligibility and the control median by the runner's usable-only load.
type log2Ratio struct{}

func (*log2Ratio) Name() string { return "log2.nctrl" }
func (*log2Ratio) Level() int   { return 1 }

func (*log2Ratio) Apply(_ context.Context, in Input) (Output, error) {
	medians, err := controlMediansByBox(in.Rows)
	if err != nil {
		return Output{}, err
	}

	out := Output{Rows: make([]hcs.Response, 0, len(in.Rows))}
	for _, row := range in.Rows {
		med, ok := medians[row.Box]
		if !ok {
			return Output{}, fmt.Errorf("no usable negative-control wells on plate %q", row.Box)
		}
		if med <= 0 {
			return Output{}, fmt.Errorf("non-positive control median %v on plate %q", med, row.Box)
		}
		if row.Value <= 0 {
			return Output{}, fmt.Errorf("non-positive raw value %v in well %d", row.Value, row.WAID)
		}
		out.Rows = append(out.Rows, hcs.Response{
			AEID: in.AEID,
			WAID: row.WAID,
			Resp: math.Log2(row.Value / med),
		})
	}
	return out, nil
}

// pctCtrl is the percent-of-control alternative normalization.
type pctCtrl struct{}

func (*pctCtrl) Name() string { return "pct.nctrl" }
func (*pctCtrl) Level() int   { return 1 }

func (*pctCtrl) Apply(_ context.Context, in Input) (Output, error) {
	medians, err := controlMediansByBox(in.Rows)
	if err != nil {
		return Output{}, err
	}

	out := Output{Rows: make([]hcs.Response, 0, len(in.Rows))}
	for _, row := range in.Rows {
		med, ok := medians[row.Box]
		if !ok {
			return Output{}, fmt.Errorf("no usable negative-control wells on plate %q", row.Box)
		}
		if med == 0 {
			return Output{}, fmt.Errorf("zero control median on plate %q", row.Box)
		}
		out.Rows = append(out.Rows, hcs.Response{
			AEID: in.AEID,
			WAID: row.WAID,
			Resp: 100*row.Value/med - 100,
		})
	}
	return out, nil
}

// passthrough copies level n-1 rows to level n unchanged.
type passthrough struct {
	level int
}

func (*passthrough) Name() string { return "none" }
func (p *passthrough) Level() int { return p.level }

func (p *passthrough) Apply(_ context.Context, in Input) (Output, error) {
	out := Output{Rows: make([]hcs.Response, 0, len(in.Rows))}
	for _, row := range in.Rows {
		out.Rows = append(out.Rows, hcs.Response{AEID: in.AEID, WAID: row.WAID, Resp: row.Value, Flag: row.Flag})
	}
	return out, nil
}

// madBand estimates the endpoint's noise band from negative-control values
// and annotates each row with a within-band flag. The runner persists the
// emitted cutoff with its scope as provenance.
type madBand struct {
	scope hcs.Scope
	cfg   noiseband.Config
}

func (b *madBand) Name() string {
	if b.scope == hcs.ScopeGlobal {
		return "mad.global"
	}
	return "mad.nctrl"
}
func (*madBand) Level() int                { return 2 }
func (b *madBand) ControlScope() hcs.Scope { return b.scope }

func (b *madBand) Apply(_ context.Context, in Input) (Output, error) {
	value, err := noiseband.Estimate(in.Controls, b.cfg)
	if err != nil {
		return Output{}, err
	}

	out := Output{
		Rows: make([]hcs.Response, 0, len(in.Rows)),
		Cutoff: &hcs.Cutoff{
			AEID:      in.AEID,
			Scope:     b.scope,
			Value:     value,
			NControls: len(in.Controls),
		},
	}
	for _, row := range in.Rows {
		within := int64(0)
		if math.Abs(row.Value) <= value {
			within = 1
		}
		flag := within
		out.Rows = append(out.Rows, hcs.Response{AEID: in.AEID, WAID: row.WAID, Resp: row.Value, Flag: &flag})
	}
	return out, nil
}

// collapseMedian collapses replicate wells: every well's response becomes the
// median response of its (sample, concentration) group.
type collapseMedian struct{}

func (*collapseMedian) Name() string { return "collapse.median" }
func (*collapseMedian) Level() int   { return 3 }

type replicateKey struct {
	sample string
	conc   float64
}

func (*collapseMedian) Apply(_ context.Context, in Input) (Output, error) {
	groups := map[replicateKey][]float64{}
	for _, row := range in.Rows {
		key := replicateKey{row.Sample, row.Conc}
		groups[key] = append(groups[key], row.Value)
	}
	medians := make(map[replicateKey]float64, len(groups))
	for key, values := range groups {
		medians[key] = noiseband.Median(values)
	}

	out := Output{Rows: make([]hcs.Response, 0, len(in.Rows))}
	for _, row := range in.Rows {
		out.Rows = append(out.Rows, hcs.Response{
			AEID: in.AEID,
			WAID: row.WAID,
			Resp: medians[replicateKey{row.Sample, row.Conc}],
		})
	}
	return out, nil
}

// clipRange clamps responses to a symmetric range, an optional level-4
// correction for readout saturation artifacts.
type clipRange struct {
	limit float64
}

func (*clipRange) Name() string { return "clip.range" }
func (*clipRange) Level() int   { return 4 }

func (c *clipRange) Apply(_ context.Context, in Input) (Output, error) {
	if c.limit <= 0 {
		return Output{}, fmt.Errorf("non-positive clip range %v", c.limit)
	}
	out := Output{Rows: make([]hcs.Response, 0, len(in.Rows))}
	for _, row := range in.Rows {
		resp := row.Value
		if resp > c.limit {
			resp = c.limit
		}
		if resp < -c.limit {
			resp = -c.limit
		}
		out.Rows = append(out.Rows, hcs.Response{AEID: in.AEID, WAID: row.WAID, Resp: resp, Flag: row.Flag})
	}
	return out, nil
}

// hitBand classifies each well as active or inactive against the endpoint's
// persisted noise-band cutoff.
type hitBand struct{}

func (*hitBand) Name() string { return "hit.band" }
func (*hitBand) Level() int   { return 5 }

func (*hitBand) Apply(_ context.Context, in Input) (Output, error) {
	if in.Cutoff == nil {
		return Output{}, hcs.ErrMissingCutoff
	}

	out := Output{Rows: make([]hcs.Response, 0, len(in.Rows))}
	for _, row := range in.Rows {
		active := int64(0)
		if math.Abs(row.Value) > in.Cutoff.Value {
			active = 1
		}
		flag := active
		out.Rows = append(out.Rows, hcs.Response{AEID: in.AEID, WAID: row.WAID, Resp: row.Value, Flag: &flag})
	}
	return out, nil
}

// fitSummary hands each treatment sample's concentration series to the
// activity summarizer and emits level-6 summaries.
type fitSummary struct {
	summarizer fit.Summarizer
}

func (*fitSummary) Name() string { return "fit.summary" }
func (*fitSummary) Level() int   { return 6 }

func (f *fitSummary) Apply(ctx context.Context, in Input) (Output, error) {
	if in.Cutoff == nil {
		return Output{}, hcs.ErrMissingCutoff
	}
	if f.summarizer == nil {
		return Output{}, fmt.Errorf("no activity summarizer configured")
	}

	series := map[string]*fit.Series{}
	for _, row := range in.Rows {
		if row.WellType != hcs.WellTypeTreatment {
			continue
		}
		s, ok := series[row.Sample]
		if !ok {
			s = &fit.Series{Sample: row.Sample}
			series[row.Sample] = s
		}
		s.Conc = append(s.Conc, row.Conc)
		s.Resp = append(s.Resp, row.Value)
	}

	samples := make([]string, 0, len(series))
	for sample := range series {
		samples = append(samples, sample)
	}
	sort.Strings(samples)

	out := Output{Summaries: make([]hcs.Summary, 0, len(samples))}
	for _, sample := range samples {
		summary, err := f.summarizer.Summarize(ctx, *series[sample], in.Cutoff.Value)
		if err != nil {
			return Output{}, fmt.Errorf("failed to summarize series %q: %w", sample, err)
		}
		out.Summaries = append(out.Summaries, hcs.Summary{
			AEID:       in.AEID,
			Sample:     sample,
			MEC:        summary.MEC,
			AC50:       summary.AC50,
			FitQuality: summary.FitQuality,
			Hit:        summary.Hit,
		})
	}
	return out, nil
}

// controlMediansByBox computes per-plate medians of usable negative-control
// values.
func controlMediansByBox(rows []hcs.WellValue) (map[string]float64, error) {
	controls := map[string][]float64{}
	for _, row := range rows {
		if row.WellType == hcs.WellTypeNegControl && row.Usable {
			controls[row.Box] = append(controls[row.Box], row.Value)
		}
	}
	medians := make(map[string]float64, len(controls))
	for box, values := range controls {
		medians[box] = noiseband.Median(values)
	}
	return medians, nil
}
