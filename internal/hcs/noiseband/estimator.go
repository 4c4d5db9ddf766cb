package noiseband

import (
	"fmt"

	"github.com/banshee-data/assay.report/internal/hcs"
)

// Store is the persistence surface the estimator needs.
type Store interface {
	EndpointsByStudy(asid int64) ([]hcs.Endpoint, error)
	ControlValues(aeid int64, scope hcs.Scope) ([]float64, error)
	UpsertCutoff(c hcs.Cutoff) error
}

// Result is one endpoint's outcome in a batch estimation. Err is set when
// that endpoint's estimate failed; other endpoints proceed regardless.
type Result struct {
	AEID      int64
	Endpoint  string
	Cutoff    float64
	NControls int
	Err       error
}

// EstimateForEndpoint computes and persists one endpoint's noise-band cutoff
// from the control values in the given scope.
func EstimateForEndpoint(store Store, aeid int64, scope hcs.Scope, cfg Config) (*hcs.Cutoff, error) {
	values, err := store.ControlValues(aeid, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load control values for endpoint %d: %w", aeid, err)
	}
	value, err := Estimate(values, cfg)
	if err != nil {
		return nil, err
	}

	cutoff := hcs.Cutoff{AEID: aeid, Scope: scope, Value: value, NControls: len(values)}
	if err := store.UpsertCutoff(cutoff); err != nil {
		return nil, err
	}
	return &cutoff, nil
}

// EstimateForStudy runs the estimator over every endpoint of a study with
// per-endpoint isolation: one endpoint's missing controls never abort the
// batch. The returned slice carries one result per endpoint; the error return
// is reserved for store failures that invalidate the whole batch.
func EstimateForStudy(store Store, asid int64, scope hcs.Scope, cfg Config) ([]Result, error) {
	endpoints, err := store.EndpointsByStudy(asid)
	if err != nil {
		return nil, fmt.Errorf("failed to list endpoints for study %d: %w", asid, err)
	}

	results := make([]Result, 0, len(endpoints))
	for _, e := range endpoints {
		res := Result{AEID: e.AEID, Endpoint: e.Name}
		cutoff, err := EstimateForEndpoint(store, e.AEID, scope, cfg)
		if err != nil {
			res.Err = err
		} else {
			res.Cutoff = cutoff.Value
			res.NControls = cutoff.NControls
		}
		results = append(results, res)
	}
	return results, nil
}
