// Package pipeline orchestrates the leveled processing run for a study: it
// executes levels in strictly increasing order and, within each level, runs
// every endpoint's assigned method with per-endpoint isolation, persisting
// outputs and collecting a per-unit status report.
//
// This package is the composition root: it imports the method catalog and
// the store surface, but neither imports pipeline.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/assay.report/internal/hcs"
	"github.com/banshee-data/assay.report/internal/hcs/methods"
)

// Store is the persistence surface the runner needs.
type Store interface {
	EndpointsByStudy(asid int64) ([]hcs.Endpoint, error)
	MethodFor(aeid int64, level int) (method string, ok bool, err error)
	LevelRows(level int, aeid int64, usableOnly bool) ([]hcs.WellValue, error)
	HasLevelRows(level int, aeid int64) (bool, error)
	ReplaceLevelRows(level int, aeid int64, responses []hcs.Response) error
	ReplaceLevel6(aeid int64, summaries []hcs.Summary) error
	ControlValues(aeid int64, scope hcs.Scope) ([]float64, error)
	CutoffFor(aeid int64) (*hcs.Cutoff, error)
	UpsertCutoff(c hcs.Cutoff) error
}

// Runner executes pipeline runs against one store with one method catalog.
type Runner struct {
	store   Store
	catalog *methods.Catalog
}

// NewRunner creates a runner.
func NewRunner(store Store, catalog *methods.Catalog) *Runner {
	return &Runner{store: store, catalog: catalog}
}

// Run processes levels startLevel..endLevel in increasing order for every
// endpoint of the study. Per-endpoint transform failures are isolated into
// the report; only store failures — which invalidate the whole run — are
// returned as an error, alongside the partial report for diagnosis.
//
// Level 0 is written by the data preparer, so runs start at level 1. A run
// scoped to start above level 1 reads whatever level startLevel-1 rows are
// already persisted; an endpoint with none gets a failed status, which is
// distinguishable from the skipped status of an unassigned level.
func (r *Runner) Run(ctx context.Context, asid int64, startLevel, endLevel int) (*Report, error) {
	if startLevel < 1 {
		return nil, fmt.Errorf("start level %d invalid: level 0 is written by the data preparer", startLevel)
	}
	if endLevel > hcs.LevelMax {
		return nil, fmt.Errorf("end level %d beyond maximum %d", endLevel, hcs.LevelMax)
	}
	if startLevel > endLevel {
		return nil, fmt.Errorf("start level %d after end level %d", startLevel, endLevel)
	}

	endpoints, err := r.store.EndpointsByStudy(asid)
	if err != nil {
		return nil, fmt.Errorf("failed to list endpoints for study %d: %w", asid, err)
	}

	report := &Report{
		RunID:      uuid.NewString(),
		ASID:       asid,
		StartLevel: startLevel,
		EndLevel:   endLevel,
		StartedAt:  time.Now(),
	}
	runsTotal.Inc()
	log.Printf("run %s: study %d levels %d-%d across %d endpoints",
		report.RunID, asid, startLevel, endLevel, len(endpoints))

	for level := startLevel; level <= endLevel; level++ {
		for _, endpoint := range endpoints {
			status, err := r.runUnit(ctx, level, endpoint)
			report.Statuses = append(report.Statuses, status)
			levelOutcomes.WithLabelValues(strconv.Itoa(level), string(status.Outcome)).Inc()
			if err != nil {
				report.FinishedAt = time.Now()
				return report, err
			}
		}
	}

	report.FinishedAt = time.Now()
	counts := report.Counts()
	log.Printf("run %s: finished with %d success, %d skipped, %d failed",
		report.RunID, counts[OutcomeSuccess], counts[OutcomeSkipped], counts[OutcomeFailed])
	return report, nil
}

// runUnit executes one endpoint at one level. The returned error is reserved
// for store failures; transform failures are folded into the status.
func (r *Runner) runUnit(ctx context.Context, level int, endpoint hcs.Endpoint) (Status, error) {
	status := Status{AEID: endpoint.AEID, Endpoint: endpoint.Name, Level: level}

	methodName, assigned, err := r.store.MethodFor(endpoint.AEID, level)
	if err != nil {
		return failed(status, err), err
	}
	if !assigned {
		status.Outcome = OutcomeSkipped
		status.Reason = "no method assigned"
		return status, nil
	}

	transform, ok := r.catalog.Lookup(level, methodName)
	if !ok {
		// The assignment was validated at write time; a missing catalog
		// entry means the catalog shrank since. Isolate, don't abort.
		status.Outcome = OutcomeFailed
		status.Reason = fmt.Sprintf("%v: %q at level %d", hcs.ErrUnknownMethod, methodName, level)
		return status, nil
	}

	rows, err := r.store.LevelRows(level-1, endpoint.AEID, true)
	if err != nil {
		return failed(status, err), err
	}
	if len(rows) == 0 {
		// Distinguish a level that never ran from one whose wells are all
		// masked; both fail, but operators repair them differently.
		persisted, err := r.store.HasLevelRows(level-1, endpoint.AEID)
		if err != nil {
			return failed(status, err), err
		}
		status.Outcome = OutcomeFailed
		if persisted {
			status.Reason = fmt.Sprintf("no usable wells in level %d input", level-1)
		} else {
			status.Reason = fmt.Sprintf("no level %d input persisted", level-1)
		}
		return status, nil
	}

	in := methods.Input{
		ASID:  endpoint.ASID,
		AEID:  endpoint.AEID,
		Level: level,
		Rows:  rows,
	}
	if in.Cutoff, err = r.store.CutoffFor(endpoint.AEID); err != nil {
		return failed(status, err), err
	}
	if scoper, needsControls := transform.(methods.ControlScoper); needsControls {
		if in.Controls, err = r.store.ControlValues(endpoint.AEID, scoper.ControlScope()); err != nil {
			return failed(status, err), err
		}
	}

	out, err := transform.Apply(ctx, in)
	if err != nil {
		terr := &hcs.TransformError{AEID: endpoint.AEID, Level: level, Method: methodName, Err: err}
		log.Printf("isolated failure: %v", terr)
		status.Outcome = OutcomeFailed
		status.Reason = err.Error()
		return status, nil
	}

	if out.Cutoff != nil {
		if err := r.store.UpsertCutoff(*out.Cutoff); err != nil {
			return failed(status, err), err
		}
	}
	if level == hcs.LevelSummary {
		err = r.store.ReplaceLevel6(endpoint.AEID, out.Summaries)
	} else {
		err = r.store.ReplaceLevelRows(level, endpoint.AEID, out.Rows)
	}
	if err != nil {
		if errors.Is(err, hcs.ErrStoreIntegrity) {
			err = fmt.Errorf("run aborted: %w", err)
		}
		return failed(status, err), err
	}

	status.Outcome = OutcomeSuccess
	return status, nil
}

func failed(status Status, err error) Status {
	status.Outcome = OutcomeFailed
	status.Reason = err.Error()
	return status
}
