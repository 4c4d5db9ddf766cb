package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/assay.report/internal/db"
	"github.com/banshee-data/assay.report/internal/hcs"
	"github.com/banshee-data/assay.report/internal/hcs/methods"
)

func newTestStore(t *testing.T) *db.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pipeline_test.db")
	d, err := db.OpenAndMigrate(path)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

// registerStudy creates a one-plate study with four negative-control wells
// and a three-concentration treatment series, then loads one level-0 value
// per well and channel.
//
// Per channel, the controls get 10, 10, 11, 9 (3×MAD band of half-width 1.5)
// and the treatments at concentrations 1, 10, 100 get the channel's values.
func registerStudy(t *testing.T, d *db.DB, treatValues map[string][]float64) int64 {
	t.Helper()

	reg := hcs.StudyRegistration{Name: "tox21", Phase: "ph1"}
	for channel := range treatValues {
		reg.Channels = append(reg.Channels, hcs.ChannelSpec{
			Category: "cytotoxicity",
			Channel:  channel,
			Endpoint: "ep_" + channel,
		})
	}
	for col := 1; col <= 4; col++ {
		reg.Wells = append(reg.Wells, hcs.WellSpec{
			Plate: "P1", Box: "B0001", Row: 1, Col: col,
			WellType: hcs.WellTypeNegControl, Sample: "DMSO", Usable: true,
		})
	}
	concs := []float64{1, 10, 100}
	for col := 1; col <= 3; col++ {
		reg.Wells = append(reg.Wells, hcs.WellSpec{
			Plate: "P1", Box: "B0001", Row: 2, Col: col,
			WellType: hcs.WellTypeTreatment, Sample: "CHEM-1", Conc: concs[col-1], Usable: true,
		})
	}

	asid, err := d.RegisterAnnotations(reg)
	require.NoError(t, err)

	components, err := d.ComponentsByStudy(asid)
	require.NoError(t, err)
	wells, err := d.WellsByStudy(asid)
	require.NoError(t, err)
	require.Len(t, wells, 7)

	var records []hcs.Level0Record
	for _, c := range components {
		values := append([]float64{10, 10, 11, 9}, treatValues[c.Channel]...)
		for i, w := range wells {
			records = append(records, hcs.Level0Record{
				ACID: c.ACID, WAID: w.WAID, Value: values[i], Usable: true,
			})
		}
	}
	require.NoError(t, d.InsertLevel0(records))
	return asid
}

func assignDefaults(t *testing.T, d *db.DB, catalog *methods.Catalog, asid int64) {
	t.Helper()
	require.NoError(t, catalog.AssignDefaults(d, asid))
}

func TestRunEndToEnd(t *testing.T) {
	d := newTestStore(t)
	asid := registerStudy(t, d, map[string][]float64{
		"CellMask_Intensity": {10, 40, 160},
	})
	catalog := methods.NewCatalog(methods.DefaultConfig())
	assignDefaults(t, d, catalog, asid)

	runner := NewRunner(d, catalog)
	report, err := runner.Run(context.Background(), asid, 1, hcs.LevelMax)
	require.NoError(t, err)

	require.Len(t, report.Statuses, 6)
	for _, s := range report.Statuses {
		assert.Equal(t, OutcomeSuccess, s.Outcome, "level %d: %s", s.Level, s.Reason)
	}
	assert.NotEmpty(t, report.RunID)

	endpoints, err := d.EndpointsByStudy(asid)
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	aeid := endpoints[0].AEID

	// Level 1: the treatment well at raw 40 against a control median of 10
	// normalizes to log2(40/10) = 2.
	l1, err := d.LevelRows(1, aeid, true)
	require.NoError(t, err)
	require.Len(t, l1, 7)
	var resp40 float64
	for _, row := range l1 {
		if row.Sample == "CHEM-1" && row.Conc == 10 {
			resp40 = row.Value
		}
	}
	assert.InDelta(t, 2.0, resp40, 1e-12)

	// Level 2 persisted the study-scope cutoff from the raw controls.
	cutoff, err := d.CutoffFor(aeid)
	require.NoError(t, err)
	require.NotNil(t, cutoff)
	assert.Equal(t, 1.5, cutoff.Value)
	assert.Equal(t, hcs.ScopeStudy, cutoff.Scope)
	assert.Equal(t, 4, cutoff.NControls)

	summaries, err := d.SummariesByStudy(asid)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	s := summaries[0]
	assert.Equal(t, "CHEM-1", s.Sample)
	assert.True(t, s.Hit)
	require.NotNil(t, s.MEC)
	assert.Equal(t, 10.0, *s.MEC)
	require.NotNil(t, s.AC50)
	assert.InDelta(t, 10.0, *s.AC50, 1e-9)
}

// TestRunDefaultsWithThreeControls derives a minimal one-plate study — three
// negative controls at 10, 11, 9 and one treatment well at 40 — under the
// stock defaults, with no config overrides. Three controls is the default
// minimum, the cutoff is 3×MAD = 3.0, and the treatment's log2(40/10) = 2.0
// stays inside the band.
func TestRunDefaultsWithThreeControls(t *testing.T) {
	d := newTestStore(t)

	reg := hcs.StudyRegistration{
		Name:  "tox21",
		Phase: "ph1",
		Channels: []hcs.ChannelSpec{
			{Category: "cytotoxicity", Channel: "CellMask_Intensity", Endpoint: "cytotox_cellmask"},
		},
		Wells: []hcs.WellSpec{
			{Plate: "P1", Box: "B0001", Row: 1, Col: 1, WellType: hcs.WellTypeNegControl, Sample: "DMSO", Usable: true},
			{Plate: "P1", Box: "B0001", Row: 1, Col: 2, WellType: hcs.WellTypeNegControl, Sample: "DMSO", Usable: true},
			{Plate: "P1", Box: "B0001", Row: 1, Col: 3, WellType: hcs.WellTypeNegControl, Sample: "DMSO", Usable: true},
			{Plate: "P1", Box: "B0001", Row: 2, Col: 1, WellType: hcs.WellTypeTreatment, Sample: "CHEM-1", Conc: 10, Usable: true},
		},
	}
	asid, err := d.RegisterAnnotations(reg)
	require.NoError(t, err)

	components, err := d.ComponentsByStudy(asid)
	require.NoError(t, err)
	wells, err := d.WellsByStudy(asid)
	require.NoError(t, err)
	require.Len(t, wells, 4)
	values := []float64{10, 11, 9, 40}
	var records []hcs.Level0Record
	for i, w := range wells {
		records = append(records, hcs.Level0Record{
			ACID: components[0].ACID, WAID: w.WAID, Value: values[i], Usable: true,
		})
	}
	require.NoError(t, d.InsertLevel0(records))

	catalog := methods.NewCatalog(methods.DefaultConfig())
	assignDefaults(t, d, catalog, asid)
	runner := NewRunner(d, catalog)

	report, err := runner.Run(context.Background(), asid, 1, 5)
	require.NoError(t, err)
	for _, s := range report.Statuses {
		assert.Equal(t, OutcomeSuccess, s.Outcome, "level %d: %s", s.Level, s.Reason)
	}

	endpoints, err := d.EndpointsByStudy(asid)
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	aeid := endpoints[0].AEID

	cutoff, err := d.CutoffFor(aeid)
	require.NoError(t, err)
	require.NotNil(t, cutoff)
	assert.Equal(t, 3.0, cutoff.Value)
	assert.Equal(t, 3, cutoff.NControls)

	l5, err := d.LevelRows(5, aeid, true)
	require.NoError(t, err)
	require.Len(t, l5, 4)
	for _, row := range l5 {
		if row.Sample != "CHEM-1" {
			continue
		}
		assert.InDelta(t, 2.0, row.Value, 1e-12)
		require.NotNil(t, row.Flag)
		assert.Equal(t, int64(0), *row.Flag, "2.0 sits inside the 3.0 band")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	d := newTestStore(t)
	asid := registerStudy(t, d, map[string][]float64{
		"CellMask_Intensity": {10, 40, 160},
	})
	catalog := methods.NewCatalog(methods.DefaultConfig())
	assignDefaults(t, d, catalog, asid)
	runner := NewRunner(d, catalog)

	_, err := runner.Run(context.Background(), asid, 1, hcs.LevelMax)
	require.NoError(t, err)
	_, err = runner.Run(context.Background(), asid, 1, hcs.LevelMax)
	require.NoError(t, err)

	endpoints, err := d.EndpointsByStudy(asid)
	require.NoError(t, err)
	l1, err := d.LevelRows(1, endpoints[0].AEID, false)
	require.NoError(t, err)
	assert.Len(t, l1, 7, "re-run must replace, not append")

	summaries, err := d.SummariesByStudy(asid)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestRunMaskedWellExcluded(t *testing.T) {
	d := newTestStore(t)
	asid := registerStudy(t, d, map[string][]float64{
		"CellMask_Intensity": {10, 40, 160},
	})
	catalog := methods.NewCatalog(methods.DefaultConfig())
	assignDefaults(t, d, catalog, asid)
	runner := NewRunner(d, catalog)

	_, err := runner.Run(context.Background(), asid, 1, hcs.LevelMax)
	require.NoError(t, err)

	// Mask the mid-concentration treatment well and re-derive everything.
	wells, err := d.WellsByStudy(asid)
	require.NoError(t, err)
	for _, w := range wells {
		if w.Sample == "CHEM-1" && w.Conc == 10 {
			require.NoError(t, d.SetWellQuality(w.WAID, false))
		}
	}
	report, err := runner.Run(context.Background(), asid, 1, hcs.LevelMax)
	require.NoError(t, err)
	assert.Empty(t, report.Failed())

	// The series now jumps from in-band at 1 to out-of-band at 100, moving
	// the minimum effective concentration up.
	summaries, err := d.SummariesByStudy(asid)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.NotNil(t, summaries[0].MEC)
	assert.Equal(t, 100.0, *summaries[0].MEC)
}

func TestRunSkipsUnassignedLevel(t *testing.T) {
	d := newTestStore(t)
	asid := registerStudy(t, d, map[string][]float64{
		"CellMask_Intensity": {10, 40, 160},
	})
	catalog := methods.NewCatalog(methods.DefaultConfig())
	runner := NewRunner(d, catalog)

	// No assignments at all: every unit is a deliberate no-op.
	report, err := runner.Run(context.Background(), asid, 1, 2)
	require.NoError(t, err)
	require.Len(t, report.Statuses, 2)
	for _, s := range report.Statuses {
		assert.Equal(t, OutcomeSkipped, s.Outcome)
		assert.Equal(t, "no method assigned", s.Reason)
	}
}

func TestRunFailsWithoutPersistedInput(t *testing.T) {
	d := newTestStore(t)
	asid := registerStudy(t, d, map[string][]float64{
		"CellMask_Intensity": {10, 40, 160},
	})
	catalog := methods.NewCatalog(methods.DefaultConfig())
	assignDefaults(t, d, catalog, asid)
	runner := NewRunner(d, catalog)

	// Starting at level 3 with no level-2 rows persisted is a failure, not a
	// skip: the method is assigned but cannot run.
	report, err := runner.Run(context.Background(), asid, 3, 3)
	require.NoError(t, err)
	require.Len(t, report.Statuses, 1)
	assert.Equal(t, OutcomeFailed, report.Statuses[0].Outcome)
	assert.Contains(t, report.Statuses[0].Reason, "no level 2 input persisted")
}

func TestRunReportsAllWellsMasked(t *testing.T) {
	d := newTestStore(t)
	asid := registerStudy(t, d, map[string][]float64{
		"CellMask_Intensity": {10, 40, 160},
	})
	catalog := methods.NewCatalog(methods.DefaultConfig())
	assignDefaults(t, d, catalog, asid)
	runner := NewRunner(d, catalog)

	wells, err := d.WellsByStudy(asid)
	require.NoError(t, err)
	for _, w := range wells {
		require.NoError(t, d.SetWellQuality(w.WAID, false))
	}

	// Level-0 rows exist but none are usable: the failure names masking, not
	// a missing upstream run.
	report, err := runner.Run(context.Background(), asid, 1, 1)
	require.NoError(t, err)
	require.Len(t, report.Statuses, 1)
	assert.Equal(t, OutcomeFailed, report.Statuses[0].Outcome)
	assert.Contains(t, report.Statuses[0].Reason, "no usable wells in level 0 input")
}

func TestRunIsolatesEndpointFailures(t *testing.T) {
	d := newTestStore(t)
	// The second channel carries a zero raw value, which the log2
	// normalization rejects for that endpoint only.
	asid := registerStudy(t, d, map[string][]float64{
		"CellMask_Intensity":    {10, 40, 160},
		"MitoTracker_Intensity": {10, 0, 160},
	})
	catalog := methods.NewCatalog(methods.DefaultConfig())
	assignDefaults(t, d, catalog, asid)
	runner := NewRunner(d, catalog)

	report, err := runner.Run(context.Background(), asid, 1, hcs.LevelMax)
	require.NoError(t, err, "per-endpoint failures must not abort the run")

	require.Len(t, report.Statuses, 12)
	counts := report.Counts()
	assert.Equal(t, 6, counts[OutcomeSuccess])
	assert.Equal(t, 6, counts[OutcomeFailed])

	// The healthy endpoint still produced its summary.
	summaries, err := d.SummariesByStudy(asid)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Hit)
}

func TestRunValidatesLevelRange(t *testing.T) {
	d := newTestStore(t)
	runner := NewRunner(d, methods.NewCatalog(methods.DefaultConfig()))

	_, err := runner.Run(context.Background(), 1, 0, 3)
	assert.Error(t, err)
	_, err = runner.Run(context.Background(), 1, 1, hcs.LevelMax+1)
	assert.Error(t, err)
	_, err = runner.Run(context.Background(), 1, 4, 2)
	assert.Error(t, err)
}
