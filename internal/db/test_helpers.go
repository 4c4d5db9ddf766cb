package db

import (
	"path/filepath"
	"testing"

	"github.com/banshee-data/assay.report/internal/hcs"
)

// newTestDB opens a migrated database in a per-test temp directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "assay_test.db")
	d, err := OpenAndMigrate(path)
	if err != nil {
		t.Fatalf("OpenAndMigrate failed: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// registerTestStudy registers a one-plate study with a single endpoint,
// three negative-control wells and one treatment well. The values used by
// tests that load level-0 data match the fixture in loadTestLevel0.
func registerTestStudy(t *testing.T, d *DB, name, phase string) int64 {
	t.Helper()

	reg := hcs.StudyRegistration{
		Name:  name,
		Phase: phase,
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
	if err != nil {
		t.Fatalf("RegisterAnnotations failed: %v", err)
	}
	return asid
}

// loadTestLevel0 loads raw values 10, 11, 9 into the control wells and 40
// into the treatment well of a study created by registerTestStudy.
func loadTestLevel0(t *testing.T, d *DB, asid int64) {
	t.Helper()

	components, err := d.ComponentsByStudy(asid)
	if err != nil {
		t.Fatalf("ComponentsByStudy failed: %v", err)
	}
	if len(components) != 1 {
		t.Fatalf("expected 1 component, got %d", len(components))
	}
	wells, err := d.WellsByStudy(asid)
	if err != nil {
		t.Fatalf("WellsByStudy failed: %v", err)
	}
	if len(wells) != 4 {
		t.Fatalf("expected 4 wells, got %d", len(wells))
	}

	values := []float64{10, 11, 9, 40}
	records := make([]hcs.Level0Record, len(wells))
	for i, w := range wells {
		records[i] = hcs.Level0Record{ACID: components[0].ACID, WAID: w.WAID, Value: values[i], Usable: true}
	}
	if err := d.InsertLevel0(records); err != nil {
		t.Fatalf("InsertLevel0 failed: %v", err)
	}
}
