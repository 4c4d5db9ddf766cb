package db

import (
	"path/filepath"
	"testing"
)

func TestMigrateUpDown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assay_test.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer d.Close()

	if err := d.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	version, dirty, err := d.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("after up: version %d dirty %v, want 1 clean", version, dirty)
	}

	// A repeated up is a no-op, not an error.
	if err := d.MigrateUp(); err != nil {
		t.Fatalf("repeated MigrateUp failed: %v", err)
	}

	// Down steps back exactly one migration; with a single migration applied
	// that leaves the schema unversioned.
	if err := d.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	version, dirty, err = d.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion after down failed: %v", err)
	}
	if version != 0 || dirty {
		t.Fatalf("after down: version %d dirty %v, want 0 clean", version, dirty)
	}

	if err := d.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp after down failed: %v", err)
	}
	version, _, err = d.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion after re-up failed: %v", err)
	}
	if version != 1 {
		t.Fatalf("after re-up: version %d, want 1", version)
	}
}
