package methods

import (
	"fmt"

	"github.com/banshee-data/assay.report/internal/hcs"
)

// AssignmentStore is the persistence surface for method assignments.
type AssignmentStore interface {
	EndpointsByStudy(asid int64) ([]hcs.Endpoint, error)
	MethodFor(aeid int64, level int) (method string, ok bool, err error)
	UpsertMethodAssignment(aeid int64, level int, method string) error
}

// Assign binds one (endpoint, level) to a catalog method, replacing any
// existing binding. Fails with ErrUnknownMethod when the catalog has no such
// method at that level.
func (c *Catalog) Assign(store AssignmentStore, aeid int64, level int, name string) error {
	if _, ok := c.Lookup(level, name); !ok {
		return fmt.Errorf("%w: %q at level %d", hcs.ErrUnknownMethod, name, level)
	}
	return store.UpsertMethodAssignment(aeid, level, name)
}

// AssignDefaults fills every endpoint of the study with the catalog's
// per-level defaults. Existing explicit assignments are not overwritten;
// defaults fill gaps only.
func (c *Catalog) AssignDefaults(store AssignmentStore, asid int64) error {
	endpoints, err := store.EndpointsByStudy(asid)
	if err != nil {
		return fmt.Errorf("failed to list endpoints for study %d: %w", asid, err)
	}

	for _, e := range endpoints {
		for level := 1; level <= hcs.LevelMax; level++ {
			name, hasDefault := c.Default(level)
			if !hasDefault {
				continue
			}
			if _, assigned, err := store.MethodFor(e.AEID, level); err != nil {
				return err
			} else if assigned {
				continue
			}
			if err := store.UpsertMethodAssignment(e.AEID, level, name); err != nil {
				return err
			}
		}
	}
	return nil
}
