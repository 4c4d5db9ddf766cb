// Package annotate implements the annotation loader: it validates plate and
// assay metadata against each other, allocates a study identifier, and
// registers the study's components, endpoints, and wells in one transaction.
package annotate

import (
	"fmt"
	"sort"

	"github.com/banshee-data/assay.report/internal/hcs"
)

// Store is the persistence surface the loader needs.
type Store interface {
	FindStudyByNamePhase(name, phase string) (*hcs.Study, error)
	RegisterAnnotations(reg hcs.StudyRegistration) (int64, error)
}

// Options controls a single load call.
type Options struct {
	// PriorASID makes re-registration of an existing (name, phase) pair
	// explicit. Without it, a seen pair fails with ErrDuplicateStudy.
	PriorASID *int64
}

// LoadAnnotations validates the metadata batch and registers the study.
// Returns the new (or explicitly reused) study id.
func LoadAnnotations(store Store, plateRows []hcs.PlateRow, assayRows []hcs.AssayRow, opts Options) (int64, error) {
	if len(plateRows) == 0 {
		return 0, fmt.Errorf("%w: no plate metadata rows", hcs.ErrSchemaMismatch)
	}
	if len(assayRows) == 0 {
		return 0, fmt.Errorf("%w: no assay metadata rows", hcs.ErrSchemaMismatch)
	}

	name, phase := plateRows[0].Study, plateRows[0].Phase
	for _, row := range plateRows {
		if row.Study != name || row.Phase != phase {
			return 0, fmt.Errorf("%w: plate metadata mixes studies (%s/%s vs %s/%s)",
				hcs.ErrSchemaMismatch, name, phase, row.Study, row.Phase)
		}
	}

	// Every endpoint category referenced by the assay metadata must appear
	// among the categories the plate metadata derives.
	plateCategories := map[string]bool{}
	for _, row := range plateRows {
		plateCategories[row.Category] = true
	}
	var missing []string
	seenCategory := map[string]bool{}
	for _, row := range assayRows {
		if seenCategory[row.Category] {
			continue
		}
		seenCategory[row.Category] = true
		if !plateCategories[row.Category] {
			missing = append(missing, row.Category)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return 0, fmt.Errorf("%w: assay categories %v absent from plate metadata", hcs.ErrSchemaMismatch, missing)
	}

	existing, err := store.FindStudyByNamePhase(name, phase)
	if err != nil {
		return 0, fmt.Errorf("failed to check for prior study: %w", err)
	}
	if existing != nil {
		if opts.PriorASID == nil {
			return 0, fmt.Errorf("%w: %s/%s is asid %d", hcs.ErrDuplicateStudy, name, phase, existing.ASID)
		}
		if *opts.PriorASID != existing.ASID {
			return 0, fmt.Errorf("%w: %s/%s is asid %d, not %d",
				hcs.ErrDuplicateStudy, name, phase, existing.ASID, *opts.PriorASID)
		}
	}

	reg := hcs.StudyRegistration{Name: name, Phase: phase}
	if existing != nil {
		reg.PriorASID = opts.PriorASID
	}

	seenChannel := map[string]bool{}
	for _, row := range assayRows {
		if row.Channel == "" || row.Endpoint == "" {
			return 0, fmt.Errorf("%w: assay row for category %q missing endpoint or channel",
				hcs.ErrSchemaMismatch, row.Category)
		}
		if seenChannel[row.Channel] {
			return 0, fmt.Errorf("%w: channel %q declared twice in assay metadata",
				hcs.ErrSchemaMismatch, row.Channel)
		}
		seenChannel[row.Channel] = true
		reg.Channels = append(reg.Channels, hcs.ChannelSpec{
			Category: row.Category,
			Channel:  row.Channel,
			Endpoint: row.Endpoint,
		})
	}

	for _, row := range plateRows {
		r, c, err := hcs.ParseWellPosition(row.Position)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", hcs.ErrSchemaMismatch, err)
		}
		reg.Wells = append(reg.Wells, hcs.WellSpec{
			Plate:         row.Plate,
			Box:           row.Box,
			Row:           r,
			Col:           c,
			WellType:      row.WellType,
			Sample:        row.Stimulus,
			Conc:          row.Conc,
			ExposureHours: row.ExposureHours,
			Vehicle:       row.Vehicle,
			Usable:        row.Usable,
		})
	}

	asid, err := store.RegisterAnnotations(reg)
	if err != nil {
		return 0, fmt.Errorf("failed to register study %s/%s: %w", name, phase, err)
	}
	return asid, nil
}
