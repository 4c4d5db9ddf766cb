// Package prepare implements the data preparer: it joins raw vendor
// measurement rows to the well and component dimension rows registered for a
// study, producing level-0 records ready for a bulk write.
package prepare

import (
	"fmt"

	"github.com/banshee-data/assay.report/internal/hcs"
)

// Store is the persistence surface the preparer needs.
type Store interface {
	WellsByStudy(asid int64) ([]hcs.Well, error)
	ComponentsByStudy(asid int64) ([]hcs.Component, error)
}

type wellKey struct {
	box      string
	row, col int
}

// PrepareForLoad resolves each raw row to exactly one well (by box and
// position) and one component (by channel) of the study. Any row that
// resolves to zero or more than one of either fails the whole call with
// ErrUnresolvedReference; silently picking one would corrupt downstream
// statistics.
func PrepareForLoad(store Store, asid int64, rawRows []hcs.RawRow) ([]hcs.Level0Record, error) {
	wells, err := store.WellsByStudy(asid)
	if err != nil {
		return nil, fmt.Errorf("failed to load wells for study %d: %w", asid, err)
	}
	components, err := store.ComponentsByStudy(asid)
	if err != nil {
		return nil, fmt.Errorf("failed to load components for study %d: %w", asid, err)
	}

	wellIndex := make(map[wellKey]hcs.Well, len(wells))
	for _, w := range wells {
		wellIndex[wellKey{w.Box, w.Row, w.Col}] = w
	}
	channelIndex := make(map[string]hcs.Component, len(components))
	for _, c := range components {
		channelIndex[c.Channel] = c
	}

	seen := map[[2]int64]string{}
	records := make([]hcs.Level0Record, 0, len(rawRows))
	for _, row := range rawRows {
		r, c, err := hcs.ParseWellPosition(row.Position)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", hcs.ErrUnresolvedReference, err)
		}
		well, ok := wellIndex[wellKey{row.Box, r, c}]
		if !ok {
			return nil, fmt.Errorf("%w: no well at %s/%s in study %d",
				hcs.ErrUnresolvedReference, row.Box, row.Position, asid)
		}
		component, ok := channelIndex[row.Channel]
		if !ok {
			return nil, fmt.Errorf("%w: no component for channel %q in study %d",
				hcs.ErrUnresolvedReference, row.Channel, asid)
		}

		key := [2]int64{component.ACID, well.WAID}
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: rows %s and %s/%s both resolve to channel %q at %s/%s",
				hcs.ErrUnresolvedReference, prev, row.Box, row.Position, row.Channel, row.Box, row.Position)
		}
		seen[key] = row.Box + "/" + row.Position

		records = append(records, hcs.Level0Record{
			ACID:   component.ACID,
			WAID:   well.WAID,
			Value:  row.Value,
			Usable: well.Usable,
		})
	}
	return records, nil
}
