package db

import (
	"fmt"

	"github.com/banshee-data/assay.report/internal/hcs"
)

// WellsByStudy lists the study's wells.
func (db *DB) WellsByStudy(asid int64) ([]hcs.Well, error) {
	rows, err := db.Query(`
		SELECT waid, asid, plate, box, row_index, col_index, well_type,
			sample, conc, exposure_hours, vehicle, wllq
		FROM well WHERE asid = ? ORDER BY waid`, asid)
	if err != nil {
		return nil, fmt.Errorf("failed to list wells for study %d: %w", asid, err)
	}
	defer rows.Close()

	var wells []hcs.Well
	for rows.Next() {
		var w hcs.Well
		var wllq int
		if err := rows.Scan(&w.WAID, &w.ASID, &w.Plate, &w.Box, &w.Row, &w.Col,
			&w.WellType, &w.Sample, &w.Conc, &w.ExposureHours, &w.Vehicle, &wllq); err != nil {
			return nil, fmt.Errorf("failed to scan well: %w", err)
		}
		w.Usable = wllq == 1
		wells = append(wells, w)
	}
	return wells, rows.Err()
}

// SetWellQuality updates the quality flag of one well. Flagging a well
// unusable excludes it from all derived levels without touching its raw
// level-0 record.
func (db *DB) SetWellQuality(waid int64, usable bool) error {
	wllq := 0
	if usable {
		wllq = 1
	}
	res, err := db.Exec(`UPDATE well SET wllq = ? WHERE waid = ?`, wllq, waid)
	if err != nil {
		return fmt.Errorf("failed to update well %d quality: %w", waid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check well update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: well %d does not exist", hcs.ErrStoreIntegrity, waid)
	}
	return nil
}
