package db

import (
	"database/sql"
	"fmt"

	"github.com/banshee-data/assay.report/internal/hcs"
)

// RegisterAnnotations persists a validated study registration: the study row,
// its components and endpoints, and its wells. The whole batch commits or
// none of it does.
//
// When reg.PriorASID is set the existing study's dimension and level rows are
// replaced under the same id; this is the explicit-overwrite path. Without a
// prior id a fresh study row is allocated.
func (db *DB) RegisterAnnotations(reg hcs.StudyRegistration) (int64, error) {
	var asid int64
	err := db.withTx(func(tx *sql.Tx) error {
		var err error
		if reg.PriorASID != nil {
			asid = *reg.PriorASID
			if err = clearStudyData(tx, asid); err != nil {
				return err
			}
		} else {
			res, err := tx.Exec(`INSERT INTO study (name, phase) VALUES (?, ?)`, reg.Name, reg.Phase)
			if err != nil {
				return mapStoreErr(fmt.Errorf("failed to insert study: %w", err))
			}
			if asid, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get study id: %w", err)
			}
		}

		for _, ch := range reg.Channels {
			res, err := tx.Exec(
				`INSERT INTO assay_component (asid, category, channel) VALUES (?, ?, ?)`,
				asid, ch.Category, ch.Channel,
			)
			if err != nil {
				return mapStoreErr(fmt.Errorf("failed to insert component %q: %w", ch.Channel, err))
			}
			acid, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get component id: %w", err)
			}
			if _, err := tx.Exec(
				`INSERT INTO assay_endpoint (acid, asid, name) VALUES (?, ?, ?)`,
				acid, asid, ch.Endpoint,
			); err != nil {
				return mapStoreErr(fmt.Errorf("failed to insert endpoint %q: %w", ch.Endpoint, err))
			}
		}

		stmt, err := tx.Prepare(`
			INSERT INTO well (asid, plate, box, row_index, col_index, well_type,
				sample, conc, exposure_hours, vehicle, wllq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare well insert: %w", err)
		}
		defer stmt.Close()

		for _, w := range reg.Wells {
			wllq := 0
			if w.Usable {
				wllq = 1
			}
			if _, err := stmt.Exec(
				asid, w.Plate, w.Box, w.Row, w.Col, w.WellType,
				w.Sample, w.Conc, w.ExposureHours, w.Vehicle, wllq,
			); err != nil {
				return mapStoreErr(fmt.Errorf("failed to insert well %s/%d/%d: %w", w.Box, w.Row, w.Col, err))
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return asid, nil
}

// clearStudyData removes all child rows of a study so an explicit
// re-registration can replace them under the same asid. The study row itself
// is preserved to keep the identifier stable.
func clearStudyData(tx *sql.Tx, asid int64) error {
	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM study WHERE asid = ?`, asid).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check study %d: %w", asid, err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: prior study %d does not exist", hcs.ErrStoreIntegrity, asid)
	}

	statements := []string{
		`DELETE FROM level6 WHERE aeid IN (SELECT aeid FROM assay_endpoint WHERE asid = ?)`,
		`DELETE FROM level5 WHERE aeid IN (SELECT aeid FROM assay_endpoint WHERE asid = ?)`,
		`DELETE FROM level4 WHERE aeid IN (SELECT aeid FROM assay_endpoint WHERE asid = ?)`,
		`DELETE FROM level3 WHERE aeid IN (SELECT aeid FROM assay_endpoint WHERE asid = ?)`,
		`DELETE FROM level2 WHERE aeid IN (SELECT aeid FROM assay_endpoint WHERE asid = ?)`,
		`DELETE FROM level1 WHERE aeid IN (SELECT aeid FROM assay_endpoint WHERE asid = ?)`,
		`DELETE FROM level0 WHERE acid IN (SELECT acid FROM assay_component WHERE asid = ?)`,
		`DELETE FROM noise_band WHERE aeid IN (SELECT aeid FROM assay_endpoint WHERE asid = ?)`,
		`DELETE FROM method_assignment WHERE aeid IN (SELECT aeid FROM assay_endpoint WHERE asid = ?)`,
		`DELETE FROM well WHERE asid = ?`,
		`DELETE FROM assay_endpoint WHERE asid = ?`,
		`DELETE FROM assay_component WHERE asid = ?`,
	}
	for _, q := range statements {
		if _, err := tx.Exec(q, asid); err != nil {
			return fmt.Errorf("failed to clear study %d data: %w", asid, err)
		}
	}
	return nil
}
