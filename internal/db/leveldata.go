package db

import (
	"database/sql"
	"fmt"

	"github.com/banshee-data/assay.report/internal/hcs"
)

// levelTable maps a derived level (1-5) to its table name. Level 0 and level
// 6 have their own shapes and are handled separately.
func levelTable(level int) (string, error) {
	if level < 1 || level > 5 {
		return "", fmt.Errorf("no per-well response table for level %d", level)
	}
	return fmt.Sprintf("level%d", level), nil
}

// InsertLevel0 bulk-inserts raw records inside one transaction. Records for
// an already-loaded (component, well) pair breach the uniqueness constraint
// and surface as a store integrity violation.
func (db *DB) InsertLevel0(records []hcs.Level0Record) error {
	return db.withTx(func(tx *sql.Tx) error {
		return insertLevel0Rows(tx, records)
	})
}

func insertLevel0Rows(tx *sql.Tx, records []hcs.Level0Record) error {
	stmt, err := tx.Prepare(`INSERT INTO level0 (acid, waid, rval, wllq) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare level0 insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		wllq := 0
		if r.Usable {
			wllq = 1
		}
		if _, err := stmt.Exec(r.ACID, r.WAID, r.Value, wllq); err != nil {
			return mapStoreErr(fmt.Errorf("failed to insert level0 row acid=%d waid=%d: %w", r.ACID, r.WAID, err))
		}
	}
	return nil
}

// LevelRows loads one endpoint's records at the given level joined with well
// dimensions, the shape transforms consume. Level 0 rows are resolved through
// the endpoint's component. With usableOnly set, wells currently flagged
// unusable are excluded; their raw rows remain in place.
func (db *DB) LevelRows(level int, aeid int64, usableOnly bool) ([]hcs.WellValue, error) {
	var query string
	if level == 0 {
		query = `
			SELECT w.waid, w.box, w.sample, w.conc, w.well_type, w.wllq, l.rval, NULL
			FROM level0 l
			JOIN well w ON w.waid = l.waid
			JOIN assay_endpoint e ON e.acid = l.acid
			WHERE e.aeid = ?`
	} else {
		table, err := levelTable(level)
		if err != nil {
			return nil, err
		}
		query = fmt.Sprintf(`
			SELECT w.waid, w.box, w.sample, w.conc, w.well_type, w.wllq, l.resp, l.flag
			FROM %s l
			JOIN well w ON w.waid = l.waid
			WHERE l.aeid = ?`, table)
	}
	if usableOnly {
		query += ` AND w.wllq = 1`
	}
	query += ` ORDER BY w.waid`

	rows, err := db.Query(query, aeid)
	if err != nil {
		return nil, fmt.Errorf("failed to load level %d rows for endpoint %d: %w", level, aeid, err)
	}
	defer rows.Close()

	var values []hcs.WellValue
	for rows.Next() {
		var v hcs.WellValue
		var wllq int
		var flag sql.NullInt64
		if err := rows.Scan(&v.WAID, &v.Box, &v.Sample, &v.Conc, &v.WellType, &wllq, &v.Value, &flag); err != nil {
			return nil, fmt.Errorf("failed to scan level %d row: %w", level, err)
		}
		v.Usable = wllq == 1
		if flag.Valid {
			f := flag.Int64
			v.Flag = &f
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// HasLevelRows reports whether any rows are persisted for the endpoint at the
// given level.
func (db *DB) HasLevelRows(level int, aeid int64) (bool, error) {
	var query string
	switch {
	case level == 0:
		query = `SELECT COUNT(*) FROM level0 l JOIN assay_endpoint e ON e.acid = l.acid WHERE e.aeid = ?`
	case level == 6:
		query = `SELECT COUNT(*) FROM level6 WHERE aeid = ?`
	default:
		table, err := levelTable(level)
		if err != nil {
			return false, err
		}
		query = fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE aeid = ?`, table)
	}

	var n int
	if err := db.QueryRow(query, aeid).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to count level %d rows for endpoint %d: %w", level, aeid, err)
	}
	return n > 0, nil
}

// ReplaceLevelRows replaces one endpoint's rows at one derived level (1-5)
// inside a single transaction. A partially-applied transform never leaves
// mixed old/new rows visible to subsequent levels.
func (db *DB) ReplaceLevelRows(level int, aeid int64, responses []hcs.Response) error {
	table, err := levelTable(level)
	if err != nil {
		return err
	}
	return db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE aeid = ?`, table), aeid); err != nil {
			return fmt.Errorf("failed to clear %s for endpoint %d: %w", table, aeid, err)
		}

		stmt, err := tx.Prepare(fmt.Sprintf(
			`INSERT INTO %s (aeid, waid, resp, flag) VALUES (?, ?, ?, ?)`, table))
		if err != nil {
			return fmt.Errorf("failed to prepare %s insert: %w", table, err)
		}
		defer stmt.Close()

		for _, r := range responses {
			var flag any
			if r.Flag != nil {
				flag = *r.Flag
			}
			if _, err := stmt.Exec(aeid, r.WAID, r.Resp, flag); err != nil {
				return mapStoreErr(fmt.Errorf("failed to insert %s row waid=%d: %w", table, r.WAID, err))
			}
		}
		return nil
	})
}

// ReplaceLevel6 replaces one endpoint's activity summaries.
func (db *DB) ReplaceLevel6(aeid int64, summaries []hcs.Summary) error {
	return db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM level6 WHERE aeid = ?`, aeid); err != nil {
			return fmt.Errorf("failed to clear level6 for endpoint %d: %w", aeid, err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO level6 (aeid, sample, mec, ac50, fit_quality, hit)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare level6 insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range summaries {
			hit := 0
			if s.Hit {
				hit = 1
			}
			if _, err := stmt.Exec(aeid, s.Sample, s.MEC, s.AC50, s.FitQuality, hit); err != nil {
				return mapStoreErr(fmt.Errorf("failed to insert level6 row sample=%q: %w", s.Sample, err))
			}
		}
		return nil
	})
}

// SummariesByStudy lists level-6 activity summaries for every endpoint of a
// study, for the reporting boundary.
func (db *DB) SummariesByStudy(asid int64) ([]hcs.Summary, error) {
	rows, err := db.Query(`
		SELECT l.aeid, l.sample, l.mec, l.ac50, l.fit_quality, l.hit
		FROM level6 l
		JOIN assay_endpoint e ON e.aeid = l.aeid
		WHERE e.asid = ?
		ORDER BY l.aeid, l.sample`, asid)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries for study %d: %w", asid, err)
	}
	defer rows.Close()

	summaries := []hcs.Summary{}
	for rows.Next() {
		var s hcs.Summary
		var mec, ac50 sql.NullFloat64
		var hit int
		if err := rows.Scan(&s.AEID, &s.Sample, &mec, &ac50, &s.FitQuality, &hit); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		if mec.Valid {
			v := mec.Float64
			s.MEC = &v
		}
		if ac50.Valid {
			v := ac50.Float64
			s.AC50 = &v
		}
		s.Hit = hit == 1
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// ControlValues returns the raw level-0 values of usable negative-control
// wells feeding the endpoint. Study scope restricts to the endpoint's own
// component; global scope pools every study's components sharing the same
// machine channel.
func (db *DB) ControlValues(aeid int64, scope hcs.Scope) ([]float64, error) {
	var query string
	switch scope {
	case hcs.ScopeStudy:
		query = `
			SELECT l.rval FROM level0 l
			JOIN well w ON w.waid = l.waid
			JOIN assay_endpoint e ON e.acid = l.acid
			WHERE e.aeid = ? AND w.well_type = 'n' AND w.wllq = 1`
	case hcs.ScopeGlobal:
		query = `
			SELECT l.rval FROM level0 l
			JOIN well w ON w.waid = l.waid
			JOIN assay_component c ON c.acid = l.acid
			WHERE c.channel = (
				SELECT c2.channel FROM assay_component c2
				JOIN assay_endpoint e ON e.acid = c2.acid
				WHERE e.aeid = ?
			) AND w.well_type = 'n' AND w.wllq = 1`
	default:
		return nil, fmt.Errorf("unknown cutoff scope %q", scope)
	}

	rows, err := db.Query(query, aeid)
	if err != nil {
		return nil, fmt.Errorf("failed to load control values for endpoint %d: %w", aeid, err)
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan control value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
