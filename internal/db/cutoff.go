package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/assay.report/internal/hcs"
)

// UpsertCutoff persists an endpoint's noise-band cutoff, replacing any prior
// value for the same endpoint and scope.
func (db *DB) UpsertCutoff(c hcs.Cutoff) error {
	_, err := db.Exec(`
		INSERT INTO noise_band (aeid, scope, cutoff, n_controls, updated_at)
		VALUES (?, ?, ?, ?, unixepoch())
		ON CONFLICT (aeid, scope) DO UPDATE SET
			cutoff = excluded.cutoff,
			n_controls = excluded.n_controls,
			updated_at = unixepoch()`,
		c.AEID, string(c.Scope), c.Value, c.NControls)
	if err != nil {
		return mapStoreErr(fmt.Errorf("failed to upsert cutoff for endpoint %d: %w", c.AEID, err))
	}
	return nil
}

// CutoffFor returns the endpoint's active noise-band cutoff, preferring a
// within-study value over a historical/global one. Returns nil when neither
// scope has a persisted value.
func (db *DB) CutoffFor(aeid int64) (*hcs.Cutoff, error) {
	for _, scope := range []hcs.Scope{hcs.ScopeStudy, hcs.ScopeGlobal} {
		c, err := db.cutoffForScope(aeid, scope)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
	}
	return nil, nil
}

func (db *DB) cutoffForScope(aeid int64, scope hcs.Scope) (*hcs.Cutoff, error) {
	var c hcs.Cutoff
	var updatedAt int64
	var scopeStr string
	err := db.QueryRow(
		`SELECT aeid, scope, cutoff, n_controls, updated_at FROM noise_band WHERE aeid = ? AND scope = ?`,
		aeid, string(scope),
	).Scan(&c.AEID, &scopeStr, &c.Value, &c.NControls, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cutoff for endpoint %d scope %s: %w", aeid, scope, err)
	}
	c.Scope = hcs.Scope(scopeStr)
	c.UpdatedAt = time.Unix(updatedAt, 0)
	return &c, nil
}

// CutoffsByStudy lists persisted cutoffs for every endpoint of a study.
func (db *DB) CutoffsByStudy(asid int64) ([]hcs.Cutoff, error) {
	rows, err := db.Query(`
		SELECT n.aeid, n.scope, n.cutoff, n.n_controls, n.updated_at
		FROM noise_band n
		JOIN assay_endpoint e ON e.aeid = n.aeid
		WHERE e.asid = ?
		ORDER BY n.aeid, n.scope`, asid)
	if err != nil {
		return nil, fmt.Errorf("failed to list cutoffs for study %d: %w", asid, err)
	}
	defer rows.Close()

	cutoffs := []hcs.Cutoff{}
	for rows.Next() {
		var c hcs.Cutoff
		var updatedAt int64
		var scopeStr string
		if err := rows.Scan(&c.AEID, &scopeStr, &c.Value, &c.NControls, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cutoff: %w", err)
		}
		c.Scope = hcs.Scope(scopeStr)
		c.UpdatedAt = time.Unix(updatedAt, 0)
		cutoffs = append(cutoffs, c)
	}
	return cutoffs, rows.Err()
}
