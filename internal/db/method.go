package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// MethodAssignment binds one endpoint and level to a named method. At most
// one active method exists per (endpoint, level).
type MethodAssignment struct {
	AEID      int64     `json:"aeid"`
	Endpoint  string    `json:"endpoint"`
	Level     int       `json:"level"`
	Method    string    `json:"method"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertMethodAssignment writes one (endpoint, level) → method binding,
// replacing any existing one. Method-name validation against the catalog is
// the registry's job; the store only persists bindings.
func (db *DB) UpsertMethodAssignment(aeid int64, level int, method string) error {
	_, err := db.Exec(`
		INSERT INTO method_assignment (aeid, level, method, updated_at)
		VALUES (?, ?, ?, unixepoch())
		ON CONFLICT (aeid, level) DO UPDATE SET method = excluded.method, updated_at = unixepoch()`,
		aeid, level, method)
	if err != nil {
		return mapStoreErr(fmt.Errorf("failed to assign method %q to endpoint %d level %d: %w", method, aeid, level, err))
	}
	return nil
}

// MethodFor returns the method bound to (endpoint, level), or ok=false when
// the level has no assignment and is a no-op for that endpoint.
func (db *DB) MethodFor(aeid int64, level int) (method string, ok bool, err error) {
	err = db.QueryRow(
		`SELECT method FROM method_assignment WHERE aeid = ? AND level = ?`, aeid, level,
	).Scan(&method)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up method for endpoint %d level %d: %w", aeid, level, err)
	}
	return method, true, nil
}

// AssignmentsByStudy lists every method assignment for a study's endpoints.
func (db *DB) AssignmentsByStudy(asid int64) ([]MethodAssignment, error) {
	rows, err := db.Query(`
		SELECT m.aeid, e.name, m.level, m.method, m.updated_at
		FROM method_assignment m
		JOIN assay_endpoint e ON e.aeid = m.aeid
		WHERE e.asid = ?
		ORDER BY m.aeid, m.level`, asid)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments for study %d: %w", asid, err)
	}
	defer rows.Close()

	var assignments []MethodAssignment
	for rows.Next() {
		var a MethodAssignment
		var updatedAt int64
		if err := rows.Scan(&a.AEID, &a.Endpoint, &a.Level, &a.Method, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.UpdatedAt = time.Unix(updatedAt, 0)
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
