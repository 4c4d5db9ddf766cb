package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/banshee-data/assay.report/internal/hcs"
)

// GetStudy retrieves a study by id. Returns nil when the id is unknown.
func (db *DB) GetStudy(asid int64) (*hcs.Study, error) {
	row := db.QueryRow(`SELECT asid, name, phase, created_at FROM study WHERE asid = ?`, asid)
	s, err := scanStudy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get study %d: %w", asid, err)
	}
	return s, nil
}

// FindStudyByNamePhase retrieves a study by its (name, phase) pair. Returns
// nil when no such study exists.
func (db *DB) FindStudyByNamePhase(name, phase string) (*hcs.Study, error) {
	row := db.QueryRow(`SELECT asid, name, phase, created_at FROM study WHERE name = ? AND phase = ?`, name, phase)
	s, err := scanStudy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find study %q/%q: %w", name, phase, err)
	}
	return s, nil
}

// studyFilterColumns is the allowlist of fields FindStudies accepts.
var studyFilterColumns = map[string]string{
	"asid":  "asid",
	"name":  "name",
	"phase": "phase",
}

// FindStudies lists registered studies, optionally filtered by field/value
// pairs. Returns an empty slice (never an error) when nothing matches.
func (db *DB) FindStudies(filters map[string]string) ([]hcs.Study, error) {
	query := `SELECT asid, name, phase, created_at FROM study`
	var clauses []string
	var args []any
	for field, value := range filters {
		col, ok := studyFilterColumns[field]
		if !ok {
			return nil, fmt.Errorf("unknown study filter field %q", field)
		}
		clauses = append(clauses, col+" = ?")
		args = append(args, value)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY asid"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list studies: %w", err)
	}
	defer rows.Close()

	studies := []hcs.Study{}
	for rows.Next() {
		var s hcs.Study
		var createdAt int64
		if err := rows.Scan(&s.ASID, &s.Name, &s.Phase, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan study: %w", err)
		}
		s.CreatedAt = time.Unix(createdAt, 0)
		studies = append(studies, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate studies: %w", err)
	}
	return studies, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudy(r rowScanner) (*hcs.Study, error) {
	var s hcs.Study
	var createdAt int64
	if err := r.Scan(&s.ASID, &s.Name, &s.Phase, &createdAt); err != nil {
		return nil, err
	}
	s.CreatedAt = time.Unix(createdAt, 0)
	return &s, nil
}
