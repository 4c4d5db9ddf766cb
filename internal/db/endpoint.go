package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/banshee-data/assay.report/internal/hcs"
)

// ComponentsByStudy lists the study's assay components.
func (db *DB) ComponentsByStudy(asid int64) ([]hcs.Component, error) {
	rows, err := db.Query(
		`SELECT acid, asid, category, channel FROM assay_component WHERE asid = ? ORDER BY acid`, asid)
	if err != nil {
		return nil, fmt.Errorf("failed to list components for study %d: %w", asid, err)
	}
	defer rows.Close()

	var components []hcs.Component
	for rows.Next() {
		var c hcs.Component
		if err := rows.Scan(&c.ACID, &c.ASID, &c.Category, &c.Channel); err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

// EndpointsByStudy lists the study's assay endpoints in id order.
func (db *DB) EndpointsByStudy(asid int64) ([]hcs.Endpoint, error) {
	rows, err := db.Query(
		`SELECT aeid, acid, asid, name FROM assay_endpoint WHERE asid = ? ORDER BY aeid`, asid)
	if err != nil {
		return nil, fmt.Errorf("failed to list endpoints for study %d: %w", asid, err)
	}
	defer rows.Close()

	var endpoints []hcs.Endpoint
	for rows.Next() {
		var e hcs.Endpoint
		if err := rows.Scan(&e.AEID, &e.ACID, &e.ASID, &e.Name); err != nil {
			return nil, fmt.Errorf("failed to scan endpoint: %w", err)
		}
		endpoints = append(endpoints, e)
	}
	return endpoints, rows.Err()
}

// GetEndpoint retrieves one endpoint by id. Returns nil when unknown.
func (db *DB) GetEndpoint(aeid int64) (*hcs.Endpoint, error) {
	var e hcs.Endpoint
	err := db.QueryRow(
		`SELECT aeid, acid, asid, name FROM assay_endpoint WHERE aeid = ?`, aeid,
	).Scan(&e.AEID, &e.ACID, &e.ASID, &e.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint %d: %w", aeid, err)
	}
	return &e, nil
}
