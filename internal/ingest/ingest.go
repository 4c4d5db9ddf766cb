// Package ingest reads the ingestion-boundary CSV files — plate metadata,
// assay metadata, and raw vendor measurements — into the domain's boundary
// row types. Fetching the files from the vendor webservice is out of scope;
// this package starts from local readers.
package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/banshee-data/assay.report/internal/hcs"
)

type plateCSVRow struct {
	Study         string  `csv:"study"`
	Phase         string  `csv:"phase"`
	Stimulus      string  `csv:"stimulus"`
	Conc          float64 `csv:"conc"`
	ExposureHours float64 `csv:"exposure_hours"`
	Plate         string  `csv:"plate"`
	Box           string  `csv:"box"`
	Well          string  `csv:"well"`
	WellType      string  `csv:"well_type"`
	Vehicle       string  `csv:"vehicle"`
	Category      string  `csv:"category"`
	Wllq          int     `csv:"wllq"`
}

type assayCSVRow struct {
	Category string `csv:"category"`
	Endpoint string `csv:"endpoint"`
	Channel  string `csv:"channel"`
}

type rawCSVRow struct {
	Box     string  `csv:"box"`
	Well    string  `csv:"well"`
	Channel string  `csv:"channel"`
	Value   float64 `csv:"value"`
}

// ReadPlateRows parses plate metadata CSV.
func ReadPlateRows(r io.Reader) ([]hcs.PlateRow, error) {
	var csvRows []plateCSVRow
	if err := gocsv.Unmarshal(r, &csvRows); err != nil {
		return nil, fmt.Errorf("failed to parse plate metadata: %w", err)
	}

	rows := make([]hcs.PlateRow, 0, len(csvRows))
	for i, row := range csvRows {
		wellType, err := normalizeWellType(row.WellType)
		if err != nil {
			return nil, fmt.Errorf("plate metadata row %d: %w", i+1, err)
		}
		rows = append(rows, hcs.PlateRow{
			Study:         row.Study,
			Phase:         row.Phase,
			Stimulus:      row.Stimulus,
			Conc:          row.Conc,
			ExposureHours: row.ExposureHours,
			Plate:         row.Plate,
			Box:           row.Box,
			Position:      row.Well,
			WellType:      wellType,
			Vehicle:       row.Vehicle,
			Category:      row.Category,
			Usable:        row.Wllq == 1,
		})
	}
	return rows, nil
}

// ReadAssayRows parses assay metadata CSV.
func ReadAssayRows(r io.Reader) ([]hcs.AssayRow, error) {
	var csvRows []assayCSVRow
	if err := gocsv.Unmarshal(r, &csvRows); err != nil {
		return nil, fmt.Errorf("failed to parse assay metadata: %w", err)
	}

	rows := make([]hcs.AssayRow, 0, len(csvRows))
	for _, row := range csvRows {
		rows = append(rows, hcs.AssayRow(row))
	}
	return rows, nil
}

// ReadRawRows parses raw measurement CSV.
func ReadRawRows(r io.Reader) ([]hcs.RawRow, error) {
	var csvRows []rawCSVRow
	if err := gocsv.Unmarshal(r, &csvRows); err != nil {
		return nil, fmt.Errorf("failed to parse raw data: %w", err)
	}

	rows := make([]hcs.RawRow, 0, len(csvRows))
	for _, row := range csvRows {
		rows = append(rows, hcs.RawRow{
			Box:      row.Box,
			Position: row.Well,
			Channel:  row.Channel,
			Value:    row.Value,
		})
	}
	return rows, nil
}

// normalizeWellType accepts both the short codes and the long vendor labels.
func normalizeWellType(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "treatment":
		return hcs.WellTypeTreatment, nil
	case "n", "nctrl", "negative-control", "negative control":
		return hcs.WellTypeNegControl, nil
	case "p", "pctrl", "positive-control", "positive control":
		return hcs.WellTypePosControl, nil
	default:
		return "", fmt.Errorf("unknown well type %q", s)
	}
}
