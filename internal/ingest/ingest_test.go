package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/assay.report/internal/hcs"
)

const plateCSV = `study,phase,stimulus,conc,exposure_hours,plate,box,well,well_type,vehicle,category,wllq
tox21,ph1,DMSO,0,24,P1,B0001,A01,n,DMSO,cytotoxicity,1
tox21,ph1,CHEM-1,10,24,P1,B0001,A02,treatment,DMSO,cytotoxicity,1
tox21,ph1,CHEM-1,10,24,P1,B0001,A03,t,DMSO,cytotoxicity,0
`

func TestReadPlateRows(t *testing.T) {
	rows, err := ReadPlateRows(strings.NewReader(plateCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "tox21", rows[0].Study)
	assert.Equal(t, "ph1", rows[0].Phase)
	assert.Equal(t, hcs.WellTypeNegControl, rows[0].WellType)
	assert.True(t, rows[0].Usable)

	// The long vendor label normalizes to the short code.
	assert.Equal(t, hcs.WellTypeTreatment, rows[1].WellType)
	assert.Equal(t, 10.0, rows[1].Conc)
	assert.Equal(t, 24.0, rows[1].ExposureHours)

	// wllq=0 marks the well unusable without dropping the row.
	assert.False(t, rows[2].Usable)
}

func TestReadPlateRowsUnknownWellType(t *testing.T) {
	csv := "study,phase,stimulus,conc,exposure_hours,plate,box,well,well_type,vehicle,category,wllq\n" +
		"tox21,ph1,DMSO,0,24,P1,B0001,A01,x,DMSO,cytotoxicity,1\n"

	_, err := ReadPlateRows(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown well type")
	assert.Contains(t, err.Error(), "row 1")
}

func TestReadAssayRows(t *testing.T) {
	csv := "category,endpoint,channel\ncytotoxicity,cytotox_cellmask,CellMask_Intensity\n"

	rows, err := ReadAssayRows(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, hcs.AssayRow{
		Category: "cytotoxicity",
		Endpoint: "cytotox_cellmask",
		Channel:  "CellMask_Intensity",
	}, rows[0])
}

func TestReadRawRows(t *testing.T) {
	csv := "box,well,channel,value\nB0001,A01,CellMask_Intensity,40.5\n"

	rows, err := ReadRawRows(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "B0001", rows[0].Box)
	assert.Equal(t, "A01", rows[0].Position)
	assert.Equal(t, 40.5, rows[0].Value)
}

func TestReadRawRowsMalformed(t *testing.T) {
	csv := "box,well,channel,value\nB0001,A01,CellMask_Intensity,not-a-number\n"

	_, err := ReadRawRows(strings.NewReader(csv))
	assert.Error(t, err)
}

func TestNormalizeWellType(t *testing.T) {
	cases := map[string]string{
		"t":                hcs.WellTypeTreatment,
		"Treatment":        hcs.WellTypeTreatment,
		"n":                hcs.WellTypeNegControl,
		"negative control": hcs.WellTypeNegControl,
		"NCTRL":            hcs.WellTypeNegControl,
		"p":                hcs.WellTypePosControl,
		"positive-control": hcs.WellTypePosControl,
	}
	for in, want := range cases {
		got, err := normalizeWellType(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	_, err := normalizeWellType("blank")
	assert.Error(t, err)
}
