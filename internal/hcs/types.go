package hcs

import "time"

// Levels of derivation. Level 0 holds raw values written by the data
// preparer; levels 1-5 hold per-well derived responses; level 6 holds
// per-series activity summaries.
const (
	LevelRaw     = 0
	LevelMin     = 0
	LevelMax     = 6
	LevelSummary = 6
)

// ValidLevel reports whether level names one of the persisted level tables.
func ValidLevel(level int) bool {
	return level >= LevelMin && level <= LevelMax
}

// Scope identifies the provenance of a noise-band cutoff.
type Scope string

const (
	// ScopeStudy marks a cutoff computed from the study's own control wells.
	ScopeStudy Scope = "study"
	// ScopeGlobal marks a cutoff computed from historical controls across studies.
	ScopeGlobal Scope = "global"
)

// Well-type classifications.
const (
	WellTypeTreatment  = "t"
	WellTypeNegControl = "n"
	WellTypePosControl = "p"
)

// Study identifies one screening dataset by (name, phase).
type Study struct {
	ASID      int64     `json:"asid"`
	Name      string    `json:"name"`
	Phase     string    `json:"phase"`
	CreatedAt time.Time `json:"created_at"`
}

// Component is one raw machine readout channel within a study.
type Component struct {
	ACID     int64  `json:"acid"`
	ASID     int64  `json:"asid"`
	Category string `json:"category"`
	Channel  string `json:"channel"`
}

// Endpoint is one analysed assay readout within a study. Each endpoint is
// backed by exactly one component; the component's channel supplies the
// endpoint's raw level-0 values.
type Endpoint struct {
	AEID int64  `json:"aeid"`
	ACID int64  `json:"acid"`
	ASID int64  `json:"asid"`
	Name string `json:"name"`
}

// Well is one physical location on one plate within a study.
type Well struct {
	WAID          int64   `json:"waid"`
	ASID          int64   `json:"asid"`
	Plate         string  `json:"plate"`
	Box           string  `json:"box"`
	Row           int     `json:"row"`
	Col           int     `json:"col"`
	WellType      string  `json:"well_type"`
	Sample        string  `json:"sample"`
	Conc          float64 `json:"conc"`
	ExposureHours float64 `json:"exposure_hours"`
	Vehicle       string  `json:"vehicle"`
	Usable        bool    `json:"usable"`
}

// Level0Record is a raw measurement joined to its dimension rows.
type Level0Record struct {
	M0ID   int64   `json:"m0id"`
	ACID   int64   `json:"acid"`
	WAID   int64   `json:"waid"`
	Value  float64 `json:"value"`
	Usable bool    `json:"usable"`
}

// Response is a derived per-well value at one of levels 1-5. Flag carries
// level-specific annotation: within-band at level 2, active at level 5.
type Response struct {
	AEID int64   `json:"aeid"`
	WAID int64   `json:"waid"`
	Resp float64 `json:"resp"`
	Flag *int64  `json:"flag,omitempty"`
}

// WellValue is a level record joined with its well's dimensions, the shape
// transforms consume. Value holds the record's raw or derived value.
type WellValue struct {
	WAID     int64
	Box      string
	Sample   string
	Conc     float64
	WellType string
	Usable   bool
	Value    float64
	Flag     *int64
}

// Summary is one level-6 activity summary for an (endpoint, sample) series.
type Summary struct {
	AEID       int64    `json:"aeid"`
	Sample     string   `json:"sample"`
	MEC        *float64 `json:"mec,omitempty"`
	AC50       *float64 `json:"ac50,omitempty"`
	FitQuality float64  `json:"fit_quality"`
	Hit        bool     `json:"hit"`
}

// Cutoff is a persisted noise-band cutoff for one endpoint and scope.
type Cutoff struct {
	AEID      int64     `json:"aeid"`
	Scope     Scope     `json:"scope"`
	Value     float64   `json:"value"`
	NControls int       `json:"n_controls"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Boundary row types from the excluded webservice/file ingestion layer.

// PlateRow is one well of plate-level metadata.
type PlateRow struct {
	Study         string
	Phase         string
	Stimulus      string
	Conc          float64
	ExposureHours float64
	Plate         string
	Box           string
	Position      string
	WellType      string
	Vehicle       string
	Category      string
	Usable        bool
}

// AssayRow maps an endpoint category to an endpoint name and machine channel.
type AssayRow struct {
	Category string
	Endpoint string
	Channel  string
}

// RawRow is one raw vendor measurement.
type RawRow struct {
	Box      string
	Position string
	Channel  string
	Value    float64
}

// StudyRegistration is the validated batch the annotation loader hands to the
// store. The whole batch commits transactionally or not at all.
type StudyRegistration struct {
	Name      string
	Phase     string
	PriorASID *int64
	Channels  []ChannelSpec
	Wells     []WellSpec
}

// ChannelSpec registers one component and its endpoint.
type ChannelSpec struct {
	Category string
	Channel  string
	Endpoint string
}

// WellSpec registers one well.
type WellSpec struct {
	Plate         string
	Box           string
	Row           int
	Col           int
	WellType      string
	Sample        string
	Conc          float64
	ExposureHours float64
	Vehicle       string
	Usable        bool
}
