// Package methods holds the process-wide method catalog: a closed set of
// typed transforms keyed by (level, name), with per-level defaults. The
// catalog is resolved at startup and read-mostly afterwards; assignments
// binding an endpoint and level to a catalog method live in the store.
package methods

import (
	"context"
	"fmt"
	"sort"

	"github.com/banshee-data/assay.report/internal/hcs"
	"github.com/banshee-data/assay.report/internal/hcs/fit"
	"github.com/banshee-data/assay.report/internal/hcs/noiseband"
)

// Input is the material a transform consumes: the endpoint's level-(n-1)
// rows restricted to usable wells, plus endpoint-level parameters.
type Input struct {
	ASID  int64
	AEID  int64
	Level int
	// Rows holds the usable level-(n-1) records joined with well dimensions.
	Rows []hcs.WellValue
	// Cutoff is the endpoint's persisted noise-band cutoff, nil when absent.
	Cutoff *hcs.Cutoff
	// Controls holds raw negative-control values in the transform's scope;
	// populated only for transforms that implement ControlScoper.
	Controls []float64
}

// Output is what a transform produces. Levels 1-5 emit Rows; level 6 emits
// Summaries; the noise-band level additionally emits a Cutoff for the runner
// to persist.
type Output struct {
	Rows      []hcs.Response
	Summaries []hcs.Summary
	Cutoff    *hcs.Cutoff
}

// Transform is one catalog method: a pure computation from level n-1 to
// level n for a single endpoint.
type Transform interface {
	Name() string
	Level() int
	Apply(ctx context.Context, in Input) (Output, error)
}

// ControlScoper is implemented by transforms that need raw negative-control
// values; the runner loads them in the declared scope before Apply.
type ControlScoper interface {
	ControlScope() hcs.Scope
}

// Config carries the statistical policy the built-in transforms close over.
type Config struct {
	Band       noiseband.Config
	ClipRange  float64
	Summarizer fit.Summarizer
}

// DefaultConfig returns the production policy.
func DefaultConfig() Config {
	return Config{
		Band:       noiseband.DefaultConfig(),
		ClipRange:  10,
		Summarizer: fit.NewInterpolator(),
	}
}

// Catalog maps (level, method-name) to transform implementations.
type Catalog struct {
	byLevel  map[int]map[string]Transform
	defaults map[int]string
}

// NewCatalog builds the standard catalog. Defaults: log2 control
// normalization at level 1, within-study MAD band at level 2, replicate
// collapse at level 3, hit classification at level 5, and activity
// summarization at level 6. Level 4 defaults to passthrough so the chain
// always persists; clipping is opt-in.
func NewCatalog(cfg Config) *Catalog {
	c := &Catalog{
		byLevel:  map[int]map[string]Transform{},
		defaults: map[int]string{},
	}

	c.mustRegister(&log2Ratio{}, true)
	c.mustRegister(&pctCtrl{}, false)
	c.mustRegister(&passthrough{level: 1}, false)
	c.mustRegister(&madBand{scope: hcs.ScopeStudy, cfg: cfg.Band}, true)
	c.mustRegister(&madBand{scope: hcs.ScopeGlobal, cfg: cfg.Band}, false)
	c.mustRegister(&collapseMedian{}, true)
	c.mustRegister(&passthrough{level: 3}, false)
	c.mustRegister(&passthrough{level: 4}, true)
	c.mustRegister(&clipRange{limit: cfg.ClipRange}, false)
	c.mustRegister(&hitBand{}, true)
	c.mustRegister(&fitSummary{summarizer: cfg.Summarizer}, true)

	return c
}

// Register adds a transform to the catalog, optionally as its level's default.
func (c *Catalog) Register(t Transform, isDefault bool) error {
	level := t.Level()
	if level < 1 || level > hcs.LevelMax {
		return fmt.Errorf("transform %q declares invalid level %d", t.Name(), level)
	}
	if c.byLevel[level] == nil {
		c.byLevel[level] = map[string]Transform{}
	}
	if _, exists := c.byLevel[level][t.Name()]; exists {
		return fmt.Errorf("transform %q already registered at level %d", t.Name(), level)
	}
	c.byLevel[level][t.Name()] = t
	if isDefault {
		c.defaults[level] = t.Name()
	}
	return nil
}

func (c *Catalog) mustRegister(t Transform, isDefault bool) {
	if err := c.Register(t, isDefault); err != nil {
		panic(err)
	}
}

// Lookup resolves a (level, name) pair to its transform.
func (c *Catalog) Lookup(level int, name string) (Transform, bool) {
	t, ok := c.byLevel[level][name]
	return t, ok
}

// Default returns the level's default method name, if the level has one.
func (c *Catalog) Default(level int) (string, bool) {
	name, ok := c.defaults[level]
	return name, ok
}

// MethodNames lists the methods registered at a level, sorted.
func (c *Catalog) MethodNames(level int) []string {
	names := make([]string, 0, len(c.byLevel[level]))
	for name := range c.byLevel[level] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
