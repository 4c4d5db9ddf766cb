package main

import (
	"github.com/banshee-data/assay.report/internal/config"
	"github.com/banshee-data/assay.report/internal/db"
	"github.com/banshee-data/assay.report/internal/hcs/methods"
	"github.com/banshee-data/assay.report/internal/hcs/noiseband"
)

// commandContext carries the lazily resolved config and store shared by all
// subcommands.
type commandContext struct {
	configFlag *string
	dbFlag     *string

	cfg *config.Config
}

func newCommandContext(configFlag, dbFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, dbFlag: dbFlag}
}

// ensureConfig loads the config file named by --config, or the defaults when
// the flag is unset. The --db flag overrides the configured database path.
func (ctx *commandContext) ensureConfig() (config.Config, error) {
	if ctx.cfg == nil {
		cfg := config.Default()
		if *ctx.configFlag != "" {
			loaded, err := config.Load(*ctx.configFlag)
			if err != nil {
				return config.Config{}, err
			}
			cfg = loaded
		}
		if *ctx.dbFlag != "" {
			cfg.Database.Path = *ctx.dbFlag
		}
		ctx.cfg = &cfg
	}
	return *ctx.cfg, nil
}

// openStore opens the configured database with the schema up to date. The
// caller closes it.
func (ctx *commandContext) openStore() (*db.DB, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return db.OpenAndMigrate(cfg.Database.Path)
}

// openStoreRaw opens the configured database without migrating, for the
// migrate subcommands that manage the schema themselves.
func (ctx *commandContext) openStoreRaw() (*db.DB, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return db.Open(cfg.Database.Path)
}

// bandConfig maps the pipeline config onto the estimator's knobs.
func bandConfig(cfg config.Config) noiseband.Config {
	return noiseband.Config{
		MinControls: cfg.Pipeline.MinControlWells,
		Multiplier:  cfg.Pipeline.BandMultiplier,
	}
}

// newCatalog builds the method catalog from the pipeline config.
func newCatalog(cfg config.Config) *methods.Catalog {
	mcfg := methods.DefaultConfig()
	mcfg.Band = bandConfig(cfg)
	mcfg.ClipRange = cfg.Pipeline.ClipRange
	return methods.NewCatalog(mcfg)
}
