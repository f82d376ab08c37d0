package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"offer-dispatch/internal/eligibility"
	"offer-dispatch/internal/engine"
	"offer-dispatch/internal/model"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Acceptance AcceptanceConfig `yaml:"acceptance"`
	Run        RunConfig        `yaml:"run"`
	Projection ProjectionConfig `yaml:"projection"`
}

// AcceptanceConfig configures the eligibility rule.
type AcceptanceConfig struct {
	// MaxPrice is a fixed ceiling in $/kWh. Zero means no fixed ceiling.
	MaxPrice float64 `yaml:"max_price"`
	// MinQuantity discards offer-periods below this capacity floor (kWh).
	MinQuantity float64 `yaml:"min_quantity"`
	RequireBoth bool    `yaml:"require_both_quantity_and_price"`
	// KFactor enables the reference ceiling min(k*market, exchange) when
	// positive. Reference price series come from the run inputs.
	KFactor float64 `yaml:"k_factor"`
}

// RunConfig configures engine behavior.
type RunConfig struct {
	StrictValidation bool `yaml:"strict_validation"`
	SecondPass       bool `yaml:"second_pass"`
	Parallelism      int  `yaml:"parallelism"`
}

// ProjectionConfig configures the indexer projection.
type ProjectionConfig struct {
	// AnnualGrowthPct is the compound annual growth applied month over
	// month, e.g. 4 for 4%.
	AnnualGrowthPct float64 `yaml:"annual_growth_pct"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads config without validating it. Useful for
// debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Acceptance.MaxPrice < 0 {
		return errors.New("acceptance.max_price must be >= 0")
	}
	if c.Acceptance.MinQuantity < 0 {
		return errors.New("acceptance.min_quantity must be >= 0")
	}
	if c.Acceptance.KFactor < 0 {
		return errors.New("acceptance.k_factor must be >= 0")
	}
	if c.Run.Parallelism < 0 {
		return errors.New("run.parallelism must be >= 0")
	}
	if c.Projection.AnnualGrowthPct < 0 {
		return errors.New("projection.annual_growth_pct must be >= 0")
	}
	return nil
}

// Rule builds the eligibility rule from the acceptance section. refs may be
// nil when no reference series was loaded; requiring k_factor without
// reference prices is a configuration error.
func (c *Config) Rule(refs *model.ReferencePrices) (eligibility.Rule, error) {
	rule := eligibility.Rule{
		MinQuantity: c.Acceptance.MinQuantity,
		RequireBoth: c.Acceptance.RequireBoth,
	}
	if c.Acceptance.MaxPrice > 0 {
		max := c.Acceptance.MaxPrice
		rule.MaxPrice = &max
	}
	if c.Acceptance.KFactor > 0 {
		if refs == nil {
			return eligibility.Rule{}, fmt.Errorf("acceptance.k_factor set but no reference prices provided")
		}
		rule.Reference = &eligibility.ReferenceRule{K: c.Acceptance.KFactor, Prices: refs}
	}
	return rule, nil
}

// Options maps the run section onto engine options.
func (c *Config) Options() engine.Options {
	return engine.Options{
		Strict:      c.Run.StrictValidation,
		SecondPass:  c.Run.SecondPass,
		Parallelism: c.Run.Parallelism,
	}
}

// Merge overlays non-zero fields from override onto base. Used when an API
// request carries inline overrides on top of a server-side config.
func Merge(base, override Config) Config {
	out := base
	if override.Acceptance.MaxPrice != 0 {
		out.Acceptance.MaxPrice = override.Acceptance.MaxPrice
	}
	if override.Acceptance.MinQuantity != 0 {
		out.Acceptance.MinQuantity = override.Acceptance.MinQuantity
	}
	if override.Acceptance.RequireBoth {
		out.Acceptance.RequireBoth = true
	}
	if override.Acceptance.KFactor != 0 {
		out.Acceptance.KFactor = override.Acceptance.KFactor
	}
	if override.Run.StrictValidation {
		out.Run.StrictValidation = true
	}
	if override.Run.SecondPass {
		out.Run.SecondPass = true
	}
	if override.Run.Parallelism != 0 {
		out.Run.Parallelism = override.Run.Parallelism
	}
	if override.Projection.AnnualGrowthPct != 0 {
		out.Projection.AnnualGrowthPct = override.Projection.AnnualGrowthPct
	}
	return out
}
