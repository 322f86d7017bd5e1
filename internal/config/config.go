package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"revlens/internal/analysis"
	apperrors "revlens/internal/errors"
)

// envPrefix namespaces the environment variables, e.g. REVLENS_LOGGING_LEVEL.
const envPrefix = "REVLENS"

// Config is the complete application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Engine  EngineConfig  `yaml:"engine" envconfig:"ENGINE"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output string `yaml:"output" envconfig:"OUTPUT" default:"stderr" validate:"oneof=stdout stderr"`
}

// EngineConfig tunes the analysis engine. Unset thresholds fall back to the
// engine defaults, so a config file only needs to name what it overrides.
type EngineConfig struct {
	FuzzyDistance  int  `yaml:"fuzzy_distance" envconfig:"FUZZY_DISTANCE" default:"2" validate:"min=0,max=5"`
	Parallel       bool `yaml:"parallel" envconfig:"PARALLEL" default:"true"`
	MaxConcurrency int  `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" default:"4" validate:"min=1,max=64"`

	Thresholds ThresholdOverrides  `yaml:"thresholds" envconfig:"THRESHOLDS"`
	Disabled   []string            `yaml:"disabled_detectors" envconfig:"DISABLED_DETECTORS"`
	Keywords   map[string][]string `yaml:"extra_keywords"`
}

// ThresholdOverrides carries optional overrides of the detector thresholds.
// Pointers distinguish "not set" from an explicit zero.
type ThresholdOverrides struct {
	NegativeRevenueCriticalShare *float64 `yaml:"negative_revenue_critical_share" envconfig:"NEGATIVE_REVENUE_CRITICAL_SHARE"`
	NegativeRevenueHighShare     *float64 `yaml:"negative_revenue_high_share" envconfig:"NEGATIVE_REVENUE_HIGH_SHARE"`
	NegativeRevenueOverhead      *float64 `yaml:"negative_revenue_overhead" envconfig:"NEGATIVE_REVENUE_OVERHEAD"`
	DiscountRatio                *float64 `yaml:"discount_ratio" envconfig:"DISCOUNT_RATIO"`
	DiscountHighRatio            *float64 `yaml:"discount_high_ratio" envconfig:"DISCOUNT_HIGH_RATIO"`
	DiscountSpikeMultiplier      *float64 `yaml:"discount_spike_multiplier" envconfig:"DISCOUNT_SPIKE_MULTIPLIER"`
	MissingDataMediumShare       *float64 `yaml:"missing_data_medium_share" envconfig:"MISSING_DATA_MEDIUM_SHARE"`
	PriceVariance                *float64 `yaml:"price_variance" envconfig:"PRICE_VARIANCE"`
	CustomerConcentration        *float64 `yaml:"customer_concentration" envconfig:"CUSTOMER_CONCENTRATION"`
	CustomerConcentrationHigh    *float64 `yaml:"customer_concentration_high" envconfig:"CUSTOMER_CONCENTRATION_HIGH"`
	LowValueThreshold            *float64 `yaml:"low_value_threshold" envconfig:"LOW_VALUE_THRESHOLD"`
	RefundRateMin                *float64 `yaml:"refund_rate_min" envconfig:"REFUND_RATE_MIN"`
	RefundRateMax                *float64 `yaml:"refund_rate_max" envconfig:"REFUND_RATE_MAX"`
	RefundCostMultiplier         *float64 `yaml:"refund_cost_multiplier" envconfig:"REFUND_COST_MULTIPLIER"`
	CostOutlierSigmas            *float64 `yaml:"cost_outlier_sigmas" envconfig:"COST_OUTLIER_SIGMAS"`
}

// Load builds the configuration: environment variables first, then an
// optional YAML file layered over the defaults. Environment values win.
func Load(configFile string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileCfg, err := loadFromFile(configFile)
			if err != nil {
				return nil, apperrors.NewConfigError("failed to load config file", err)
			}
			cfg = mergeConfigs(*fileCfg, cfg)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with every default applied and no file
// or environment input.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stderr"},
		Engine: EngineConfig{
			FuzzyDistance:  2,
			Parallel:       true,
			MaxConcurrency: 4,
		},
	}
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfigs overlays env values on top of file values. Env wins wherever
// it differs from the envconfig defaults; otherwise the file value stands.
func mergeConfigs(file, env Config) Config {
	merged := file

	def := Default()
	if env.Logging.Level != def.Logging.Level {
		merged.Logging.Level = env.Logging.Level
	}
	if env.Logging.Format != def.Logging.Format {
		merged.Logging.Format = env.Logging.Format
	}
	if env.Logging.Output != def.Logging.Output {
		merged.Logging.Output = env.Logging.Output
	}

	if env.Engine.FuzzyDistance != def.Engine.FuzzyDistance {
		merged.Engine.FuzzyDistance = env.Engine.FuzzyDistance
	}
	if env.Engine.Parallel != def.Engine.Parallel {
		merged.Engine.Parallel = env.Engine.Parallel
	}
	if env.Engine.MaxConcurrency != def.Engine.MaxConcurrency {
		merged.Engine.MaxConcurrency = env.Engine.MaxConcurrency
	}
	if len(env.Engine.Disabled) > 0 {
		merged.Engine.Disabled = env.Engine.Disabled
	}
	mergeThresholds(&merged.Engine.Thresholds, env.Engine.Thresholds)
	return merged
}

func mergeThresholds(dst *ThresholdOverrides, src ThresholdOverrides) {
	overlay := func(d **float64, s *float64) {
		if s != nil {
			*d = s
		}
	}
	overlay(&dst.NegativeRevenueCriticalShare, src.NegativeRevenueCriticalShare)
	overlay(&dst.NegativeRevenueHighShare, src.NegativeRevenueHighShare)
	overlay(&dst.NegativeRevenueOverhead, src.NegativeRevenueOverhead)
	overlay(&dst.DiscountRatio, src.DiscountRatio)
	overlay(&dst.DiscountHighRatio, src.DiscountHighRatio)
	overlay(&dst.DiscountSpikeMultiplier, src.DiscountSpikeMultiplier)
	overlay(&dst.MissingDataMediumShare, src.MissingDataMediumShare)
	overlay(&dst.PriceVariance, src.PriceVariance)
	overlay(&dst.CustomerConcentration, src.CustomerConcentration)
	overlay(&dst.CustomerConcentrationHigh, src.CustomerConcentrationHigh)
	overlay(&dst.LowValueThreshold, src.LowValueThreshold)
	overlay(&dst.RefundRateMin, src.RefundRateMin)
	overlay(&dst.RefundRateMax, src.RefundRateMax)
	overlay(&dst.RefundCostMultiplier, src.RefundCostMultiplier)
	overlay(&dst.CostOutlierSigmas, src.CostOutlierSigmas)
}

// Validate runs struct-tag validation plus the engine's own consistency
// checks over the fully merged configuration.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}
	if !c.AnalysisConfig().IsValid() {
		return apperrors.New(apperrors.CodeConfig, "engine thresholds are inconsistent")
	}
	return nil
}

// AnalysisConfig maps the application configuration onto the engine's
// immutable Config, applying threshold overrides and detector toggles.
func (c *Config) AnalysisConfig() analysis.Config {
	ac := analysis.DefaultConfig()
	ac.FuzzyDistance = c.Engine.FuzzyDistance
	ac.Parallel = c.Engine.Parallel
	ac.MaxConcurrency = c.Engine.MaxConcurrency

	applyThresholds(&ac.Thresholds, c.Engine.Thresholds)
	applyToggles(&ac.Detectors, c.Engine.Disabled)

	if len(c.Engine.Keywords) > 0 {
		extra := make(map[analysis.Role][]string)
		for name, words := range c.Engine.Keywords {
			if role, ok := roleByName(name); ok {
				extra[role] = words
			}
		}
		ac.Keywords = ac.Keywords.Merge(extra)
	}
	return ac
}

func applyThresholds(t *analysis.Thresholds, o ThresholdOverrides) {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&t.NegativeRevenueCriticalShare, o.NegativeRevenueCriticalShare)
	set(&t.NegativeRevenueHighShare, o.NegativeRevenueHighShare)
	set(&t.NegativeRevenueOverhead, o.NegativeRevenueOverhead)
	set(&t.DiscountRatio, o.DiscountRatio)
	set(&t.DiscountHighRatio, o.DiscountHighRatio)
	set(&t.DiscountSpikeMultiplier, o.DiscountSpikeMultiplier)
	set(&t.MissingDataMediumShare, o.MissingDataMediumShare)
	set(&t.PriceVariance, o.PriceVariance)
	set(&t.CustomerConcentration, o.CustomerConcentration)
	set(&t.CustomerConcentrationHigh, o.CustomerConcentrationHigh)
	set(&t.LowValueThreshold, o.LowValueThreshold)
	set(&t.RefundRateMin, o.RefundRateMin)
	set(&t.RefundRateMax, o.RefundRateMax)
	set(&t.RefundCostMultiplier, o.RefundCostMultiplier)
	set(&t.CostOutlierSigmas, o.CostOutlierSigmas)
}

// applyToggles disables the detectors named in the config. Unknown names are
// ignored rather than rejected so configs stay forward compatible.
func applyToggles(d *analysis.DetectorToggles, disabled []string) {
	for _, name := range disabled {
		switch name {
		case "negative_revenue":
			d.NegativeRevenue = false
		case "excessive_discount":
			d.ExcessiveDiscount = false
		case "missing_data":
			d.MissingData = false
		case "duplicate_rows":
			d.DuplicateRows = false
		case "pricing_inconsistency":
			d.PricingInconsistency = false
		case "customer_concentration":
			d.CustomerConcentration = false
		case "unprofitable_product":
			d.UnprofitableProduct = false
		case "low_value_transaction":
			d.LowValueTransaction = false
		case "refund_rate":
			d.RefundRate = false
		case "zero_revenue":
			d.ZeroRevenue = false
		case "cost_outlier":
			d.CostOutlier = false
		case "negative_quantity":
			d.NegativeQuantity = false
		}
	}
}

func roleByName(name string) (analysis.Role, bool) {
	roles := []analysis.Role{
		analysis.RoleRevenue, analysis.RoleCost, analysis.RoleDiscount,
		analysis.RoleRefund, analysis.RoleProfit, analysis.RoleCustomer,
		analysis.RoleProduct, analysis.RoleQuantity, analysis.RoleDate,
	}
	for _, r := range roles {
		if r.String() == name {
			return r, true
		}
	}
	return 0, false
}

// String renders the effective configuration for startup logging.
func (c *Config) String() string {
	return fmt.Sprintf("logging=%s/%s engine{fuzzy=%d parallel=%t concurrency=%d disabled=%d}",
		c.Logging.Level, c.Logging.Format,
		c.Engine.FuzzyDistance, c.Engine.Parallel, c.Engine.MaxConcurrency,
		len(c.Engine.Disabled))
}
