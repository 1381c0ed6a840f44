package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/fxgains/internal/basis"
	"github.com/cleared-dev/fxgains/internal/ledger"
	"github.com/cleared-dev/fxgains/internal/model"
)

// FileName is the config file written by init and read by report.
const FileName = "fxgains.yaml"

// EnvPrefix prefixes the environment overrides, e.g. FXGAINS_ACCOUNTING_RULE.
const EnvPrefix = "fxgains"

// Config represents the top-level fxgains.yaml configuration.
type Config struct {
	AccountingRule string           `yaml:"accounting_rule" json:"accounting_rule"`
	Thresholds     ThresholdsConfig `yaml:"thresholds" json:"thresholds"`
	Logging        LoggingConfig    `yaml:"logging" json:"logging"`
}

// ThresholdsConfig holds the USD materiality and EUR residual thresholds as
// decimal strings. Empty values fall back to the ledger defaults.
type ThresholdsConfig struct {
	Materiality   string `yaml:"materiality" json:"materiality"`
	ResidualBasis string `yaml:"residual_basis" json:"residual_basis"`
}

// LoggingConfig controls log verbosity and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // "text" or "json"
}

// envOverrides are read from FXGAINS_* variables.
type envOverrides struct {
	AccountingRule string `envconfig:"ACCOUNTING_RULE"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
	LogFormat      string `envconfig:"LOG_FORMAT"`
}

// Load reads a fxgains.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		AccountingRule: model.FIFO.String(),
		Thresholds: ThresholdsConfig{
			Materiality:   ledger.DefaultMaterialityThreshold.String(),
			ResidualBasis: basis.DefaultResidualThreshold.String(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ApplyEnv overrides fields set in FXGAINS_* environment variables.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	if env.AccountingRule != "" {
		c.AccountingRule = env.AccountingRule
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		c.Logging.Format = env.LogFormat
	}
	return nil
}

// Validate checks every field can be used to build a ledger and logger.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AccountingRule, validation.Required, validation.By(validRule)),
		validation.Field(&c.Thresholds),
		validation.Field(&c.Logging),
	)
}

// Validate implements validation.Validatable.
func (t ThresholdsConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Materiality, validation.By(nonNegativeDecimal)),
		validation.Field(&t.ResidualBasis, validation.By(nonNegativeDecimal)),
	)
}

// Validate implements validation.Validatable.
func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("trace", "debug", "info", "warn", "warning", "error")),
		validation.Field(&l.Format, validation.In("text", "json")),
	)
}

// Rule returns the parsed accounting rule.
func (c *Config) Rule() (model.Rule, error) {
	return model.ParseRule(c.AccountingRule)
}

// Materiality returns the taxable-gain threshold in USD.
func (c *Config) Materiality() (decimal.Decimal, error) {
	return threshold(c.Thresholds.Materiality, ledger.DefaultMaterialityThreshold)
}

// ResidualBasis returns the EUR balance under which a matched lot is cleared.
func (c *Config) ResidualBasis() (decimal.Decimal, error) {
	return threshold(c.Thresholds.ResidualBasis, basis.DefaultResidualThreshold)
}

func threshold(s string, def decimal.Decimal) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing threshold %q: %w", s, err)
	}
	return d, nil
}

func validRule(value interface{}) error {
	s, _ := value.(string)
	if _, err := model.ParseRule(s); err != nil {
		return errors.New("must be FIFO, LIFO or HIFO")
	}
	return nil
}

func nonNegativeDecimal(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a decimal number")
	}
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}
