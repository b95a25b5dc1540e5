// Package config loads the configuration of a sinkhole run.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"sinkhole/pkg/adlist"
	"sinkhole/pkg/output"
	"sinkhole/pkg/pipeline"
)

const (
	// DefaultPath is the configuration file used when neither the command
	// line nor the environment names one.
	DefaultPath = "/etc/sinkhole/sinkhole.toml"

	// EnvVar names the environment variable holding the configuration path.
	EnvVar = "SINKHOLE_CONFIG"
)

// Output types.
const (
	TypeHosts   = "hosts"
	TypePdnsLua = "pdns-lua"
	TypeRPZ     = "rpz"
)

// Config contains all options of a sinkhole run.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Adlists   []AdlistConfig  `mapstructure:"adlists" validate:"dive"`
	Outputs   []OutputConfig  `mapstructure:"outputs" validate:"dive"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file" validate:"required"`
}

// HTTPConfig holds settings for HTTP adlists.
type HTTPConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"gte=0"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	// Textfile, if set, is where metrics are written after a run.
	Textfile string `mapstructure:"textfile"`
}

// WhitelistConfig holds whitelist settings.
type WhitelistConfig struct {
	Entries []string `mapstructure:"entries"`
	File    string   `mapstructure:"file"`
}

// AdlistConfig describes an adlist either by URL and format or by catalog
// ID.
type AdlistConfig struct {
	URL     string        `mapstructure:"url" validate:"required_without=Catalog,excluded_with=Catalog"`
	Catalog string        `mapstructure:"catalog"`
	Format  adlist.Format `mapstructure:"format"`
}

// OutputConfig describes an output.  Type selects which of the type-specific
// fields apply.
type OutputConfig struct {
	Type        string `mapstructure:"type" validate:"required,oneof=hosts pdns-lua rpz"`
	Destination string `mapstructure:"destination"`
	Blackhole   string `mapstructure:"blackhole"`
	Deduplicate bool   `mapstructure:"deduplicate"`

	// Hosts.
	Include []string `mapstructure:"include"`

	// PdnsLua.
	OutputMetric bool   `mapstructure:"output_metric"`
	MetricName   string `mapstructure:"metric_name"`

	// RPZ.
	Zone string `mapstructure:"zone"`
	TTL  uint32 `mapstructure:"ttl"`
}

// ValidateLogLevel ensures the user-provided log level matches the supported set.
func ValidateLogLevel(level string) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(level)] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", level)
	}
	return nil
}

// Path returns the configuration path: flagValue if set, else the value of
// EnvVar, else DefaultPath.
func Path(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	if fromEnv := strings.TrimSpace(os.Getenv(EnvVar)); fromEnv != "" {
		return fromEnv
	}
	return DefaultPath
}

// Setup loads the TOML configuration file at path and produces a Config
// instance.
func Setup(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("sinkhole")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err = validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "stdout")
	v.SetDefault("http.connect_timeout", "30s")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("whitelist.file", "")
}

func validateConfig(cfg *Config) error {
	if err := ValidateLogLevel(cfg.Logging.Level); err != nil {
		return err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid %s: failed %q check", strings.ToLower(verrs[0].Namespace()), verrs[0].Tag())
		}
		return fmt.Errorf("validate config: %w", err)
	}

	return nil
}

// Builder converts cfg into a pipeline builder.  It resolves catalog IDs,
// constructs and validates every output, and loads the whitelist file.
func (cfg *Config) Builder(log *slog.Logger) (*pipeline.Builder, error) {
	b := pipeline.NewBuilder().
		SetHTTPTimeout(cfg.HTTP.ConnectTimeout).
		AddWhitelist(cfg.Whitelist.Entries...)

	wl, err := pipeline.LoadWhitelistFile(cfg.Whitelist.File, log)
	if err != nil {
		return nil, err
	}
	b.AddWhitelist(wl.Entries()...)

	for i, ac := range cfg.Adlists {
		a, err := ac.adlist()
		if err != nil {
			return nil, fmt.Errorf("adlists[%d]: %w", i, err)
		}
		b.AddAdlist(a)
	}

	for i, oc := range cfg.Outputs {
		o, err := oc.output()
		if err != nil {
			return nil, fmt.Errorf("outputs[%d]: %w", i, err)
		}
		b.AddOutput(o)
	}

	return b, nil
}

func (ac AdlistConfig) adlist() (adlist.Adlist, error) {
	if ac.Catalog != "" {
		return adlist.FromCatalog(ac.Catalog)
	}
	return adlist.New(ac.URL, ac.Format)
}

func (oc OutputConfig) output() (*output.Output, error) {
	c := &output.Config{
		Destination: oc.Destination,
		Deduplicate: oc.Deduplicate,
	}

	if oc.Blackhole != "" {
		addr, err := output.ParseBlackhole(oc.Blackhole)
		if err != nil {
			return nil, err
		}
		c.Blackhole = addr
	}

	switch oc.Type {
	case TypeHosts:
		c.Kind = output.Hosts{Include: oc.Include}
	case TypePdnsLua:
		c.Kind = output.PdnsLua{OutputMetric: oc.OutputMetric, MetricName: oc.MetricName}
	case TypeRPZ:
		c.Kind = output.RPZ{Zone: oc.Zone, TTL: oc.TTL}
	default:
		return nil, fmt.Errorf("unknown output type %q", oc.Type)
	}

	return output.New(c)
}
