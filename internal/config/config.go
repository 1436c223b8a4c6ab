// Package config loads nsdb settings from defaults, an optional YAML file and
// the environment using viper.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings is the fully resolved configuration.
type Settings struct {
	Data       DataSettings      `mapstructure:"data" yaml:"data"`
	Catalog    CatalogSettings   `mapstructure:"catalog" yaml:"catalog"`
	Tree       TreeSettings      `mapstructure:"tree" yaml:"tree"`
	Structures StructureSettings `mapstructure:"structures" yaml:"structures"`
	Server     ServerSettings    `mapstructure:"server" yaml:"server"`
	Log        LogSettings       `mapstructure:"log" yaml:"log"`
	Filters    FilterSettings    `mapstructure:"filters" yaml:"filters"`
}

// DataSettings locates the reference files.
type DataSettings struct {
	Reference string `mapstructure:"reference" yaml:"reference"`
	Chains    string `mapstructure:"chains" yaml:"chains"`
	Phylo     string `mapstructure:"phylo" yaml:"phylo"`
	Tree      string `mapstructure:"tree" yaml:"tree"`
}

// CatalogSettings selects the catalog backend.
type CatalogSettings struct {
	Driver   string           `mapstructure:"driver" yaml:"driver"` // memory|sqlite|postgres
	SQLite   SQLiteSettings   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres PostgresSettings `mapstructure:"postgres" yaml:"postgres"`
}

// SQLiteSettings configures the sqlite catalog.
type SQLiteSettings struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// PostgresSettings configures the postgres catalog.
type PostgresSettings struct {
	DSN string `mapstructure:"dsn" yaml:"-"`
}

// TreeSettings configures reference tree loading and annotation.
type TreeSettings struct {
	Outgroup       string   `mapstructure:"outgroup" yaml:"outgroup"`
	ReferenceTips  []string `mapstructure:"reference_tips" yaml:"reference_tips"`
	ReferenceNodes []string `mapstructure:"reference_nodes" yaml:"reference_nodes"`
}

// StructureSettings configures the structure object store.
type StructureSettings struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"` // s3|fs|memory
	Bucket          string        `mapstructure:"bucket" yaml:"bucket"`
	Region          string        `mapstructure:"region" yaml:"region"`
	Endpoint        string        `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key" yaml:"-"`
	PathStyle       bool          `mapstructure:"path_style" yaml:"path_style"`
	FSRoot          string        `mapstructure:"fs_root" yaml:"fs_root"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Retries         int           `mapstructure:"retries" yaml:"retries"`
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Listen    string `mapstructure:"listen" yaml:"listen"`
	Metrics   bool   `mapstructure:"metrics" yaml:"metrics"`
	DebugVars bool   `mapstructure:"debug_vars" yaml:"debug_vars"` // expvar recorder and /debug/vars
	Trace     bool   `mapstructure:"trace" yaml:"trace"`           // JSON-lines spans on stderr
}

// LogSettings configures the base logger.
type LogSettings struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// FilterSettings controls which result filters are offered.
type FilterSettings struct {
	ExposeTiers bool `mapstructure:"expose_tiers" yaml:"expose_tiers"`
}

// EnvPrefix prefixes every automatically bound environment variable.
const EnvPrefix = "NSDB"

// ConfigName is the base name of the optional config file.
const ConfigName = "nsdb"

// ConfigPaths are searched in order for nsdb.yaml.
var ConfigPaths = []string{".", "$HOME/.config/nsdb", "/etc/nsdb"}

// New returns a viper instance with defaults and environment bindings in
// place. Invalid environment values are reported as an error.
func New() (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Load reads file (or searches ConfigPaths when file is empty) into v and
// returns validated settings. A missing searched file is not an error.
func Load(v *viper.Viper, file string) (*Settings, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		for _, p := range ConfigPaths {
			v.AddConfigPath(p)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	normalize(settings)
	if err := Validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Drivers accepted by the catalog and structure settings.
var (
	CatalogDrivers   = []string{"memory", "sqlite", "postgres"}
	StructureDrivers = []string{"s3", "fs", "memory"}
	LogLevels        = []string{"debug", "info", "warn", "error"}
	LogFormats       = []string{"text", "json"}
)

func normalize(s *Settings) {
	s.Catalog.Driver = strings.ToLower(strings.TrimSpace(s.Catalog.Driver))
	s.Structures.Driver = strings.ToLower(strings.TrimSpace(s.Structures.Driver))
	s.Log.Level = strings.ToLower(s.Log.Level)
	s.Log.Format = strings.ToLower(s.Log.Format)
}

// Validate checks cross-field constraints.
func Validate(s *Settings) error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}
	check(s.Data.Reference != "" && s.Data.Chains != "" && s.Data.Phylo != "", "data paths must be set")
	check(s.Data.Tree != "", "data.tree must be set")
	check(slices.Contains(CatalogDrivers, s.Catalog.Driver), "catalog.driver %q must be one of %v", s.Catalog.Driver, CatalogDrivers)
	check(slices.Contains(StructureDrivers, s.Structures.Driver), "structures.driver %q must be one of %v", s.Structures.Driver, StructureDrivers)
	check(s.Structures.Driver != "s3" || s.Structures.Bucket != "", "structures.bucket is required for the s3 driver")
	check(s.Structures.Driver != "fs" || s.Structures.FSRoot != "", "structures.fs_root is required for the fs driver")
	check(s.Structures.Timeout > 0, "structures.timeout must be positive")
	check(s.Structures.Retries >= 0, "structures.retries must not be negative")
	check(s.Tree.Outgroup != "", "tree.outgroup must be set")
	check(slices.Contains(LogLevels, s.Log.Level), "log.level %q must be one of %v", s.Log.Level, LogLevels)
	check(slices.Contains(LogFormats, s.Log.Format), "log.format %q must be one of %v", s.Log.Format, LogFormats)
	if len(problems) > 0 {
		return fmt.Errorf("invalid settings:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
