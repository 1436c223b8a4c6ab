package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVars   []string           // Environment variable names, first set wins
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns explicit bindings. Keys not listed here are still
// reachable through the NSDB_ prefix, e.g. NSDB_SERVER_LISTEN.
func getEnvBindings() []envBinding {
	return []envBinding{
		// Object store, including the variable names used by existing R2 deployments
		{"structures.endpoint", []string{"NSDB_STRUCTURES_ENDPOINT", "R2_ENDPOINT_URL"}, validateEnvURL},
		{"structures.access_key_id", []string{"NSDB_STRUCTURES_ACCESS_KEY_ID", "R2_KEY_ID"}, nil},
		{"structures.secret_access_key", []string{"NSDB_STRUCTURES_SECRET_ACCESS_KEY", "R2_KEY"}, nil},
		{"structures.driver", []string{"NSDB_STRUCTURES_DRIVER"}, validateEnum(StructureDrivers)},
		{"structures.path_style", []string{"NSDB_STRUCTURES_PATH_STYLE"}, validateEnvBool},
		{"structures.timeout", []string{"NSDB_STRUCTURES_TIMEOUT"}, validateEnvDuration},
		{"structures.retries", []string{"NSDB_STRUCTURES_RETRIES"}, validateEnvRetries},

		// Catalog
		{"catalog.driver", []string{"NSDB_CATALOG_DRIVER"}, validateEnum(CatalogDrivers)},
		{"catalog.postgres.dsn", []string{"NSDB_CATALOG_POSTGRES_DSN", "DATABASE_URL"}, nil},

		// Logging
		{"log.level", []string{"NSDB_LOG_LEVEL"}, validateEnum(LogLevels)},
		{"log.format", []string{"NSDB_LOG_FORMAT"}, validateEnum(LogFormats)},
		{"server.metrics", []string{"NSDB_SERVER_METRICS"}, validateEnvBool},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var warnings []string
	for _, binding := range getEnvBindings() {
		args := append([]string{binding.ConfigKey}, binding.EnvVars...)
		if err := v.BindEnv(args...); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.ConfigKey, err))
			continue
		}
		if binding.Validate == nil {
			continue
		}
		for _, name := range binding.EnvVars {
			if envValue := os.Getenv(name); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", name, envValue, err))
				}
			}
		}
	}
	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must be an http(s) URL")
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint host is empty")
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	return nil
}

func validateEnvRetries(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	if n < 0 || n > 10 {
		return fmt.Errorf("retries must be between 0 and 10, got %d", n)
	}
	return nil
}

func validateEnum(allowed []string) func(string) error {
	return func(value string) error {
		if !slices.Contains(allowed, strings.ToLower(value)) {
			return fmt.Errorf("must be one of %v", allowed)
		}
		return nil
	}
}
