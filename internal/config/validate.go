package config

import (
	"fmt"
	"path/filepath"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig validates the configuration and returns a list of
// validation errors. An empty slice indicates the configuration is valid.
func ValidateConfig(config *Config) []error {
	var errs []error
	errs = append(errs, validateDirectoryConfig(&config.Directory)...)
	errs = append(errs, validateIndexConfig(&config.Index)...)
	errs = append(errs, validateCacheConfig(&config.Cache)...)
	errs = append(errs, validateLogConfig(&config.Logging)...)
	return errs
}

func validateDirectoryConfig(cfg *DirectoryConfig) []error {
	var errs []error
	if cfg.BaseDN == "" {
		errs = append(errs, ValidationError{
			Field:   "directory.baseDN",
			Message: "baseDN is required",
		})
	}
	return errs
}

func validateIndexConfig(cfg *IndexConfig) []error {
	var errs []error
	switch cfg.Variant {
	case "flat", "hier":
	default:
		errs = append(errs, ValidationError{
			Field:   "index.variant",
			Message: fmt.Sprintf("must be \"flat\" or \"hier\", got %q", cfg.Variant),
		})
	}
	if cfg.DataDir == "" {
		errs = append(errs, ValidationError{
			Field:   "index.dataDir",
			Message: "dataDir is required",
		})
	} else if !filepath.IsAbs(cfg.DataDir) {
		errs = append(errs, ValidationError{
			Field:   "index.dataDir",
			Message: "dataDir must be an absolute path",
		})
	}
	if cfg.CheckpointInterval < 0 {
		errs = append(errs, ValidationError{
			Field:   "index.checkpointInterval",
			Message: "must not be negative",
		})
	}
	return errs
}

func validateCacheConfig(cfg *CacheConfig) []error {
	var errs []error
	if cfg.Enabled && cfg.Size <= 0 {
		errs = append(errs, ValidationError{
			Field:   "cache.size",
			Message: "must be positive when cache is enabled",
		})
	}
	return errs
}

func validateLogConfig(cfg *LogConfig) []error {
	var errs []error
	switch cfg.Level {
	case "debug", "info", "warn", "error", "":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unknown level %q", cfg.Level),
		})
	}
	switch cfg.Format {
	case "text", "json", "":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unknown format %q", cfg.Format),
		})
	}
	return errs
}
