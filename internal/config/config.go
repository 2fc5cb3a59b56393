// Package config provides configuration loading for the dnidx service:
// which suffix it serves, which index variant backs it, where its data
// lives, and how it logs. Adapted from the teacher's config package, whose
// struct shapes already carried yaml tags even though its own parser never
// used them — this package wires those tags to a real YAML decoder
// instead (see doc.go).
package config

import "time"

// Config is the complete dnidx configuration.
type Config struct {
	Directory DirectoryConfig `yaml:"directory"`
	Index     IndexConfig     `yaml:"index"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LogConfig       `yaml:"logging"`
}

// DirectoryConfig names the suffix this index serves.
type DirectoryConfig struct {
	BaseDN string `yaml:"baseDN"`
}

// IndexConfig selects and configures the DN index variant.
type IndexConfig struct {
	// Variant is "flat" or "hier".
	Variant            string        `yaml:"variant"`
	DataDir            string        `yaml:"dataDir"`
	SnapshotPath       string        `yaml:"snapshotPath"`
	CheckpointInterval time.Duration `yaml:"checkpointInterval"`
}

// CacheConfig sizes the hot lookup cache sitting in front of the index.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

// LogConfig holds logging configuration, unchanged in shape from the
// teacher's LogConfig.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}
