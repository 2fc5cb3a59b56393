package config

import "time"

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Directory: DirectoryConfig{
			BaseDN: "",
		},
		Index: IndexConfig{
			Variant:            "hier",
			DataDir:            "/var/lib/dnidx",
			SnapshotPath:       "",
			CheckpointInterval: 5 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    10000,
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}
