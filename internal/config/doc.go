// Package config provides configuration loading and validation for dnidx.
//
// # Overview
//
// The config package handles loading, parsing, and validating the service's
// configuration from YAML files and environment variables. It supports:
//
//   - YAML configuration files, via gopkg.in/yaml.v3
//   - ${VAR} / ${VAR:-default} environment variable substitution
//   - Default values for all settings
//   - Configuration validation
//   - Polling-based hot reload via ConfigWatcher
//
// # Configuration Structure
//
//	type Config struct {
//	    Directory DirectoryConfig // suffix served
//	    Index     IndexConfig     // which DN index variant, and where its data lives
//	    Cache     CacheConfig     // hot lookup cache sizing
//	    Logging   LogConfig       // logging settings
//	}
//
// # Loading Configuration
//
//	cfg, err := config.LoadConfig("/etc/dnidx/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Or use defaults:
//
//	cfg := config.DefaultConfig()
//
// # Example Configuration
//
//	directory:
//	  baseDN: "dc=example,dc=com"
//
//	index:
//	  variant: "hier"
//	  dataDir: "/var/lib/dnidx"
//	  checkpointInterval: 5m
//
//	cache:
//	  enabled: true
//	  size: 10000
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "/var/log/dnidx/dnidx.log"
package config
