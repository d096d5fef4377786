// Package config provides configuration for the bundle and its host.
//
// Process settings come from environment variables (12-factor) with
// sensible defaults:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - PROFILER_ENABLED, PROFILER_CAPACITY, PROFILER_TTL, PROFILER_STRINGIFIER
//   - RATE_LIMIT_ENABLED, RATE_LIMIT_RPS, RATE_LIMIT_BURST
//   - ES_CONFIG (comma separated list of bundle files)
//
// Search-engine clients are declared in YAML or TOML bundle files:
//
//	elasticsearch:
//	  default_client: main
//	  clients:
//	    main:
//	      hosts: [ "localhost:9200", "localhost:9201" ]
//	      selector: round_robin
//	      connection_params: { timeout: 5s }
//
// Several files can be merged with Merge; a later file replaces a client's
// hosts list entirely. Validate reports the first problem as an
// *InvalidConfigurationError.
package config
