// Package config defines Callisto's configuration structures and loading.
//
// # Overview
//
// Configuration is defined in YAML and loaded in three phases: the file is
// unmarshaled over a fully-defaulted configuration (DefaultConfig), any
// remaining zero-valued scalars are filled (ApplyDefaults), and the result
// is validated (Validate). Environment variables named CALLISTO_SECTION_FIELD
// override file values when loading through LoadConfigWithEnvOverrides.
//
// # Usage
//
//	cfg, err := config.LoadConfigWithEnvOverrides("callisto.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Validation
//
// Validation collects every problem instead of stopping at the first; the
// returned ValidationError lists each offending field with its dotted path
// (e.g. "server.listen_address").
package config
