// Package config loads and validates the luminad configuration.
//
// Values resolve in three layers: compiled-in defaults, then the YAML file,
// then LUMINA_* environment variables. Load applies all three and runs
// Validate, so a *Config handed to the rest of the system is always usable.
//
//	cfg, err := config.Load("configs/config.yaml")
//
// Secrets (MQTT credentials, the InfluxDB token, the JWT signing secret)
// belong in environment variables rather than the file.
package config
