// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Each configuration type is parsed once per process and cached; repeated
// loads of the same type return the cached copy.
//
//	type AuthConfig struct {
//		SessionTTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"24h"`
//	}
//
//	var cfg AuthConfig
//	if err := config.Load(&cfg); err != nil { ... }
package config
