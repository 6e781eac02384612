// Package config is the typed view of the adinsights configuration. Values
// come from viper (config file, ADINSIGHTS_* environment, bound flags) and
// are read once at command start.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/HolgerKurtz/meta-ads-insights/internal/query"
)

// Configuration keys.
const (
	KeyGraphBaseURL          = "graph.base_url"
	KeyGraphTimeout          = "graph.timeout"
	KeyGraphRateLimitRPS     = "graph.rate_limit_rps"
	KeyGraphAccessToken      = "graph.access_token"
	KeyCacheMaxEntries       = "cache.max_entries"
	KeySchemaFile            = "schema.file"
	KeyNullUnrecognizedLists = "normalize.null_unrecognized_lists"
	KeyServerHost            = "server.host"
	KeyServerPort            = "server.port"
	KeyServerCORSOrigins     = "server.cors_origins"
	KeyServerRateLimit       = "server.rate_limit"
	KeyLogLevel              = "log.level"
	KeyLogFormat             = "log.format"
)

// EnvPrefix prefixes every environment override, e.g. ADINSIGHTS_GRAPH_ACCESS_TOKEN.
const EnvPrefix = "ADINSIGHTS"

// Settings holds every configurable value.
type Settings struct {
	Graph     GraphSettings     `yaml:"graph"`
	Cache     CacheSettings     `yaml:"cache"`
	Schema    SchemaSettings    `yaml:"schema"`
	Normalize NormalizeSettings `yaml:"normalize"`
	Server    ServerSettings    `yaml:"server"`
	Log       LogSettings       `yaml:"log"`
}

// GraphSettings controls requests to the Graph API.
type GraphSettings struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	RateLimitRPS float64       `yaml:"rate_limit_rps"`
	AccessToken  string        `yaml:"access_token"`
}

// CacheSettings bounds the fetch cache. Zero means unbounded.
type CacheSettings struct {
	MaxEntries int `yaml:"max_entries"`
}

// SchemaSettings points at an optional registry override file.
type SchemaSettings struct {
	File string `yaml:"file"`
}

// NormalizeSettings tunes the row normalizer.
type NormalizeSettings struct {
	NullUnrecognizedLists bool `yaml:"null_unrecognized_lists"`
}

// ServerSettings controls the JSON API.
type ServerSettings struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	// RateLimit is requests per minute per client IP. Zero disables it.
	RateLimit int `yaml:"rate_limit"`
}

// LogSettings controls log output.
type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		Graph: GraphSettings{
			BaseURL: query.DefaultBaseURL,
		},
		Server: ServerSettings{
			Host:        "127.0.0.1",
			Port:        8080,
			CORSOrigins: []string{"*"},
			RateLimit:   120,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers the default values with v so that AllSettings and
// environment lookups see every key.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyGraphBaseURL, d.Graph.BaseURL)
	v.SetDefault(KeyGraphTimeout, d.Graph.Timeout)
	v.SetDefault(KeyGraphRateLimitRPS, d.Graph.RateLimitRPS)
	v.SetDefault(KeyGraphAccessToken, d.Graph.AccessToken)
	v.SetDefault(KeyCacheMaxEntries, d.Cache.MaxEntries)
	v.SetDefault(KeySchemaFile, d.Schema.File)
	v.SetDefault(KeyNullUnrecognizedLists, d.Normalize.NullUnrecognizedLists)
	v.SetDefault(KeyServerHost, d.Server.Host)
	v.SetDefault(KeyServerPort, d.Server.Port)
	v.SetDefault(KeyServerCORSOrigins, d.Server.CORSOrigins)
	v.SetDefault(KeyServerRateLimit, d.Server.RateLimit)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFormat, d.Log.Format)
}

// BindEnv makes v consult ADINSIGHTS_* variables, with dots in keys
// replaced by underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// FromViper reads and validates the settings held by v.
func FromViper(v *viper.Viper) (Settings, error) {
	s := Settings{
		Graph: GraphSettings{
			BaseURL:      v.GetString(KeyGraphBaseURL),
			Timeout:      v.GetDuration(KeyGraphTimeout),
			RateLimitRPS: v.GetFloat64(KeyGraphRateLimitRPS),
			AccessToken:  v.GetString(KeyGraphAccessToken),
		},
		Cache:     CacheSettings{MaxEntries: v.GetInt(KeyCacheMaxEntries)},
		Schema:    SchemaSettings{File: v.GetString(KeySchemaFile)},
		Normalize: NormalizeSettings{NullUnrecognizedLists: v.GetBool(KeyNullUnrecognizedLists)},
		Server: ServerSettings{
			Host:        v.GetString(KeyServerHost),
			Port:        v.GetInt(KeyServerPort),
			CORSOrigins: v.GetStringSlice(KeyServerCORSOrigins),
			RateLimit:   v.GetInt(KeyServerRateLimit),
		},
		Log: LogSettings{
			Level:  strings.ToLower(v.GetString(KeyLogLevel)),
			Format: strings.ToLower(v.GetString(KeyLogFormat)),
		},
	}
	if s.Graph.BaseURL == "" {
		s.Graph.BaseURL = query.DefaultBaseURL
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports every unusable value at once.
func (s Settings) Validate() error {
	var errs []error
	bad := func(key string, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: "+format, append([]any{key}, args...)...))
	}
	if !strings.HasPrefix(s.Graph.BaseURL, "http://") && !strings.HasPrefix(s.Graph.BaseURL, "https://") {
		bad(KeyGraphBaseURL, "must be an http(s) URL, got %q", s.Graph.BaseURL)
	}
	if s.Graph.Timeout < 0 {
		bad(KeyGraphTimeout, "must not be negative")
	}
	if s.Graph.RateLimitRPS < 0 {
		bad(KeyGraphRateLimitRPS, "must not be negative")
	}
	if s.Cache.MaxEntries < 0 {
		bad(KeyCacheMaxEntries, "must not be negative")
	}
	if s.Server.Port < 0 || s.Server.Port > 65535 {
		bad(KeyServerPort, "out of range: %d", s.Server.Port)
	}
	if s.Server.RateLimit < 0 {
		bad(KeyServerRateLimit, "must not be negative")
	}
	switch s.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		bad(KeyLogLevel, "must be debug, info, warn or error, got %q", s.Log.Level)
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		bad(KeyLogFormat, "must be text or json, got %q", s.Log.Format)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
