package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// envBinding maps one TASKLIST_* variable to a config field.
type envBinding struct {
	name  string
	field string
	apply func(cfg *Config, v string) error
}

func envBindings() []envBinding {
	str := func(dst func(*Config) *string) func(*Config, string) error {
		return func(cfg *Config, v string) error {
			*dst(cfg) = v
			return nil
		}
	}
	boolean := func(dst func(*Config) *bool) func(*Config, string) error {
		return func(cfg *Config, v string) error {
			*dst(cfg) = boolFromString(v)
			return nil
		}
	}

	return []envBinding{
		{"TASKLIST_STORAGE", "storage", str(func(c *Config) *string { return &c.Storage })},
		{"TASKLIST_DATA_DIR", "data_dir", str(func(c *Config) *string { return &c.DataDir })},
		{"TASKLIST_KEY", "storage_key", str(func(c *Config) *string { return &c.StorageKey })},
		{"TASKLIST_MAX_BYTES", "max_bytes", func(cfg *Config, v string) error {
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return fmt.Errorf("TASKLIST_MAX_BYTES: invalid integer %q", v)
			}
			cfg.MaxBytes = n
			return nil
		}},
		{"TASKLIST_SORT_ON_LOAD", "sort_on_load", boolean(func(c *Config) *bool { return &c.SortOnLoad })},
		{"TASKLIST_LISTEN", "listen", str(func(c *Config) *string { return &c.Listen })},
		{"TASKLIST_HOOK", "hook_command", str(func(c *Config) *string { return &c.HookCommand })},
		{"TASKLIST_LOG_DIR", "log_dir", str(func(c *Config) *string { return &c.LogDir })},
		{"TASKLIST_LOG_LEVEL", "log_level", str(func(c *Config) *string { return &c.LogLevel })},
		{"TASKLIST_LOG_FORMAT", "log_format", str(func(c *Config) *string { return &c.LogFormat })},
		{"TASKLIST_LOG_TIMESTAMPS", "log_timestamps", boolean(func(c *Config) *bool { return &c.LogTimestamps })},
		{"TASKLIST_LOG_CALLER", "log_caller", boolean(func(c *Config) *bool { return &c.LogCaller })},
		{"TASKLIST_MYSQL_DSN", "mysql.dsn", str(func(c *Config) *string { return &c.MySQL.DSN })},
		{"TASKLIST_NEO4J_URI", "neo4j.uri", str(func(c *Config) *string { return &c.Neo4j.URI })},
		{"TASKLIST_NEO4J_USER", "neo4j.username", str(func(c *Config) *string { return &c.Neo4j.Username })},
		{"TASKLIST_NEO4J_PASSWORD", "neo4j.password", str(func(c *Config) *string { return &c.Neo4j.Password })},
	}
}

// EnvVars returns the names of the environment variables read by Load.
func EnvVars() []string {
	bindings := envBindings()
	names := make([]string, len(bindings))
	for i, b := range bindings {
		names[i] = b.name
	}
	return names
}

// loadFromEnv overrides config from environment variables. Empty variables
// are ignored. sources may be nil.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) error {
	for _, b := range envBindings() {
		v, ok := os.LookupEnv(b.name)
		if !ok || v == "" {
			continue
		}
		if err := b.apply(cfg, v); err != nil {
			return err
		}
		if sources != nil {
			sources[b.field] = SourceEnv
		}
	}
	return nil
}

func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
