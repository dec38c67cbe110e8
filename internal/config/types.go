package config

import (
	"github.com/nibzard/tasklist-go/internal/appdir"
	"github.com/nibzard/tasklist-go/internal/storage"
	"github.com/nibzard/tasklist-go/internal/todo"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource

	// Files lists the config files that were read, in load order.
	Files []string
}

// Default values.
const (
	DefaultStorage   = storage.BackendFile
	DefaultDataDir   = "~/" + appdir.Dir + "/" + appdir.DataDir
	DefaultKey       = todo.DefaultKey
	DefaultMaxBytes  = storage.DefaultMaxBytes
	DefaultListen    = "127.0.0.1:8080"
	DefaultLogDir    = "~/" + appdir.Dir + "/" + appdir.LogDir
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config holds the full configuration for tasklist.
type Config struct {
	// Storage
	Storage    string `toml:"storage"`
	DataDir    string `toml:"data_dir"`
	StorageKey string `toml:"storage_key"`
	MaxBytes   int64  `toml:"max_bytes"`
	SortOnLoad bool   `toml:"sort_on_load"`

	// HTTP view
	Listen string `toml:"listen"`

	// Hooks
	HookCommand string `toml:"hook_command"`

	// Logging configuration
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Remote backends
	MySQL MySQLConfig `toml:"mysql"`
	Neo4j Neo4jConfig `toml:"neo4j"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// MySQLConfig configures the mysql backend.
type MySQLConfig struct {
	DSN   string `toml:"dsn"`
	Table string `toml:"table"`
}

// Neo4jConfig configures the neo4j backend.
type Neo4jConfig struct {
	URI      string `toml:"uri"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

// StorageOptions returns the options for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:       c.Storage,
		Dir:           c.DataDir,
		MaxBytes:      c.MaxBytes,
		MySQLDSN:      c.MySQL.DSN,
		MySQLTable:    c.MySQL.Table,
		Neo4jURI:      c.Neo4j.URI,
		Neo4jUser:     c.Neo4j.Username,
		Neo4jPassword: c.Neo4j.Password,
		Neo4jDatabase: c.Neo4j.Database,
	}
}

// StoreOptions returns the todo.Store options derived from the config.
func (c *Config) StoreOptions() []todo.Option {
	return []todo.Option{
		todo.WithKey(c.StorageKey),
		todo.WithSortOnLoad(c.SortOnLoad),
	}
}
