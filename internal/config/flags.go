package config

import (
	"flag"
)

// flagFields maps global flag names to config field names.
var flagFields = map[string]string{
	"storage":        "storage",
	"data-dir":       "data_dir",
	"key":            "storage_key",
	"max-bytes":      "max_bytes",
	"sort-on-load":   "sort_on_load",
	"hook":           "hook_command",
	"log-dir":        "log_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
	"mysql-dsn":      "mysql.dsn",
	"neo4j-uri":      "neo4j.uri",
}

// RegisterFlags binds the global flags to cfg. Flag defaults are the
// current cfg values, so unset flags leave earlier layers untouched.
func RegisterFlags(cfg *Config, fs *flag.FlagSet) {
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage backend (file|memory|mysql|neo4j)")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Slot directory for the file backend")
	fs.StringVar(&cfg.StorageKey, "key", cfg.StorageKey, "Storage key holding the task list")
	fs.Int64Var(&cfg.MaxBytes, "max-bytes", cfg.MaxBytes, "File backend quota in bytes (0 disables)")
	fs.BoolVar(&cfg.SortOnLoad, "sort-on-load", cfg.SortOnLoad, "Sort tasks by creation time when loading")
	fs.StringVar(&cfg.HookCommand, "hook", cfg.HookCommand, "Hook command to run after each change")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Activity journal directory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text|json|logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Include timestamps in log output")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Include caller location in log output")
	fs.StringVar(&cfg.MySQL.DSN, "mysql-dsn", cfg.MySQL.DSN, "MySQL DSN for the mysql backend")
	fs.StringVar(&cfg.Neo4j.URI, "neo4j-uri", cfg.Neo4j.URI, "Neo4j URI for the neo4j backend")
}

// parseFlags defines and parses CLI flags. sources may be nil.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("tasklist", flag.ContinueOnError)
	}
	RegisterFlags(cfg, fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if field, ok := flagFields[f.Name]; ok {
				sources[field] = SourceFlag
			}
		})
	}
	return nil
}
