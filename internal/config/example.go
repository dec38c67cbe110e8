package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# tasklist configuration file
# Values can be overridden by TASKLIST_* environment variables or CLI flags

# Storage backend: file, memory, mysql or neo4j
storage = "file"

# Slot directory for the file backend (supports ~ expansion and %VAR% on Windows)
data_dir = "~/.tasklist/data"

# Key holding the serialized task list
storage_key = "tasks"

# File backend quota in bytes across the slot directory (0 disables)
max_bytes = 5242880

# Sort tasks by creation time on load instead of keeping stored order
sort_on_load = false

# Address for "tasklist serve"
listen = "127.0.0.1:8080"

# Hook command run after each change: <op> <task-id> <storage-key>
# hook_command = "/path/to/hook.sh"

# Activity journal directory
log_dir = "~/.tasklist/logs"

# Console logging
log_level = "info"      # debug, info, warn, error
log_format = "text"     # text, json, logfmt
log_timestamps = false
log_caller = false

[mysql]
# dsn = "user:password@tcp(127.0.0.1:3306)/tasklist"
table = "tasklist_slots"

[neo4j]
# uri = "neo4j://localhost:7687"
# username = "neo4j"
# password = ""
# database = ""
`
}
