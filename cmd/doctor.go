package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/nibzard/tasklist-go/internal/config"
	"github.com/nibzard/tasklist-go/internal/storage"
	"github.com/nibzard/tasklist-go/internal/todo"
	"github.com/nibzard/tasklist-go/internal/ui"
	"github.com/nibzard/tasklist-go/internal/utils"
)

// doctorCommand checks config, storage and the stored payload.
func doctorCommand(ctx context.Context, cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("tasklist doctor", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	example := fs.Bool("example", false, "Print an example config file and exit")
	schema := fs.Bool("schema", false, "Print the JSON Schema of stored task lists and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if *example {
		fmt.Print(config.ExampleConfig())
		return nil
	}
	if *schema {
		fmt.Print(todo.Schema())
		return nil
	}

	cfg := cws.Config

	fmt.Println("Tasklist Doctor")
	fmt.Println("===============")
	fmt.Println()

	allOK := true

	// Config
	fmt.Println("Config:")
	if len(cws.Files) == 0 {
		fmt.Println("  ✅ No config file (using defaults)")
	}
	for _, path := range cws.Files {
		fmt.Printf("  ✅ Loaded %s\n", path)
	}
	if len(cws.Files) > 1 {
		fmt.Printf("  %s takes precedence\n", cws.GetConfigFile())
	}
	fmt.Printf("  Storage: %s (%s)\n", cfg.Storage, cws.Sources["storage"])
	fmt.Printf("  Key: %s (%s)\n", cfg.StorageKey, cws.Sources["storage_key"])
	fmt.Printf("  Location: %s\n", storageLocation(cfg))
	if *verbose {
		fields := make([]string, 0, len(cws.Sources))
		for field := range cws.Sources {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Printf("    %s: %s\n", field, cws.Sources[field])
		}
	}
	fmt.Println()

	// Storage
	fmt.Println("Storage:")
	slot, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		fmt.Printf("  ❌ Open failed: %v\n", err)
		allOK = false
	} else {
		defer slot.Close()
		if err := storage.Probe(ctx, slot); err != nil {
			fmt.Printf("  ❌ Probe failed: %v\n", err)
			allOK = false
		} else {
			fmt.Println("  ✅ Writable")
		}
		if !checkPayload(ctx, slot, cfg.StorageKey, *verbose) {
			allOK = false
		}
	}
	fmt.Println()

	// Hook
	fmt.Println("Hook:")
	if cfg.HookCommand == "" {
		fmt.Println("  ✅ Not configured")
	} else if path, err := utils.ResolveCommand(cfg.HookCommand); err != nil {
		fmt.Printf("  ❌ %s: %v\n", cfg.HookCommand, err)
		allOK = false
	} else {
		fmt.Printf("  ✅ %s\n", path)
	}
	fmt.Println()

	// Log directory
	fmt.Printf("Log directory: %s\n", cfg.LogDir)
	if _, err := os.Stat(cfg.LogDir); err != nil {
		if os.IsNotExist(err) {
			fmt.Println("  ⚠️  Not found (created on the first change)")
		} else {
			fmt.Printf("  ❌ Error: %v\n", err)
			allOK = false
		}
	} else {
		fmt.Println("  ✅ OK")
	}
	fmt.Println()

	if allOK {
		fmt.Println("✅ All checks passed!")
		return nil
	}
	fmt.Println("⚠️  Some checks failed. Changes may not be saved.")
	return fmt.Errorf("doctor checks failed")
}

// checkPayload reads and validates the stored list under key.
func checkPayload(ctx context.Context, slot storage.Storage, key string, verbose bool) bool {
	data, err := slot.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Printf("  ✅ Key %q is empty (no tasks saved yet)\n", key)
		return true
	}
	if err != nil {
		fmt.Printf("  ❌ Read failed: %v\n", err)
		return false
	}

	tasks, err := todo.Decode(data)
	if err != nil {
		fmt.Printf("  ❌ Stored list under %q is invalid:\n", key)
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Printf("     - %s\n", line)
		}
		return false
	}
	if dup := tasks.DuplicateID(); dup != "" {
		fmt.Printf("  ⚠️  Duplicate id %s (later copies are dropped on load)\n", dup)
	}
	open, done := tasks.Counts()
	fmt.Printf("  ✅ Valid: %d tasks (%d open, %d done)\n", len(tasks), open, done)
	if verbose {
		for i, t := range tasks {
			fmt.Printf("    %s\n", ui.FormatTask(i+1, t))
		}
	}
	return true
}
