package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/nibzard/tasklist-go/internal/config"
	"github.com/nibzard/tasklist-go/internal/export"
	"github.com/nibzard/tasklist-go/internal/todo"
	"github.com/nibzard/tasklist-go/internal/ui"
	"github.com/nibzard/tasklist-go/internal/web"
)

// tuiCommand launches the TUI.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist tui", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	m := ui.NewModel(ui.Options{Title: cfg.StorageKey, Location: storageLocation(cfg)})
	s := openSession(ctx, cfg, sessionOptions{
		LogOutput:    io.Discard,
		HookOutput:   io.Discard,
		StoreOptions: []todo.Option{todo.WithRender(m.Render)},
	})
	defer s.Close()

	m.Bind(s.store)
	return ui.Run(ctx, m)
}

// serveCommand serves the list over HTTP until interrupted.
func serveCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist serve", flag.ContinueOnError)
	listen := fs.String("listen", cfg.Listen, "Address to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	s := openSession(ctx, cfg, sessionOptions{})
	defer s.Close()
	s.load(ctx)

	srv := web.NewServer(s.store, s.slot, s.logger)
	return srv.ListenAndServe(ctx, *listen, func(addr net.Addr) {
		s.logger.Info("serving tasks", "addr", "http://"+addr.String(), "key", s.store.Key())
	})
}

// exportCommand writes the list in one of the export formats.
func exportCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist export", flag.ContinueOnError)
	formatName := fs.String("format", "", "Export format (json|csv|text|pdf); defaults to the -o extension or json")
	output := fs.String("o", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	name := *formatName
	if name == "" && *output != "" {
		name = filepath.Ext(*output)
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return err
	}

	s := openSession(ctx, cfg, sessionOptions{})
	defer s.Close()
	tasks := s.load(ctx)

	if *output == "" {
		return export.Write(os.Stdout, tasks, format)
	}

	f, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := export.Write(f, tasks, format); err != nil {
		f.Close()
		return fmt.Errorf("writing export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Printf("Exported %d tasks to %s (%s)\n", len(tasks), *output, format)
	return nil
}
