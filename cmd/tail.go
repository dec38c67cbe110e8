package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/nibzard/tasklist-go/internal/config"
	"github.com/nibzard/tasklist-go/internal/logging"
	"github.com/nibzard/tasklist-go/internal/ui"
	"github.com/nibzard/tasklist-go/internal/utils"
)

// tailCommand prints the latest activity journal.
func tailCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist tail", flag.ContinueOnError)
	follow := fs.Bool("f", false, "Follow the journal (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the journal (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	ops := fs.String("op", "", "Comma-separated ops to show as a summary (add,toggle,remove)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ops != "" && *follow {
		return fmt.Errorf("-op cannot be combined with -f")
	}

	logDir, err := logging.FindDir(cfg.LogDir, cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}

	logPath, err := logging.FindLatest(logDir)
	if err != nil {
		return fmt.Errorf("finding latest journal: %w", err)
	}
	if logPath == "" {
		fmt.Println("No journal files found.")
		return nil
	}

	if *ops != "" {
		return printJournalSummary(logPath, utils.SplitAndTrim(*ops, ","), *n)
	}

	fmt.Printf("Tailing: %s\n", logPath)
	if *follow {
		fmt.Println("(Ctrl+C to stop)")
	}
	fmt.Println()

	return logging.Tail(ctx, os.Stdout, logPath, *n, *follow)
}

// printJournalSummary prints the last n entries whose op is in ops, one per
// line.
func printJournalSummary(path string, ops []string, n int) error {
	entries, err := logging.ReadEntries(path)
	if err != nil {
		return err
	}

	want := make(map[string]bool, len(ops))
	for _, op := range ops {
		want[op] = true
	}
	var matched []logging.Entry
	for _, e := range entries {
		if want[e.Op] {
			matched = append(matched, e)
		}
	}
	if n > 0 && len(matched) > n {
		matched = matched[len(matched)-n:]
	}

	if len(matched) == 0 {
		fmt.Println("No matching entries.")
		return nil
	}
	for _, e := range matched {
		state := "open"
		if e.Completed {
			state = "done"
		}
		fmt.Printf("%s  %-6s %s  %s [%s]\n", e.Time.Local().Format("2006-01-02 15:04:05"), e.Op, ui.ShortID(e.TaskID), utils.SingleLine(e.Text), state)
		if e.Warning != "" {
			fmt.Printf("    warning: %s\n", e.Warning)
		}
	}
	return nil
}
