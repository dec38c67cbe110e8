package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/nibzard/tasklist-go/internal/config"
	"github.com/nibzard/tasklist-go/internal/todo"
	"github.com/nibzard/tasklist-go/internal/ui"
)

// lsCommand prints the task list.
func lsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist ls", flag.ContinueOnError)
	all := fs.Bool("all", false, "Show every task (default)")
	open := fs.Bool("open", false, "Show open tasks only")
	done := fs.Bool("done", false, "Show completed tasks only")

	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := todo.FilterAll
	switch {
	case *open && *done, *all && (*open || *done):
		return fmt.Errorf("choose one of -all, -open or -done")
	case *open:
		filter = todo.FilterOpen
	case *done:
		filter = todo.FilterDone
	}

	remaining := fs.Args()
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	if len(remaining) == 1 {
		f, err := todo.ParseFilter(remaining[0])
		if err != nil {
			return err
		}
		filter = f
	}

	s := openSession(ctx, cfg, sessionOptions{})
	defer s.Close()

	tasks := s.load(ctx)
	ui.WriteList(os.Stdout, tasks, filter)
	return nil
}

// addCommand adds one task from the remaining arguments.
func addCommand(ctx context.Context, cfg *config.Config, args []string) error {
	text := strings.Join(args, " ")

	s := openSession(ctx, cfg, sessionOptions{})
	defer s.Close()
	s.load(ctx)

	task, err := s.store.Add(ctx, text)
	if task == nil {
		if err != nil {
			return err
		}
		fmt.Println("Nothing to add.")
		return nil
	}
	fmt.Println(ui.FormatTask(len(s.store.Tasks()), *task))
	warn(err)
	return nil
}

// toggleCommand flips the completed flag of one task.
func toggleCommand(ctx context.Context, cfg *config.Config, args []string) error {
	ref, err := singleRef(args)
	if err != nil {
		return err
	}

	s := openSession(ctx, cfg, sessionOptions{})
	defer s.Close()
	tasks := s.load(ctx)

	pos, task, err := resolveTaskRef(tasks, ref)
	if err != nil {
		return err
	}
	_, err = s.store.Toggle(ctx, task.ID)
	updated, _ := s.store.Get(task.ID)
	fmt.Println(ui.FormatTask(pos, updated))
	warn(err)
	return nil
}

// rmCommand removes one task.
func rmCommand(ctx context.Context, cfg *config.Config, args []string) error {
	ref, err := singleRef(args)
	if err != nil {
		return err
	}

	s := openSession(ctx, cfg, sessionOptions{})
	defer s.Close()
	tasks := s.load(ctx)

	_, task, err := resolveTaskRef(tasks, ref)
	if err != nil {
		return err
	}
	_, err = s.store.Remove(ctx, task.ID)
	fmt.Printf("Removed: %s (%s)\n", task.Text, ui.ShortID(task.ID))
	warn(err)
	return nil
}

// clearDoneCommand removes every completed task with one write.
func clearDoneCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}

	s := openSession(ctx, cfg, sessionOptions{})
	defer s.Close()
	s.load(ctx)

	n, err := s.store.RemoveCompleted(ctx)
	switch n {
	case 0:
		fmt.Println("No completed tasks.")
	case 1:
		fmt.Println("Removed 1 completed task.")
	default:
		fmt.Printf("Removed %d completed tasks.\n", n)
	}
	warn(err)
	return nil
}

func singleRef(args []string) (string, error) {
	if len(args) == 0 {
		return "", ErrTaskRefRequired
	}
	if len(args) > 1 {
		return "", fmt.Errorf("unexpected arguments: %v", args[1:])
	}
	if strings.TrimSpace(args[0]) == "" {
		return "", errors.New("task reference is empty")
	}
	return args[0], nil
}
