package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kandev/kanboard/internal/board"
	"github.com/kandev/kanboard/internal/task/models"
)

type command struct {
	name    string
	usage   string
	summary string
	run     func(ctx context.Context, coord *board.Coordinator, out io.Writer, args []string) error
}

var commands = []command{
	{"board", "board", "Show the first page of every column", cmdBoard},
	{"add", "add [-column c] [-description d] <title>", "Create a task", cmdAdd},
	{"edit", "edit [-title t] [-description d] [-column c] <id>", "Change fields of a task", cmdEdit},
	{"move", "move <id> <column> [index]", "Move a task, appending when no index is given", cmdMove},
	{"rm", "rm <id>", "Delete a task", cmdRemove},
	{"search", "search <text>", "Show tasks matching text", cmdSearch},
	{"more", "more <column> [pages]", "Load further pages of a column", cmdMore},
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

// run loads the board for query and executes args[0] with the remaining
// arguments.
func run(ctx context.Context, coord *board.Coordinator, out io.Writer, query string, args []string) error {
	if len(args) == 0 {
		return errors.New("no command given")
	}
	cmd, ok := lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}

	var err error
	if query != "" {
		err = coord.SetSearchQuery(ctx, query)
	} else {
		err = coord.Refresh(ctx)
	}
	if err != nil {
		return fmt.Errorf("load board: %w", err)
	}
	return cmd.run(ctx, coord, out, args[1:])
}

func cmdBoard(ctx context.Context, coord *board.Coordinator, out io.Writer, args []string) error {
	renderBoard(out, coord.Snapshot())
	return nil
}

func cmdAdd(ctx context.Context, coord *board.Coordinator, out io.Writer, args []string) error {
	fs := newFlagSet("add", out)
	column := fs.String("column", string(models.ColumnBacklog), "Column of the new task")
	description := fs.String("description", "", "Task description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	task, err := coord.CreateTask(ctx, strings.Join(fs.Args(), " "), *description, models.ColumnID(*column))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created task %s in %s\n", task.ID, task.Column)
	renderBoard(out, coord.Snapshot())
	return nil
}

func cmdEdit(ctx context.Context, coord *board.Coordinator, out io.Writer, args []string) error {
	fs := newFlagSet("edit", out)
	title := fs.String("title", "", "New title")
	description := fs.String("description", "", "New description")
	column := fs.String("column", "", "New column")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("edit takes exactly one task id")
	}

	// only flags given on the command line end up in the patch
	var patch models.TaskPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			patch.Title = title
		case "description":
			patch.Description = description
		case "column":
			patch.Column = models.ColumnPtr(models.ColumnID(*column))
		}
	})
	if patch.Empty() {
		return errors.New("nothing to change")
	}

	task, err := coord.UpdateTask(ctx, fs.Arg(0), patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "updated task %s\n", task.ID)
	renderBoard(out, coord.Snapshot())
	return nil
}

func cmdMove(ctx context.Context, coord *board.Coordinator, out io.Writer, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.New("usage: move <id> <column> [index]")
	}
	id, dest := args[0], models.ColumnID(args[1])

	if err := ensureLoaded(ctx, coord, id); err != nil {
		return err
	}

	index := -1
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid index %q", args[2])
		}
		index = n
	}
	if index < 0 {
		if cv, ok := coord.Snapshot().Column(dest); ok {
			index = len(cv.Tasks)
		}
	}

	if err := coord.MoveTask(ctx, id, dest, index); err != nil {
		return err
	}
	fmt.Fprintf(out, "moved task %s to %s\n", id, dest)
	renderBoard(out, coord.Snapshot())
	return nil
}

func cmdRemove(ctx context.Context, coord *board.Coordinator, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: rm <id>")
	}
	if err := coord.DeleteTask(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted task %s\n", args[0])
	renderBoard(out, coord.Snapshot())
	return nil
}

func cmdSearch(ctx context.Context, coord *board.Coordinator, out io.Writer, args []string) error {
	text := strings.Join(args, " ")
	if err := coord.SetSearchQuery(ctx, text); err != nil {
		return err
	}
	view := coord.Snapshot()
	renderBoard(out, view)
	renderSearchSummary(out, view)
	return nil
}

func cmdMore(ctx context.Context, coord *board.Coordinator, out io.Writer, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: more <column> [pages]")
	}
	pages := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid page count %q", args[1])
		}
		pages = n
	}

	column := models.ColumnID(args[0])
	for i := 0; i < pages; i++ {
		if err := coord.LoadMore(ctx, column); err != nil {
			return err
		}
	}
	renderBoard(out, coord.Snapshot())
	return nil
}

// ensureLoaded pages through the board until id is loaded or every column
// is exhausted.
func ensureLoaded(ctx context.Context, coord *board.Coordinator, id string) error {
	for {
		view := coord.Snapshot()
		pending := false
		for _, cv := range view.Columns {
			for _, task := range cv.Tasks {
				if task.ID == id {
					return nil
				}
			}
			if cv.HasMore {
				pending = true
				if err := coord.LoadMore(ctx, cv.Column.ID); err != nil {
					return err
				}
			}
		}
		if !pending {
			return fmt.Errorf("task %s not found on the board", id)
		}
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}
