package root

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/taskdesk/internal/model"
	"github.com/BuzzLyutic/taskdesk/internal/taskstore"
	"github.com/BuzzLyutic/taskdesk/internal/ui"
)

func newListCmd(c *cli) *cobra.Command {
	var sortBy, filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := taskstore.ParseOrder(sortBy)
			if err != nil {
				return err
			}
			return c.app.protected(cmd.Context(), func(ctx context.Context) error {
				if err := c.app.tasks.Load(ctx); err != nil {
					return err
				}
				tasks := taskstore.Sort(c.app.tasks.FilteredView(filter), order)
				printTasks(c, "Tasks", tasks)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&sortBy, "sort", "s", "desc", "Priority order (desc|asc)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Show only tasks whose title contains this text")

	return cmd
}

func newAddCmd(c *cli) *cobra.Command {
	var draft model.TaskDraft
	var status string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("title is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			draft.Title = args[0]
			draft.Status = model.Status(status)
			return c.app.protected(cmd.Context(), func(ctx context.Context) error {
				if err := c.app.tasks.Load(ctx); err != nil {
					return err
				}
				if err := c.app.tasks.Add(ctx, draft); err != nil {
					return err
				}
				fmt.Fprintln(c.out, ui.Good.Render(ui.IconDone+" Task added"))
				printTasks(c, "Tasks", c.app.tasks.SortedView(taskstore.PriorityDesc))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&draft.Description, "description", "d", "", "Description")
	cmd.Flags().IntVarP(&draft.Priority, "priority", "p", 3, "Priority (1-5)")
	cmd.Flags().StringVar(&status, "status", string(model.StatusPending), "Status (pending|in_progress|completed)")

	return cmd
}

func newEditCmd(c *cli) *cobra.Command {
	var title, description, status string
	var priority int

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.app.protected(cmd.Context(), func(ctx context.Context) error {
				if err := c.app.tasks.Load(ctx); err != nil {
					return err
				}
				task, ok := findTask(c.app.tasks.List(), id)
				if !ok {
					// открытый список не содержит завершённых задач
					done, err := c.app.tasks.Completed(ctx)
					if err != nil {
						return err
					}
					if task, ok = findTask(done, id); !ok {
						return fmt.Errorf("%w: %d", taskstore.ErrNotFound, id)
					}
				}

				flags := cmd.Flags()
				if flags.Changed("title") {
					task.Title = title
				}
				if flags.Changed("description") {
					task.Description = description
				}
				if flags.Changed("priority") {
					task.Priority = priority
				}
				if flags.Changed("status") {
					task.Status = model.Status(status)
				}

				if err := c.app.tasks.Update(ctx, id, task); err != nil {
					return err
				}
				fmt.Fprintln(c.out, ui.Good.Render(ui.IconDone+" Task updated"))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().IntVarP(&priority, "priority", "p", 0, "New priority (1-5)")
	cmd.Flags().StringVar(&status, "status", "", "New status (pending|in_progress|completed)")

	return cmd
}

func newRmCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.app.protected(cmd.Context(), func(ctx context.Context) error {
				if err := c.app.tasks.Load(ctx); err != nil {
					return err
				}
				if err := c.app.tasks.Remove(ctx, id); err != nil {
					return err
				}
				fmt.Fprintln(c.out, ui.Good.Render(ui.IconDone+" Task deleted"))
				return nil
			})
		},
	}
}

func newHistoryCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List completed tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.protected(cmd.Context(), func(ctx context.Context) error {
				tasks, err := c.app.tasks.Completed(ctx)
				if err != nil {
					return err
				}
				printTasks(c, "Completed", tasks)
				return nil
			})
		},
	}
}

func newDashboardCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show task counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.protected(cmd.Context(), func(ctx context.Context) error {
				st, err := c.app.tasks.Dashboard(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, ui.Heading("", "Dashboard"))
				fmt.Fprintln(c.out, ui.StatsPanel(st))
				return nil
			})
		},
	}
}

func newDescribeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <title>",
		Short: "Suggest a description for a task title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.protected(cmd.Context(), func(ctx context.Context) error {
				desc, err := c.app.tasks.Describe(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, desc)
				return nil
			})
		},
	}
}

func printTasks(c *cli, title string, tasks []model.Task) {
	fmt.Fprintln(c.out, ui.Heading("", fmt.Sprintf("%s (%d)", title, len(tasks))))
	fmt.Fprintln(c.out, ui.TaskTable(tasks))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func findTask(tasks []model.Task, id int64) (model.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}
