package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yukikurage/task-manager/internal/client"
	"github.com/yukikurage/task-manager/internal/dto"
)

func tasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks",
	}

	cmd.AddCommand(tasksListCmd(a))
	cmd.AddCommand(tasksGetCmd(a))
	cmd.AddCommand(tasksCreateCmd(a))
	cmd.AddCommand(tasksUpdateCmd(a))
	cmd.AddCommand(tasksDeleteCmd(a))

	return cmd
}

func tasksListCmd(a *app) *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			list := client.NewTaskList(a.api, limit)
			if err := list.Load(a.context(cmd), page); err != nil {
				return err
			}

			view := list.View()
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), view.Tasks)
			}
			if view.State == client.StateEmpty {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks available.")
				return nil
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tTITLE\tDUE\tPRIORITY\tSTATUS\tASSIGNEE")
			for _, task := range view.Tasks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					task.ID, task.Title, task.DueDate.Format("2006-01-02"), task.Priority, task.Status, assigneeLabel(task))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%d tasks)\n", view.Page, view.TotalPages, view.TotalCount)
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "tasks per page")

	return cmd
}

func tasksGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.api.GetTask(a.context(cmd), args[0])
			if err != nil {
				return err
			}
			return a.printTask(cmd.OutOrStdout(), task)
		},
	}
}

func tasksCreateCmd(a *app) *cobra.Command {
	form := &client.TaskFields{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := client.NewCreateForm(a.api)
			f.Fields = *form
			task, err := f.Submit(a.context(cmd))
			if err != nil {
				return err
			}
			return a.printTask(cmd.OutOrStdout(), task)
		},
	}

	bindTaskFlags(cmd, form)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("due")

	return cmd
}

func tasksUpdateCmd(a *app) *cobra.Command {
	values := &client.TaskFields{}
	var unassign bool

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Change fields of a task; unset flags are left as they are",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.context(cmd)
			current, err := a.api.GetTask(ctx, args[0])
			if err != nil {
				return err
			}

			f := client.NewEditForm(a.api, *current)
			flags := cmd.Flags()
			if flags.Changed("title") {
				f.Fields.Title = values.Title
			}
			if flags.Changed("description") {
				f.Fields.Description = values.Description
			}
			if flags.Changed("due") {
				f.Fields.DueDate = values.DueDate
			}
			if flags.Changed("priority") {
				f.Fields.Priority = values.Priority
			}
			if flags.Changed("status") {
				f.Fields.Status = values.Status
			}
			if flags.Changed("assign") {
				f.Fields.AssignedTo = values.AssignedTo
			}
			if unassign {
				f.Fields.AssignedTo = ""
			}

			if f.Patch().Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to update")
				return nil
			}

			task, err := f.Submit(ctx)
			if err != nil {
				return err
			}
			return a.printTask(cmd.OutOrStdout(), task)
		},
	}

	bindTaskFlags(cmd, values)
	cmd.Flags().BoolVar(&unassign, "unassign", false, "remove the assignee")
	cmd.MarkFlagsMutuallyExclusive("assign", "unassign")

	return cmd
}

func tasksDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.DeleteTask(a.context(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[0])
			return nil
		},
	}
}

func bindTaskFlags(cmd *cobra.Command, fields *client.TaskFields) {
	cmd.Flags().StringVarP(&fields.Title, "title", "t", "", "task title")
	cmd.Flags().StringVarP(&fields.Description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&fields.DueDate, "due", "", "due date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&fields.Priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&fields.Status, "status", "", `"To Do", "In Progress" or "Completed"`)
	cmd.Flags().StringVar(&fields.AssignedTo, "assign", "", "assignee user ID")
}

func (a *app) printTask(out io.Writer, task *dto.TaskDTO) error {
	if a.jsonOutput {
		return printJSON(out, task)
	}

	w := newTable(out)
	fmt.Fprintf(w, "ID:\t%s\n", task.ID)
	fmt.Fprintf(w, "Title:\t%s\n", task.Title)
	fmt.Fprintf(w, "Description:\t%s\n", task.Description)
	fmt.Fprintf(w, "Due:\t%s\n", task.DueDate.Format("2006-01-02"))
	fmt.Fprintf(w, "Priority:\t%s\n", task.Priority)
	fmt.Fprintf(w, "Status:\t%s\n", task.Status)
	fmt.Fprintf(w, "Assignee:\t%s\n", assigneeLabel(*task))
	return w.Flush()
}

func assigneeLabel(task dto.TaskDTO) string {
	switch {
	case task.AssignedTo == nil:
		return "-"
	case task.AssignedTo.Name == "":
		return task.AssignedTo.ID
	default:
		return task.AssignedTo.Name
	}
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
