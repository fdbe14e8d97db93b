package commands

import (
	"errors"
	"fmt"

	"github.com/benvon/todo-app/internal/client"
	"github.com/benvon/todo-app/internal/models"
	"github.com/spf13/cobra"
)

func newListCmd(newClient clientFactory, out *printer) *cobra.Command {
	var completed, active bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		Long:  "List todos in creation order, optionally only completed or only active ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if completed && active {
				return errors.New("--completed and --active are mutually exclusive")
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			var filter *bool
			switch {
			case completed:
				filter = &completed
			case active:
				f := false
				filter = &f
			}

			todos, err := c.List(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to list todos: %w", err)
			}
			return out.todos(cmd.OutOrStdout(), todos)
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "only completed todos")
	cmd.Flags().BoolVar(&active, "active", false, "only todos that are not completed")
	return cmd
}

func newGetCmd(newClient clientFactory, out *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			todo, err := c.Get(cmd.Context(), id)
			if err != nil {
				return describe(err, id)
			}
			return out.todo(cmd.OutOrStdout(), todo)
		},
	}
}

func newAddCmd(newClient clientFactory, out *printer) *cobra.Command {
	var description string
	var completed bool

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			in := models.TodoCreate{Title: args[0], Completed: completed}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}

			todo, err := c.Create(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("failed to create todo: %w", err)
			}
			return out.todo(cmd.OutOrStdout(), todo)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "optional description")
	cmd.Flags().BoolVar(&completed, "completed", false, "create the todo already completed")
	return cmd
}

func newUpdateCmd(newClient clientFactory, out *printer) *cobra.Command {
	var title, description string
	var completed, clearDescription bool

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a todo",
		Long:  "Change only the fields given as flags; everything else is left as it is",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			var patch models.TodoPatch
			if flags.Changed("title") {
				patch.Title = models.Some(title)
			}
			switch {
			case clearDescription && flags.Changed("description"):
				return errors.New("--description and --clear-description are mutually exclusive")
			case clearDescription:
				patch.Description = models.Some("")
			case flags.Changed("description"):
				patch.Description = models.Some(description)
			}
			if flags.Changed("completed") {
				patch.Completed = models.Some(completed)
			}
			if patch.IsEmpty() {
				return errors.New("nothing to update: pass at least one of --title, --description, --clear-description, --completed")
			}

			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			todo, err := c.Update(cmd.Context(), id, patch)
			if err != nil {
				return describe(err, id)
			}
			return out.todo(cmd.OutOrStdout(), todo)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().BoolVar(&clearDescription, "clear-description", false, "empty the description")
	cmd.Flags().BoolVar(&completed, "completed", false, "set the completion state")
	return cmd
}

func newToggleCmd(newClient clientFactory, out *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Flip the completion state of a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			todo, err := c.Toggle(cmd.Context(), id)
			if err != nil {
				return describe(err, id)
			}
			return out.todo(cmd.OutOrStdout(), todo)
		},
	}
}

func newDeleteCmd(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			if err := c.Delete(cmd.Context(), id); err != nil {
				return describe(err, id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted todo %d\n", id)
			return nil
		},
	}
}

func newHealthCmd(newClient clientFactory, out *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			h, err := c.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			if out.asJSON() {
				return writeJSON(cmd.OutOrStdout(), h)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", h.Service, h.Status)
			return nil
		},
	}
}

func describe(err error, id int64) error {
	if errors.Is(err, client.ErrNotFound) {
		return fmt.Errorf("todo %d not found", id)
	}
	return err
}
