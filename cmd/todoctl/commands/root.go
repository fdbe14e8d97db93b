package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/benvon/todo-app/internal/client"
	"github.com/benvon/todo-app/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultServerURL = "http://localhost:8000"
	envPrefix        = "TODOCTL"
)

// NewRootCmd builds the todoctl command tree. Flags fall back to TODOCTL_* environment variables.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "todoctl",
		Short:         "Command line client for the todo API",
		Long:          "todoctl lists, creates, updates, toggles and deletes todos on a running todo server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("server", defaultServerURL, "todo server base URL (env TODOCTL_SERVER)")
	flags.Duration("timeout", client.DefaultTimeout, "per-request timeout (env TODOCTL_TIMEOUT)")
	flags.Bool("json", false, "print raw JSON instead of a table (env TODOCTL_JSON)")
	flags.Bool("verbose", false, "log API calls to stderr (env TODOCTL_VERBOSE)")
	_ = v.BindPFlags(flags)

	newClient := func(cmd *cobra.Command) (*client.Client, error) {
		opts := []client.Option{client.WithTimeout(v.GetDuration("timeout"))}
		if v.GetBool("verbose") {
			logger, err := zap.NewDevelopment()
			if err != nil {
				return nil, fmt.Errorf("failed to create logger: %w", err)
			}
			opts = append(opts, client.WithLogger(logger))
		}
		return client.New(v.GetString("server"), opts...)
	}
	out := &printer{asJSON: func() bool { return v.GetBool("json") }}

	rootCmd.AddCommand(
		newListCmd(newClient, out),
		newGetCmd(newClient, out),
		newAddCmd(newClient, out),
		newUpdateCmd(newClient, out),
		newToggleCmd(newClient, out),
		newDeleteCmd(newClient),
		newHealthCmd(newClient, out),
	)

	return rootCmd
}

type clientFactory func(cmd *cobra.Command) (*client.Client, error)

type printer struct {
	asJSON func() bool
}

func (p *printer) todos(w io.Writer, todos []models.Todo) error {
	if p.asJSON() {
		return writeJSON(w, todos)
	}
	if len(todos) == 0 {
		_, err := fmt.Fprintln(w, "No todos")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tTITLE\tUPDATED")
	for _, t := range todos {
		done := " "
		if t.Completed {
			done = "x"
		}
		fmt.Fprintf(tw, "%d\t[%s]\t%s\t%s\n", t.ID, done, t.Title, t.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func (p *printer) todo(w io.Writer, t *models.Todo) error {
	if p.asJSON() {
		return writeJSON(w, t)
	}

	desc := "-"
	if t.Description != nil {
		desc = *t.Description
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", t.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", t.Title)
	fmt.Fprintf(tw, "Description:\t%s\n", desc)
	fmt.Fprintf(tw, "Completed:\t%t\n", t.Completed)
	fmt.Fprintf(tw, "Created:\t%s\n", t.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(tw, "Updated:\t%s\n", t.UpdatedAt.Local().Format(time.RFC3339))
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id %q: must be a positive integer", arg)
	}
	return id, nil
}
