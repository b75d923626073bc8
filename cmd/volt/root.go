package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/volt/internal/domain/model"
)

// cli carries the opened application between cobra hooks and commands.
type cli struct {
	app *app
}

// newRootCmd builds the command tree. The returned func closes the vault
// stores and must run after Execute whatever its outcome.
func newRootCmd() (*cobra.Command, func() error) {
	c := &cli{}

	root := &cobra.Command{
		Use:   "volt",
		Short: "Personal credential vault",
		Long: `volt keeps credentials in a group tree. Titles and groups live in a
SQLite metadata store; usernames and passwords live in a separate secret store
(an encrypted SQLite file or the platform keyring).

Configuration is read from VOLT_* environment variables and, when
VOLT_CONFIG_PATH is set, a YAML file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !needsApp(cmd) {
				return nil
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
	}

	root.AddCommand(
		c.serveCmd(),
		c.groupCmd(),
		c.credCmd(),
		c.iconCmd(),
		c.auditCmd(),
		c.wipeCmd(),
		c.tokenCmd(),
	)
	return root, c.close
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// needsApp reports whether cmd touches the vault. Help and shell completion
// run without configuration.
func needsApp(cmd *cobra.Command) bool {
	for p := cmd; p != nil; p = p.Parent() {
		switch p.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd:
			return false
		}
	}
	return true
}

// --- Output helpers ---

func ok(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.YellowString("!")+" "+fmt.Sprintf(format, args...))
}

func hint(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.CyanString("→")+" "+fmt.Sprintf(format, args...))
}

// describe turns a service error into a one-line message for the terminal.
func describe(err error) error {
	var verr *model.ValidationError
	var pf *model.PartialFailureError
	var orphan *model.OrphanRiskError

	switch {
	case errors.As(err, &verr):
		return fmt.Errorf("%s %s", color.RedString("✗"), verr.Error())
	case errors.As(err, &pf):
		return fmt.Errorf("%s deleted %d items, %d remain: %w", color.RedString("✗"), pf.Deleted, pf.Remaining, pf.Err)
	case errors.As(err, &orphan):
		return fmt.Errorf("%s %w (run %s)", color.RedString("✗"), err, color.YellowString("volt audit"))
	default:
		return fmt.Errorf("%s %w", color.RedString("✗"), err)
	}
}

// --- Argument parsing ---

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// optionalID reads an id flag; an unset flag means the root level.
func optionalID(cmd *cobra.Command, name string) (*int64, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	v, err := cmd.Flags().GetInt64(name)
	if err != nil {
		return nil, err
	}
	if v <= 0 {
		return nil, fmt.Errorf("invalid --%s %d", name, v)
	}
	return &v, nil
}

func formatGroup(id *int64) string {
	if id == nil {
		return "(root)"
	}
	return strconv.FormatInt(*id, 10)
}
