package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ericfisherdev/volt/internal/application"
)

func (c *cli) credCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cred",
		Short: "Manage credentials",
	}
	cmd.AddCommand(c.credAddCmd(), c.credListCmd(), c.credShowCmd(), c.credEditCmd(), c.credRemoveCmd())
	return cmd
}

// readPassword returns the --password flag or reads it from stdin: without
// echo when stdin is a terminal, otherwise the first line.
func readPassword(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("password"); p != "" {
		return p, nil
	}

	if f, isFile := cmd.InOrStdin().(*os.File); isFile && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		p, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(p), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) credAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Store a credential",
		Long:  "Store a credential. Without --password the password is read from stdin.",
		Example: `  volt cred add Email --username alice --password hunter2
  echo hunter2 | volt cred add Bank --group 2 --username alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			group, err := optionalID(cmd, "group")
			if err != nil {
				return err
			}
			username, _ := cmd.Flags().GetString("username")
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}

			id, err := c.app.svc.Vault.CreateCredential(cmd.Context(), application.CreateCredentialInput{
				Title:    args[0],
				GroupID:  group,
				Username: username,
				Password: password,
			})
			if err != nil {
				return describe(err)
			}
			ok(cmd.OutOrStdout(), "Stored credential %s (id %d)", color.CyanString(args[0]), id)
			return nil
		},
	}
	cmd.Flags().Int64("group", 0, "group id (default: root)")
	cmd.Flags().String("username", "", "username")
	cmd.Flags().String("password", "", "password (default: read from stdin)")
	return cmd
}

func (c *cli) credListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List credentials",
		Long:  "List credentials in --group and all of its descendants, or every credential.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			group, err := optionalID(cmd, "group")
			if err != nil {
				return err
			}
			recs, err := c.app.svc.Query.CredentialsInScope(cmd.Context(), group)
			if err != nil {
				return describe(err)
			}

			w := cmd.OutOrStdout()
			if len(recs) == 0 {
				warn(w, "No credentials found")
				return nil
			}
			for _, r := range recs {
				fmt.Fprintf(w, "%s %s %s\n", color.YellowString("%d", r.ID), r.Title, color.HiBlackString("group %s", formatGroup(r.GroupID)))
			}
			return nil
		},
	}
	cmd.Flags().Int64("group", 0, "limit to this group's subtree")
	return cmd
}

func (c *cli) credShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a credential with its password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cred, err := c.app.svc.Query.CredentialDetail(cmd.Context(), id)
			if err != nil {
				return describe(err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "  Title:    "+color.CyanString(cred.Title))
			fmt.Fprintln(w, "  Group:    "+formatGroup(cred.GroupID))
			fmt.Fprintln(w, "  Username: "+color.CyanString(cred.Username))
			fmt.Fprintln(w, "  Password: "+color.YellowString(cred.Password))
			return nil
		},
	}
}

func (c *cli) credEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a credential",
		Long: `Change a credential. Unset flags keep their current value. --group moves the
credential; --root moves it to the root level.`,
		Example: `  volt cred edit 4 --password n3w
  volt cred edit 4 --title "Work mail" --group 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cur, err := c.app.svc.Query.CredentialDetail(cmd.Context(), id)
			if err != nil {
				return describe(err)
			}

			in := application.UpdateCredentialInput{
				ID:        id,
				SecretKey: cur.SecretKey,
				Title:     cur.Title,
				Username:  cur.Username,
				Password:  cur.Password,
			}
			flags := cmd.Flags()
			if flags.Changed("title") {
				in.Title, _ = flags.GetString("title")
			}
			if flags.Changed("username") {
				in.Username, _ = flags.GetString("username")
			}
			if flags.Changed("password") {
				in.Password, _ = flags.GetString("password")
			}

			toRoot, _ := flags.GetBool("root")
			switch {
			case toRoot && flags.Changed("group"):
				return errors.New("use either --group or --root")
			case toRoot:
				in.ChangeGroup = true
			case flags.Changed("group"):
				in.ChangeGroup = true
				if in.GroupID, err = optionalID(cmd, "group"); err != nil {
					return err
				}
			}

			if err := c.app.svc.Vault.UpdateCredential(cmd.Context(), in); err != nil {
				return describe(err)
			}
			ok(cmd.OutOrStdout(), "Updated credential %s", color.CyanString(in.Title))
			return nil
		},
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("username", "", "new username")
	cmd.Flags().String("password", "", "new password")
	cmd.Flags().Int64("group", 0, "move to this group")
	cmd.Flags().Bool("root", false, "move to the root level")
	return cmd
}

func (c *cli) credRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.app.svc.Vault.DeleteCredential(cmd.Context(), id, ""); err != nil {
				return describe(err)
			}
			ok(cmd.OutOrStdout(), "Deleted credential %d", id)
			return nil
		},
	}
}
