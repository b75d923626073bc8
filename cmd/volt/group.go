package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/volt/internal/application"
)

func (c *cli) groupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage the group tree",
	}
	cmd.AddCommand(c.groupAddCmd(), c.groupListCmd(), c.groupMoveCmd(), c.groupRemoveCmd())
	return cmd
}

func (c *cli) groupAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a group",
		Example: `  volt group add Finance
  volt group add Bills --parent 1 --icon 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := optionalID(cmd, "parent")
			if err != nil {
				return err
			}
			icon, err := optionalID(cmd, "icon")
			if err != nil {
				return err
			}

			id, err := c.app.svc.Vault.CreateGroup(cmd.Context(), application.CreateGroupInput{
				Name:     args[0],
				ParentID: parent,
				IconID:   icon,
			})
			if err != nil {
				return describe(err)
			}
			ok(cmd.OutOrStdout(), "Created group %s (id %d)", color.CyanString(args[0]), id)
			return nil
		},
	}
	cmd.Flags().Int64("parent", 0, "parent group id (default: root)")
	cmd.Flags().Int64("icon", 0, "icon id")
	return cmd
}

func (c *cli) groupListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List groups",
		Long:  "List the groups under --parent (root by default). --tree prints the whole subtree.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parent, err := optionalID(cmd, "parent")
			if err != nil {
				return err
			}
			tree, _ := cmd.Flags().GetBool("tree")

			depth := 1
			if tree {
				depth = -1
			}
			w := cmd.OutOrStdout()
			n, err := c.printGroups(cmd.Context(), w, parent, 0, depth)
			if err != nil {
				return describe(err)
			}
			if n == 0 {
				warn(w, "No groups found")
				hint(w, "Run %s to create one", color.YellowString("volt group add NAME"))
			}
			return nil
		},
	}
	cmd.Flags().Int64("parent", 0, "list children of this group")
	cmd.Flags().Bool("tree", false, "print every descendant")
	return cmd
}

// printGroups writes the children of parent indented by level and descends
// while depth is not exhausted. A negative depth is unlimited.
func (c *cli) printGroups(ctx context.Context, w io.Writer, parent *int64, level, depth int) (int, error) {
	if depth == 0 {
		return 0, nil
	}
	views, err := c.app.svc.Query.ChildGroups(ctx, parent)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, v := range views {
		line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", level), color.YellowString("%d", v.ID), v.Name)
		if v.IconName != "" {
			line += color.HiBlackString(" [%s]", v.IconName)
		}
		fmt.Fprintln(w, line)
		count++

		id := v.ID
		n, err := c.printGroups(ctx, w, &id, level+1, depth-1)
		if err != nil {
			return count, err
		}
		count += n
	}
	return count, nil
}

func (c *cli) groupMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mv ID",
		Short: "Rename or reparent a group",
		Long: `Rename or reparent a group. Without --parent the group moves to the root.
--creds with --target also relocates credentials from the group's subtree.`,
		Example: `  volt group mv 3 --parent 1
  volt group mv 3 --name Utilities --parent 1
  volt group mv 3 --parent 1 --creds 7,8 --target 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			parent, err := optionalID(cmd, "parent")
			if err != nil {
				return err
			}
			target, err := optionalID(cmd, "target")
			if err != nil {
				return err
			}
			credIDs, _ := cmd.Flags().GetInt64Slice("creds")

			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				g, err := c.app.svc.Query.GroupInfo(cmd.Context(), id)
				if err != nil {
					return describe(err)
				}
				name = g.Name
			}

			err = c.app.svc.Vault.MoveGroup(cmd.Context(), application.MoveGroupInput{
				GroupID:       id,
				Name:          name,
				ParentID:      parent,
				CredentialIDs: credIDs,
				TargetGroupID: target,
			})
			if err != nil {
				return describe(err)
			}
			ok(cmd.OutOrStdout(), "Moved group %s under %s", color.CyanString(name), formatGroup(parent))
			if len(credIDs) > 0 {
				ok(cmd.OutOrStdout(), "Relocated %d credentials to %s", len(credIDs), formatGroup(target))
			}
			return nil
		},
	}
	cmd.Flags().String("name", "", "new name (default: keep current)")
	cmd.Flags().Int64("parent", 0, "new parent group id (default: root)")
	cmd.Flags().Int64Slice("creds", nil, "credential ids to relocate")
	cmd.Flags().Int64("target", 0, "group receiving relocated credentials (default: root)")
	return cmd
}

func (c *cli) groupRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a group with all descendants and their credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.app.svc.Vault.DeleteGroupSubtree(cmd.Context(), id); err != nil {
				return describe(err)
			}
			ok(cmd.OutOrStdout(), "Deleted group %d", id)
			return nil
		},
	}
}
