package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/volt/internal/domain/model"
)

func (c *cli) iconCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "icon",
		Short: "Manage the icon catalog",
	}
	cmd.AddCommand(c.iconAddCmd(), c.iconListCmd(), c.iconPruneCmd())
	return cmd
}

func (c *cli) iconAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add NAME",
		Short:   "Add an icon",
		Example: `  volt icon add bank --provider FontAwesome`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, _ := cmd.Flags().GetString("provider")
			id, err := c.app.svc.Icons.AddIcon(cmd.Context(), args[0], model.IconProvider(provider))
			if err != nil {
				return describe(err)
			}
			ok(cmd.OutOrStdout(), "Added icon %s (id %d)", color.CyanString(args[0]), id)
			return nil
		},
	}
	cmd.Flags().String("provider", "", "icon set (default: MaterialCommunityIcons)")
	return cmd
}

func (c *cli) iconListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List icons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			icons, err := c.app.svc.Icons.ListIcons(cmd.Context())
			if err != nil {
				return describe(err)
			}
			w := cmd.OutOrStdout()
			for _, icon := range icons {
				fmt.Fprintf(w, "%s %s %s\n", color.YellowString("%d", icon.ID), icon.Name, color.HiBlackString("(%s)", icon.Provider))
			}
			return nil
		},
	}
}

func (c *cli) iconPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete icons no group uses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := c.app.svc.Icons.PruneUnusedIcons(cmd.Context())
			if err != nil {
				return describe(err)
			}
			ok(cmd.OutOrStdout(), "Pruned %d icons", n)
			return nil
		},
	}
}
