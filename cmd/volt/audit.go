package main

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (c *cli) auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check that the secret and metadata stores agree",
		Long: `Compare secret store keys with credential records. Orphan secrets have no
record; dangling records have no secret. --purge deletes orphan secrets.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.app.svc.Audit.Audit(cmd.Context())
			if err != nil {
				return describe(err)
			}

			w := cmd.OutOrStdout()
			if report.Consistent() {
				ok(w, "%d records, %d secrets, stores agree", report.RecordCount, report.SecretCount)
				return nil
			}

			for _, key := range report.OrphanSecrets {
				warn(w, "orphan secret %s", color.YellowString(key))
			}
			for _, rec := range report.DanglingRecords {
				warn(w, "record %d %s has no secret", rec.ID, color.CyanString(rec.Title))
			}

			purge, _ := cmd.Flags().GetBool("purge")
			if !purge {
				if len(report.OrphanSecrets) > 0 {
					hint(w, "Run %s to delete orphan secrets", color.YellowString("volt audit --purge"))
				}
				return nil
			}

			n, err := c.app.svc.Audit.PurgeOrphanSecrets(cmd.Context())
			if err != nil {
				return describe(err)
			}
			ok(w, "Purged %d orphan secrets", n)
			return nil
		},
	}
	cmd.Flags().Bool("purge", false, "delete orphan secrets")
	return cmd
}

func (c *cli) wipeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Irreversibly delete every credential, group and icon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.New(color.RedString("✗") + " refusing to wipe the vault without --yes")
			}
			if err := c.app.svc.Vault.DeleteAllData(cmd.Context()); err != nil {
				return describe(err)
			}
			ok(cmd.OutOrStdout(), "Vault wiped")
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "confirm the wipe")
	return cmd
}
