package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/volt/internal/adapter/driven/auth"
)

func (c *cli) tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a short-lived API token",
		Long: `Print a signed bearer token for the JSON API. Requires VOLT_JWT_SECRET; the
token expires after VOLT_JWT_TTL.`,
		Example: `  curl -H "Authorization: Bearer $(volt token)" localhost:8080/api/v1/credentials/1`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jc := c.app.cfg.JWT
			if jc.Secret == "" {
				return errors.New("VOLT_JWT_SECRET is not set")
			}
			subject, _ := cmd.Flags().GetString("subject")

			token, err := auth.NewJWT(jc.Secret, jc.Issuer, jc.TTL).Issue(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("subject", "volt-cli", "token subject")
	return cmd
}
