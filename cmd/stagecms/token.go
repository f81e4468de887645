package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/di"
	"github.com/spf13/cobra"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var claims access.Claims
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed claims token for API calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			claims.UID = strings.TrimSpace(claims.UID)
			if claims.UID == "" {
				return access.ErrUIDRequired
			}
			return opts.withContainer(cmd.Context(), func(c *di.Container) error {
				issuer := c.TokenIssuer()
				if issuer == nil {
					return errors.New("token: auth.secret is not configured")
				}
				token, err := issuer.Issue(claims)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&claims.UID, "uid", "", "Subject uid")
	cmd.Flags().StringVar(&claims.Email, "email", "", "Subject email")
	cmd.Flags().BoolVar(&claims.Admin, "admin", false, "Grant admin claims")
	return cmd
}
