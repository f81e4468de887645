package main

import (
	"fmt"

	"github.com/goliatone/go-stagecms/internal/commands"
	"github.com/goliatone/go-stagecms/internal/commands/accesscmd"
	"github.com/goliatone/go-stagecms/internal/di"
	"github.com/spf13/cobra"
)

func accessHandlers(c *di.Container) accesscmd.Handlers {
	return accesscmd.NewHandlers(c.AllowList(), c.Users(), c.Directory(), commands.CommandLogger(c.LoggerProvider(), "access"))
}

func newEmailsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emails",
		Short: "Manage the sign-up allow-list",
	}

	var admin bool
	allow := &cobra.Command{
		Use:   "allow <email>",
		Short: "Allow an email address to register",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd.Context(), func(c *di.Container) error {
				msg := accesscmd.AllowEmailCommand{Email: args[0], Admin: admin}
				if err := accessHandlers(c).AllowEmail.Execute(cmd.Context(), msg); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "allowed", args[0])
				return nil
			})
		},
	}
	allow.Flags().BoolVar(&admin, "admin", false, "Grant admin on registration")

	revoke := &cobra.Command{
		Use:   "revoke <email>",
		Short: "Remove an email address from the allow-list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd.Context(), func(c *di.Container) error {
				if err := accessHandlers(c).RevokeEmail.Execute(cmd.Context(), accesscmd.RevokeEmailCommand{Email: args[0]}); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "revoked", args[0])
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List allowed email addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withContainer(cmd.Context(), func(c *di.Container) error {
				entries, err := c.AllowList().List(operatorContext(cmd.Context()))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), entries)
			})
		},
	}

	cmd.AddCommand(allow, revoke, list)
	return cmd
}

func newUsersCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage registered accounts",
	}

	var uid, email string
	grant := &cobra.Command{
		Use:   "grant-admin",
		Short: "Grant admin to an account by --uid or --email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withContainer(cmd.Context(), func(c *di.Container) error {
				msg := accesscmd.GrantAdminCommand{UID: uid, Email: email}
				if err := accessHandlers(c).GrantAdmin.Execute(cmd.Context(), msg); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "granted admin")
				return nil
			})
		},
	}
	grant.Flags().StringVar(&uid, "uid", "", "Account uid")
	grant.Flags().StringVar(&email, "email", "", "Account email")

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withContainer(cmd.Context(), func(c *di.Container) error {
				users, err := c.Users().List(operatorContext(cmd.Context()))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), users)
			})
		},
	}

	cmd.AddCommand(grant, list)
	return cmd
}
