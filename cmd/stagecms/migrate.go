package main

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-stagecms/internal/di"
	"github.com/goliatone/go-stagecms/internal/migrations"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withContainer(cmd.Context(), func(c *di.Container) error {
				if c.DB() == nil {
					return errors.New("migrate: no database configured")
				}
				registry := migrations.Default()
				if err := registry.Apply(cmd.Context(), c.DB()); err != nil {
					return err
				}
				for _, step := range registry.Steps() {
					fmt.Fprintln(cmd.OutOrStdout(), "ok", step)
				}
				return nil
			})
		},
	}
}
