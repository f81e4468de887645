package main

import (
	"fmt"

	"github.com/goliatone/go-stagecms/internal/commands"
	"github.com/goliatone/go-stagecms/internal/commands/promotecmd"
	"github.com/goliatone/go-stagecms/internal/di"
	"github.com/goliatone/go-stagecms/internal/promotions"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newPromoteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <title>",
		Short: "Publish a staging page and move its images to production",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd.Context(), func(c *di.Container) error {
				var result *promotions.Result
				handler := promotecmd.NewPromotePageHandler(c.Promotions(), commands.CommandLogger(c.LoggerProvider(), "promotions"), func(r *promotions.Result) {
					result = r
				})
				if err := handler.Execute(cmd.Context(), promotecmd.PromotePageCommand{Title: args[0]}); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}

func newPromotionsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promotions",
		Short: "Inspect and resume interrupted promotions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "List promotions that have not completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withContainer(cmd.Context(), func(c *di.Container) error {
				records, err := c.Promotions().Pending(operatorContext(cmd.Context()))
				if err != nil {
					return err
				}
				if records == nil {
					records = []*promotions.Record{}
				}
				return printJSON(cmd.OutOrStdout(), records)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "resume <record-id>",
		Short: "Retry an interrupted promotion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid record id %q: %w", args[0], err)
			}
			return opts.withContainer(cmd.Context(), func(c *di.Container) error {
				var result *promotions.Result
				handler := promotecmd.NewResumePromotionHandler(c.Promotions(), commands.CommandLogger(c.LoggerProvider(), "promotions"), func(r *promotions.Result) {
					result = r
				})
				if err := handler.Execute(cmd.Context(), promotecmd.ResumePromotionCommand{RecordID: id}); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	})
	return cmd
}
