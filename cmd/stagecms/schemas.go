package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-stagecms/internal/di"
	"github.com/goliatone/go-stagecms/internal/schema"
	"github.com/goliatone/go-stagecms/internal/validation"
	"github.com/spf13/cobra"
)

func newSchemasCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "Inspect schema documents",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "validate <file>...",
			Short: "Check schema documents without loading them",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				failed := 0
				for _, path := range args {
					if err := validateSchemaFile(path); err != nil {
						failed++
						fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s\n", path)
						for _, issue := range validation.Issues(err) {
							fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", issueLocation(issue), issue.Message)
						}
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", path)
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d schema documents invalid", failed, len(args))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List registered schemas",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return opts.withContainer(cmd.Context(), func(c *di.Container) error {
					items, err := c.SchemaRegistry().List(cmd.Context())
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), items)
				})
			},
		},
		&cobra.Command{
			Use:   "images <schema-id>",
			Short: "Print the image positions promotion rewrites",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withContainer(cmd.Context(), func(c *di.Container) error {
					s, err := c.SchemaRegistry().Get(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					for _, path := range schema.IndexImages(s).Paths() {
						fmt.Fprintln(cmd.OutOrStdout(), path)
					}
					return nil
				})
			},
		},
	)
	return cmd
}

func validateSchemaFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	_, err = schema.ValidateDocument(id, raw)
	return err
}

func issueLocation(issue validation.ValidationIssue) string {
	if issue.Location == "" {
		return "#"
	}
	return issue.Location
}
