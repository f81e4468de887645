// Command stagecms runs the editor API and its operator tasks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/di"
	"github.com/goliatone/go-stagecms/internal/runtimeconfig"
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	envFiles   []string
	readOnly   bool
}

// containerBuilder is swapped in tests.
var containerBuilder = di.NewContainer

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "stagecms:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "stagecms",
		Short: "Schema-driven page editor with a staging workflow",
		Long: `stagecms serves the page editor API and runs operator tasks against the
same storage: promoting drafts, managing the sign-up allow-list and
checking schema documents.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "Dotenv files applied before STAGECMS_* overrides (default .env)")
	root.PersistentFlags().BoolVar(&opts.readOnly, "read-only", false, "Reject page writes regardless of configuration")

	root.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newPromoteCommand(opts),
		newPromotionsCommand(opts),
		newEmailsCommand(opts),
		newUsersCommand(opts),
		newTokenCommand(opts),
		newSchemasCommand(opts),
	)
	return root
}

// loadConfig reads the config file, then dotenv files and the environment.
func (o *rootOptions) loadConfig() (runtimeconfig.Config, error) {
	cfg, err := runtimeconfig.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if err := runtimeconfig.ApplyEnv(&cfg, o.envFiles...); err != nil {
		return cfg, err
	}
	if o.readOnly {
		cfg.Storage.WritesEnabled = false
	}
	return cfg, nil
}

// withContainer builds the container, runs fn and releases the container.
func (o *rootOptions) withContainer(ctx context.Context, fn func(*di.Container) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	container, err := containerBuilder(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer container.Close()
	return fn(container)
}

// operatorContext grants the command line admin claims for direct service
// calls. Command handlers attach the same claims themselves.
func operatorContext(ctx context.Context) context.Context {
	return access.WithClaims(ctx, access.Operator())
}

func printJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
