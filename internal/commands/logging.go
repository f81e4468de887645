package commands

import (
	"strings"

	"github.com/goliatone/go-stagecms/internal/logging"
	"github.com/goliatone/go-stagecms/pkg/interfaces"
)

// CommandLogger is the commands logger tagged with the command group
// ("promotions", "access"). Entries carry origin=operator so operator
// actions can be told apart from API traffic.
func CommandLogger(provider interfaces.LoggerProvider, group string) interfaces.Logger {
	group = strings.TrimSpace(group)
	if group == "" {
		group = "cli"
	}
	return logging.WithFields(logging.CommandsLogger(provider), map[string]any{
		"origin":        "operator",
		"command_group": group,
	})
}
