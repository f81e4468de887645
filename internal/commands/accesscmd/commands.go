package accesscmd

import (
	"context"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-stagecms/internal/access"
	"github.com/goliatone/go-stagecms/internal/commands"
	"github.com/goliatone/go-stagecms/pkg/interfaces"
)

const (
	allowEmailMessageType  = "stagecms.access.allow_email"
	revokeEmailMessageType = "stagecms.access.revoke_email"
	grantAdminMessageType  = "stagecms.access.grant_admin"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func emailRules(code string) []validation.Rule {
	return []validation.Rule{
		validation.Required.ErrorObject(validation.NewError(code+"_required", "email is required")),
		validation.Match(emailPattern).ErrorObject(validation.NewError(code+"_invalid", "email must be a valid address")),
	}
}

// AllowEmailCommand adds an address to the sign-up allow-list.
type AllowEmailCommand struct {
	Email string `json:"email"`
	Admin bool   `json:"admin"`
}

func (AllowEmailCommand) Type() string { return allowEmailMessageType }

func (m AllowEmailCommand) Validate() error {
	return validation.Errors{
		"email": validation.Validate(strings.TrimSpace(m.Email), emailRules("stagecms.access.allow_email.email")...),
	}.Filter()
}

// RevokeEmailCommand removes an address from the allow-list.
type RevokeEmailCommand struct {
	Email string `json:"email"`
}

func (RevokeEmailCommand) Type() string { return revokeEmailMessageType }

func (m RevokeEmailCommand) Validate() error {
	return validation.Errors{
		"email": validation.Validate(strings.TrimSpace(m.Email), emailRules("stagecms.access.revoke_email.email")...),
	}.Filter()
}

// GrantAdminCommand promotes an existing account to admin, addressed by uid
// or email.
type GrantAdminCommand struct {
	UID   string `json:"uid,omitempty"`
	Email string `json:"email,omitempty"`
}

func (GrantAdminCommand) Type() string { return grantAdminMessageType }

func (m GrantAdminCommand) Validate() error {
	uid := strings.TrimSpace(m.UID)
	email := strings.TrimSpace(m.Email)
	errs := validation.Errors{}
	switch {
	case uid == "" && email == "":
		errs["uid"] = validation.NewError("stagecms.access.grant_admin.target_required", "uid or email is required")
	case uid != "" && email != "":
		errs["uid"] = validation.NewError("stagecms.access.grant_admin.target_ambiguous", "provide either uid or email")
	case email != "" && !emailPattern.MatchString(email):
		errs["email"] = validation.NewError("stagecms.access.grant_admin.email_invalid", "email must be a valid address")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Handlers groups the allow-list and user commands.
type Handlers struct {
	AllowEmail  *commands.Handler[AllowEmailCommand]
	RevokeEmail *commands.Handler[RevokeEmailCommand]
	GrantAdmin  *commands.Handler[GrantAdminCommand]
}

// NewHandlers wires the access commands to their services.
func NewHandlers(allowList access.AllowList, users access.Users, directory access.Directory, logger interfaces.Logger) Handlers {
	if allowList == nil || users == nil || directory == nil {
		panic("accesscmd: allow-list, users and directory are required")
	}
	baseLogger := commands.EnsureLogger(logger)

	allow := commands.NewHandler(func(ctx context.Context, msg AllowEmailCommand) error {
		return allowList.Add(ctx, msg.Email, msg.Admin)
	},
		commands.WithLogger[AllowEmailCommand](baseLogger),
		commands.WithOperation[AllowEmailCommand]("access.allow_email"),
		commands.WithMessageFields(func(msg AllowEmailCommand) map[string]any {
			return map[string]any{"email": access.NormalizeEmail(msg.Email), "admin": msg.Admin}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[AllowEmailCommand](baseLogger)),
	)

	revoke := commands.NewHandler(func(ctx context.Context, msg RevokeEmailCommand) error {
		return allowList.Remove(ctx, msg.Email)
	},
		commands.WithLogger[RevokeEmailCommand](baseLogger),
		commands.WithOperation[RevokeEmailCommand]("access.revoke_email"),
		commands.WithMessageFields(func(msg RevokeEmailCommand) map[string]any {
			return map[string]any{"email": access.NormalizeEmail(msg.Email)}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[RevokeEmailCommand](baseLogger)),
	)

	grant := commands.NewHandler(func(ctx context.Context, msg GrantAdminCommand) error {
		uid := strings.TrimSpace(msg.UID)
		if uid == "" {
			user, err := directory.GetByEmail(ctx, msg.Email)
			if err != nil {
				return err
			}
			uid = user.UID
		}
		return users.GrantAdmin(ctx, uid)
	},
		commands.WithLogger[GrantAdminCommand](baseLogger),
		commands.WithOperation[GrantAdminCommand]("access.grant_admin"),
		commands.WithTelemetry(commands.DefaultTelemetry[GrantAdminCommand](baseLogger)),
	)

	return Handlers{AllowEmail: allow, RevokeEmail: revoke, GrantAdmin: grant}
}
