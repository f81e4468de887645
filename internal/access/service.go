package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-stagecms/internal/logging"
	"github.com/goliatone/go-stagecms/pkg/interfaces"
)

// AllowList manages the invite allow-list.
type AllowList interface {
	List(ctx context.Context) ([]AllowedEmail, error)
	Add(ctx context.Context, email string, admin bool) error
	Remove(ctx context.Context, email string) error
	// CheckInvite reports whether email may receive a sign-in link: an
	// existing account or an allow-listed address.
	CheckInvite(ctx context.Context, email string) (bool, error)
	// Consume removes the entry and returns its admin flag.
	Consume(ctx context.Context, email string) (bool, error)
}

// Users is the admin view over the directory.
type Users interface {
	List(ctx context.Context) ([]User, error)
	GrantAdmin(ctx context.Context, uid string) error
	Delete(ctx context.Context, uid string) error
}

// Option customises access services.
type Option func(*options)

type options struct {
	logger interfaces.Logger
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

type allowList struct {
	repo      AllowListRepository
	directory Directory
	logger    interfaces.Logger
}

// NewAllowList constructs the allow-list service.
func NewAllowList(repo AllowListRepository, directory Directory, opts ...Option) AllowList {
	if repo == nil || directory == nil {
		panic("access: allow-list requires a repository and a directory")
	}
	o := buildOptions(opts)
	return &allowList{repo: repo, directory: directory, logger: o.logger}
}

func (s *allowList) List(ctx context.Context) ([]AllowedEmail, error) {
	if _, err := RequireAdmin(ctx, "list allowed emails"); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func (s *allowList) Add(ctx context.Context, email string, admin bool) error {
	claims, err := RequireAdmin(ctx, "add allowed email")
	if err != nil {
		return err
	}
	email = NormalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}
	if err := s.repo.Put(ctx, AllowedEmail{Email: email, Admin: admin}); err != nil {
		s.logger.Error("access.allowlist.add_failed", "email", email, "error", err)
		return err
	}
	s.logger.Info("access.allowlist.added", "email", email, "admin", admin, "actor", claims.UID)
	return nil
}

func (s *allowList) Remove(ctx context.Context, email string) error {
	claims, err := RequireAdmin(ctx, "remove allowed email")
	if err != nil {
		return err
	}
	email = NormalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}
	if err := s.repo.Delete(ctx, email); err != nil {
		return err
	}
	s.logger.Info("access.allowlist.removed", "email", email, "actor", claims.UID)
	return nil
}

func (s *allowList) CheckInvite(ctx context.Context, email string) (bool, error) {
	if NormalizeEmail(email) == "" {
		return false, ErrEmailRequired
	}
	if _, err := s.directory.GetByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return false, err
	}
	if _, err := s.repo.Get(ctx, email); err != nil {
		if errors.Is(err, ErrEmailNotAllowed) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *allowList) Consume(ctx context.Context, email string) (bool, error) {
	if NormalizeEmail(email) == "" {
		return false, ErrEmailRequired
	}
	entry, err := s.repo.Take(ctx, email)
	if err != nil {
		return false, err
	}
	s.logger.Info("access.allowlist.consumed", "email", entry.Email, "admin", entry.Admin)
	return entry.Admin, nil
}

type users struct {
	directory Directory
	logger    interfaces.Logger
}

// NewUsers constructs the admin user service.
func NewUsers(directory Directory, opts ...Option) Users {
	if directory == nil {
		panic("access: users require a directory")
	}
	o := buildOptions(opts)
	return &users{directory: directory, logger: o.logger}
}

func (s *users) List(ctx context.Context) ([]User, error) {
	if _, err := RequireAdmin(ctx, "list users"); err != nil {
		return nil, err
	}
	return s.directory.ListUsers(ctx)
}

func (s *users) GrantAdmin(ctx context.Context, uid string) error {
	claims, err := RequireAdmin(ctx, "grant admin")
	if err != nil {
		return err
	}
	if uid == "" {
		return ErrUIDRequired
	}
	if err := s.directory.SetAdmin(ctx, uid, true); err != nil {
		return err
	}
	s.logger.Info("access.users.admin_granted", "uid", uid, "actor", claims.UID)
	return nil
}

func (s *users) Delete(ctx context.Context, uid string) error {
	claims, err := RequireAdmin(ctx, "delete user")
	if err != nil {
		return err
	}
	if uid == "" {
		return ErrUIDRequired
	}
	if err := s.directory.Delete(ctx, uid); err != nil {
		return err
	}
	s.logger.Info("access.users.deleted", "uid", uid, "actor", claims.UID)
	return nil
}

// Accounts creates accounts gated by the allow-list.
type Accounts struct {
	allowList AllowList
	directory Directory
	logger    interfaces.Logger
}

func NewAccounts(allowList AllowList, directory Directory, opts ...Option) *Accounts {
	if allowList == nil || directory == nil {
		panic("access: accounts require an allow-list and a directory")
	}
	o := buildOptions(opts)
	return &Accounts{allowList: allowList, directory: directory, logger: o.logger}
}

// Register creates the account for email, consuming its allow-list entry and
// carrying over the admin flag.
func (a *Accounts) Register(ctx context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if _, err := a.directory.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	admin, err := a.allowList.Consume(ctx, email)
	if err != nil {
		return nil, err
	}
	user, err := a.directory.Create(ctx, email, admin)
	if err != nil {
		a.logger.Error("access.accounts.create_failed", "email", email, "error", err)
		return nil, fmt.Errorf("create account: %w", err)
	}
	a.logger.Info("access.accounts.registered", "email", email, "uid", user.UID, "admin", admin)
	return user, nil
}
