package access

import (
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-stagecms/internal/identity"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrEmailRequired   = errors.New("access: email required")
	ErrEmailNotAllowed = errors.New("access: unauthorized email")
	ErrUserNotFound    = errors.New("access: user not found")
	ErrUserExists      = errors.New("access: user already exists")
	ErrUIDRequired     = errors.New("access: uid required")
)

// AllowedEmail is an invite that admits one account creation.
type AllowedEmail struct {
	bun.BaseModel `bun:"table:allowed_emails,alias:ae"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"-"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	Admin     bool      `bun:"admin,notnull" json:"admin"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// AllowedEmailID is the record id of an allow-list entry.
func AllowedEmailID(email string) uuid.UUID {
	return identity.EmailUUID("allowed", email)
}

// User is an account known to the identity provider.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"-"`
	UID       string    `bun:"uid,notnull,unique" json:"uid"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	Admin     bool      `bun:"admin,notnull" json:"admin"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// UserID is the record id of the user with email.
func UserID(email string) uuid.UUID {
	return identity.EmailUUID("user", email)
}

// UserNotFoundError names the missing user.
type UserNotFoundError struct {
	Key string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user %q not found", e.Key)
}

func (e *UserNotFoundError) Is(target error) bool {
	return target == ErrUserNotFound
}
