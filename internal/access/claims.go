package access

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("access: authentication required")
	ErrForbidden       = errors.New("access: forbidden")
	ErrWritesDisabled  = errors.New("access: writes disabled")
)

// Claims are the per-request identity facts supplied by the identity
// provider.
type Claims struct {
	UID   string `json:"uid"`
	Admin bool   `json:"admin"`
	Email string `json:"email,omitempty"`
}

// OperatorUID identifies actions taken from the command line.
const OperatorUID = "operator"

// Operator returns admin claims for command line actions.
func Operator() Claims {
	return Claims{UID: OperatorUID, Admin: true}
}

// Error explains an authorization rejection.
type Error struct {
	Action string
	cause  error
}

func (e Error) Error() string {
	msg := "forbidden"
	if errors.Is(e.cause, ErrUnauthenticated) {
		msg = "authentication required"
	}
	if strings.TrimSpace(e.Action) == "" {
		return msg
	}
	return msg + ": " + e.Action
}

func (e Error) Unwrap() error {
	return e.cause
}

// Forbidden returns the rejection for an action the caller may not take.
func Forbidden(action string) error {
	return Error{Action: action, cause: ErrForbidden}
}

type claimsKey struct{}

// WithClaims attaches claims to ctx.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// FromContext returns the claims attached to ctx. Claims without a uid count
// as absent.
func FromContext(ctx context.Context) (Claims, bool) {
	if ctx == nil {
		return Claims{}, false
	}
	claims, ok := ctx.Value(claimsKey{}).(Claims)
	if !ok || strings.TrimSpace(claims.UID) == "" {
		return Claims{}, false
	}
	return claims, true
}

// RequireUser returns the caller claims or ErrUnauthenticated.
func RequireUser(ctx context.Context, action string) (Claims, error) {
	claims, ok := FromContext(ctx)
	if !ok {
		return Claims{}, Error{Action: action, cause: ErrUnauthenticated}
	}
	return claims, nil
}

// RequireAdmin returns admin claims, ErrUnauthenticated without claims, or
// ErrForbidden for non-admins.
func RequireAdmin(ctx context.Context, action string) (Claims, error) {
	claims, err := RequireUser(ctx, action)
	if err != nil {
		return Claims{}, err
	}
	if !claims.Admin {
		return Claims{}, Forbidden(action)
	}
	return claims, nil
}

// RequireOwnerOrAdmin admits admins and the owner uid.
func RequireOwnerOrAdmin(ctx context.Context, action, owner string) (Claims, error) {
	claims, err := RequireUser(ctx, action)
	if err != nil {
		return Claims{}, err
	}
	if claims.Admin || (owner != "" && claims.UID == owner) {
		return claims, nil
	}
	return Claims{}, Forbidden(action)
}

// RequireOwner admits only the owner uid.
func RequireOwner(ctx context.Context, action, owner string) (Claims, error) {
	claims, err := RequireUser(ctx, action)
	if err != nil {
		return Claims{}, err
	}
	if owner == "" || claims.UID != owner {
		return Claims{}, Forbidden(action)
	}
	return claims, nil
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
