package access

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken    = errors.New("access: invalid or expired token")
	ErrSecretRequired  = errors.New("access: token secret not configured")
	defaultTokenIssuer = "stagecms"
)

// TokenClaims is the JWT payload carrying identity claims.
type TokenClaims struct {
	Admin bool   `json:"admin"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier turns signed tokens into Claims.
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(secret []byte, issuer string) (*TokenVerifier, error) {
	if len(secret) == 0 {
		return nil, ErrSecretRequired
	}
	if issuer == "" {
		issuer = defaultTokenIssuer
	}
	return &TokenVerifier{secret: secret, issuer: issuer}, nil
}

// Verify checks the signature, expiry and issuer of raw.
func (v *TokenVerifier) Verify(raw string) (Claims, error) {
	parsed := &TokenClaims{}
	token, err := jwt.ParseWithClaims(raw, parsed, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
	)
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Claims{UID: parsed.Subject, Admin: parsed.Admin, Email: parsed.Email}, nil
}

// TokenIssuer signs tokens for operators and tests.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, ErrSecretRequired
	}
	if issuer == "" {
		issuer = defaultTokenIssuer
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{secret: secret, issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue signs claims with HS256.
func (i *TokenIssuer) Issue(claims Claims) (string, error) {
	if claims.UID == "" {
		return "", ErrUIDRequired
	}
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		Admin: claims.Admin,
		Email: claims.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})
	return token.SignedString(i.secret)
}
