// Package token signs and verifies the compact access tokens used for API
// authentication.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalid covers malformed tokens, bad signatures and unexpected
// signing algorithms. Verification never distinguishes between those
// shapes towards the caller.
var ErrInvalid = errors.New("token: invalid")

// Claims is the signed payload carried by an access token.
//
// Tokens carry no expiry claim. A session ends when the user's stored
// token_version is bumped, which invalidates every token issued with the
// previous version (see internal/auth).
type Claims struct {
	UserID       int64  `json:"uid"`
	Nickname     string `json:"nick"`
	Role         string `json:"role"`
	FirstName    string `json:"fnm,omitempty"`
	LastName     string `json:"lnm,omitempty"`
	FullName     string `json:"name,omitempty"`
	TokenVersion int64  `json:"tv"`
	jwt.RegisteredClaims
}

// Codec signs and verifies access tokens using HS256.
type Codec struct {
	secret []byte
	issuer string
}

// NewCodec constructs a Codec. The secret must be long enough to make
// brute-forcing the HMAC impractical.
func NewCodec(secret, issuer string) (*Codec, error) {
	if len(secret) < 32 {
		return nil, errors.New("token: secret must be at least 32 bytes")
	}
	return &Codec{secret: []byte(secret), issuer: issuer}, nil
}

// Issue signs the claims and returns the compact token string. Registered
// claims are filled in here; callers only provide identity fields.
func (c *Codec) Issue(claims Claims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:   c.issuer,
		Subject:  strconv.FormatInt(claims.UserID, 10),
		IssuedAt: jwt.NewNumericDate(now),
		ID:       uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks the signature and structure of a token string and returns
// its claims. Any failure is reported as ErrInvalid.
func (c *Codec) Verify(raw string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
	)
	parsed, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, ErrInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}
