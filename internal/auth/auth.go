package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Claims are the provider-signed attributes decoded from a verified token.
type Claims struct {
	Subject       string    `json:"sub"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	Name          string    `json:"name,omitempty"`
	Expiry        time.Time `json:"-"`
	Issuer        string    `json:"iss"`
	Audience      []string  `json:"aud"`
}

// Principal is the verified identity of the caller for one request. It is
// never constructed without a UID: verification failure yields an *Error.
type Principal struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	DisplayName   string `json:"displayName"`
}

// Verifier checks a raw bearer token against the identity provider.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}

// Kind classifies authentication failures.
type Kind int

const (
	KindMissingHeader Kind = iota
	KindBadFormat
	KindEmptyToken
	KindVerificationFailed
	KindInvalidClaims
)

// Error is a typed authentication failure. Every kind maps to HTTP 401; an
// uninitialized verifier is a server configuration problem handled before
// Authenticate is reached.
type Error struct {
	Kind    Kind
	Code    string // provider error code, when one was surfaced
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

const bearerPrefix = "Bearer "

// ExtractToken pulls the bearer token out of an Authorization header value.
//
// The scheme prefix is matched case-sensitively with a single space. The
// literal strings "undefined" and "null" are rejected as empty tokens; web
// clients that stringify a missing credential produce exactly those values.
func ExtractToken(header string) (string, *Error) {
	if header == "" {
		return "", &Error{Kind: KindMissingHeader, Message: "missing authorization header"}
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", &Error{Kind: KindBadFormat, Message: "invalid token format"}
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" || token == "undefined" || token == "null" {
		return "", &Error{Kind: KindEmptyToken, Message: "empty token"}
	}
	return token, nil
}

// VerificationError wraps a verifier failure, surfacing the provider code
// when the error carries one.
func VerificationError(err error) *Error {
	return &Error{Kind: KindVerificationFailed, Code: providerCode(err), Message: err.Error()}
}

// PrincipalFromClaims builds the request principal from verified claims.
// A claim set without a subject never yields a Principal.
func PrincipalFromClaims(claims *Claims) (*Principal, *Error) {
	if claims.Subject == "" {
		return nil, &Error{Kind: KindInvalidClaims, Message: "token verified but contains no subject"}
	}
	return &Principal{
		UID:           claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		DisplayName:   claims.Name,
	}, nil
}

// Authenticate extracts and verifies the bearer token from an Authorization
// header value and returns the caller's Principal. A single verification
// failure is terminal for the request; there are no retries.
func Authenticate(ctx context.Context, header string, ver Verifier) (*Principal, *Error) {
	token, aerr := ExtractToken(header)
	if aerr != nil {
		return nil, aerr
	}
	claims, err := ver.Verify(ctx, token)
	if err != nil {
		return nil, VerificationError(err)
	}
	return PrincipalFromClaims(claims)
}

// providerCode surfaces a structured code when the verifier error carries one.
func providerCode(err error) string {
	type coder interface{ Code() string }
	if c, ok := err.(coder); ok {
		return c.Code()
	}
	return ""
}
