package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	claims *Claims
	err    error
}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

type codedErr struct{ code string }

func (e *codedErr) Error() string { return "provider rejected token" }
func (e *codedErr) Code() string  { return e.code }

func TestAuthenticateHeaderExtraction(t *testing.T) {
	ver := &fakeVerifier{claims: &Claims{Subject: "u1"}}
	ctx := context.Background()

	cases := []struct {
		name   string
		header string
		kind   Kind
	}{
		{"missing header", "", KindMissingHeader},
		{"wrong scheme", "Basic abc123", KindBadFormat},
		{"lowercase bearer", "bearer abc123", KindBadFormat},
		{"no space", "Bearerabc123", KindBadFormat},
		{"empty token", "Bearer ", KindEmptyToken},
		{"whitespace token", "Bearer    ", KindEmptyToken},
		{"stringified undefined", "Bearer undefined", KindEmptyToken},
		{"stringified null", "Bearer null", KindEmptyToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, aerr := Authenticate(ctx, tc.header, ver)
			require.Nil(t, p)
			require.NotNil(t, aerr)
			require.Equal(t, tc.kind, aerr.Kind)
		})
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	ver := &fakeVerifier{claims: &Claims{
		Subject:       "uid-42",
		Email:         "reader@example.com",
		EmailVerified: true,
		Name:          "Reader",
	}}

	p, aerr := Authenticate(context.Background(), "Bearer sometoken", ver)
	require.Nil(t, aerr)
	require.NotNil(t, p)
	require.Equal(t, "uid-42", p.UID)
	require.Equal(t, "reader@example.com", p.Email)
	require.True(t, p.EmailVerified)
	require.Equal(t, "Reader", p.DisplayName)
}

func TestAuthenticateTrimsToken(t *testing.T) {
	var seen string
	ver := verifierFunc(func(ctx context.Context, raw string) (*Claims, error) {
		seen = raw
		return &Claims{Subject: "u1"}, nil
	})

	_, aerr := Authenticate(context.Background(), "Bearer  tok-with-space ", ver)
	require.Nil(t, aerr)
	require.Equal(t, "tok-with-space", seen)
}

func TestAuthenticateVerificationFailure(t *testing.T) {
	ver := &fakeVerifier{err: errors.New("token expired")}
	p, aerr := Authenticate(context.Background(), "Bearer expired", ver)
	require.Nil(t, p)
	require.Equal(t, KindVerificationFailed, aerr.Kind)
	require.Contains(t, aerr.Message, "token expired")
}

func TestAuthenticateSurfacesProviderCode(t *testing.T) {
	ver := &fakeVerifier{err: &codedErr{code: "auth/id-token-revoked"}}
	_, aerr := Authenticate(context.Background(), "Bearer revoked", ver)
	require.Equal(t, KindVerificationFailed, aerr.Kind)
	require.Equal(t, "auth/id-token-revoked", aerr.Code)
	require.Contains(t, aerr.Error(), "auth/id-token-revoked")
}

func TestAuthenticateMissingSubject(t *testing.T) {
	ver := &fakeVerifier{claims: &Claims{Email: "no-sub@example.com"}}
	p, aerr := Authenticate(context.Background(), "Bearer odd", ver)
	require.Nil(t, p)
	require.Equal(t, KindInvalidClaims, aerr.Kind)
}

type verifierFunc func(ctx context.Context, raw string) (*Claims, error)

func (f verifierFunc) Verify(ctx context.Context, raw string) (*Claims, error) {
	return f(ctx, raw)
}
