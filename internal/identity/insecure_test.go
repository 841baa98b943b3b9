package identity

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func makeUnsignedToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	body, err := json.Marshal(claims)
	require.NoError(t, err)
	payload := base64.RawURLEncoding.EncodeToString(body)
	return header + "." + payload + "."
}

func TestInsecureVerifierParsesClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	tok := makeUnsignedToken(t, map[string]interface{}{
		"sub":            "uid-1",
		"email":          "a@example.com",
		"email_verified": true,
		"name":           "A",
		"iss":            "https://issuer.example.com",
		"aud":            "digest-app",
		"exp":            exp,
	})

	c, err := NewInsecureVerifier().Verify(context.Background(), tok)
	require.NoError(t, err)
	require.Equal(t, "uid-1", c.Subject)
	require.Equal(t, "a@example.com", c.Email)
	require.True(t, c.EmailVerified)
	require.Equal(t, []string{"digest-app"}, c.Audience)
	require.Equal(t, exp, c.Expiry.Unix())
}

func TestInsecureVerifierAudienceList(t *testing.T) {
	tok := makeUnsignedToken(t, map[string]interface{}{
		"sub": "uid-2",
		"aud": []string{"digest-app", "other"},
	})

	c, err := NewInsecureVerifier().Verify(context.Background(), tok)
	require.NoError(t, err)
	require.Equal(t, []string{"digest-app", "other"}, c.Audience)
}

func TestInsecureVerifierRejectsGarbage(t *testing.T) {
	_, err := NewInsecureVerifier().Verify(context.Background(), "not-a-jwt")
	require.Error(t, err)

	_, err = NewInsecureVerifier().Verify(context.Background(), "a.!!notbase64!!.c")
	require.Error(t, err)
}
