package identity

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/aidigest/aidigest/backend/go-services/internal/auth"
)

// InsecureVerifier parses token claims WITHOUT validating signatures.
// Only intended for local/integration tests under explicit opt-in via env var.
type InsecureVerifier struct{}

func NewInsecureVerifier() *InsecureVerifier { return &InsecureVerifier{} }

func (v *InsecureVerifier) Verify(ctx context.Context, raw string) (*auth.Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return nil, errors.New("invalid token format")
	}
	payload := parts[1]
	// pad base64
	if m := len(payload) % 4; m != 0 {
		payload += strings.Repeat("=", 4-m)
	}
	data, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	var raws map[string]interface{}
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}

	c := &auth.Claims{}
	c.Subject, _ = raws["sub"].(string)
	c.Email, _ = raws["email"].(string)
	c.EmailVerified, _ = raws["email_verified"].(bool)
	c.Name, _ = raws["name"].(string)
	c.Issuer, _ = raws["iss"].(string)
	switch aud := raws["aud"].(type) {
	case string:
		c.Audience = []string{aud}
	case []interface{}:
		for _, a := range aud {
			if s, ok := a.(string); ok {
				c.Audience = append(c.Audience, s)
			}
		}
	}
	if exp, ok := raws["exp"].(float64); ok {
		c.Expiry = time.Unix(int64(exp), 0)
	}
	return c, nil
}
