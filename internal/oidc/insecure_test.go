package oidc

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func unsigned(payload string) string {
	enc := base64.RawURLEncoding.EncodeToString
	return enc([]byte(`{"alg":"none"}`)) + "." + enc([]byte(payload)) + "."
}

func TestInsecureVerifier_DecodesClaims(t *testing.T) {
	tok, err := NewInsecureVerifier().Verify(context.Background(), unsigned(`{"sub":"kc-1","email":"kc@example.com"}`))
	require.NoError(t, err)

	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "kc-1", claims["sub"])
	require.Equal(t, "kc@example.com", claims["email"])
}

func TestInsecureVerifier_Rejects(t *testing.T) {
	v := NewInsecureVerifier()
	for name, raw := range map[string]string{
		"one segment": "abc",
		"bad base64":  "x.!!!.y",
		"not json":    "x." + base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".",
		"no subject":  unsigned(`{"email":"a@b.c"}`),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), raw)
			require.Error(t, err)
		})
	}
}
