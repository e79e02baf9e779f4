package service

import (
	"errors"
	"testing"

	"whatsapp-cloud-relay/internal/config"
	"whatsapp-cloud-relay/pkg/logger"
)

func testVerifier(token string) *Verifier {
	cfg := &config.WhatsAppConfig{VerifyToken: token}
	return NewVerifier(cfg, logger.New("ERROR"))
}

func TestVerifyNoTokenConfigured(t *testing.T) {
	v := testVerifier("")

	_, err := v.Verify("subscribe", "abc", "123")
	if !errors.Is(err, ErrVerifyTokenNotConfigured) {
		t.Fatalf("expected ErrVerifyTokenNotConfigured, got %v", err)
	}
}

func TestVerifyNoTokenConfiguredEvenWithEmptyQuery(t *testing.T) {
	v := testVerifier("")

	_, err := v.Verify("", "", "")
	if !errors.Is(err, ErrVerifyTokenNotConfigured) {
		t.Fatalf("expected ErrVerifyTokenNotConfigured, got %v", err)
	}
}

func TestVerifyModeMismatch(t *testing.T) {
	v := testVerifier("abc")

	_, err := v.Verify("unsubscribe", "abc", "123")
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifyTokenMismatch(t *testing.T) {
	v := testVerifier("abc")

	_, err := v.Verify("subscribe", "wrong", "123")
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifySuccess(t *testing.T) {
	v := testVerifier("abc")

	reply, err := v.Verify("subscribe", "abc", "1158201444")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "1158201444" {
		t.Fatalf("expected challenge 1158201444, got %q", reply)
	}
}

func TestNormalizeChallenge(t *testing.T) {
	cases := []struct {
		name      string
		challenge string
		want      string
	}{
		{"plain integer", "1158201444", "1158201444"},
		{"leading zeros dropped", "0123", "123"},
		{"negative integer", "-42", "-42"},
		{"exponent form", "1e3", "1000"},
		{"decimal", "1.5", "1.5"},
		{"non-numeric unchanged", "token-xyz", "token-xyz"},
		{"mixed unchanged", "123abc", "123abc"},
		{"empty unchanged", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeChallenge(tc.challenge); got != tc.want {
				t.Fatalf("NormalizeChallenge(%q) = %q, want %q", tc.challenge, got, tc.want)
			}
		})
	}
}
