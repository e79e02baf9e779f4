package service

import (
	"strconv"

	"whatsapp-cloud-relay/internal/config"
	"whatsapp-cloud-relay/pkg/logger"
)

// Verifier handles the one-time GET webhook subscription handshake
type Verifier struct {
	config *config.WhatsAppConfig
	logger *logger.Logger
}

// NewVerifier creates a new webhook verifier
func NewVerifier(cfg *config.WhatsAppConfig, log *logger.Logger) *Verifier {
	return &Verifier{
		config: cfg,
		logger: log,
	}
}

// Verify validates a subscription handshake and returns the challenge to
// echo. Fails with ErrVerifyTokenNotConfigured when no token is set and with
// ErrVerificationFailed when the mode or token does not match.
func (v *Verifier) Verify(mode, token, challenge string) (string, error) {
	if v.config.VerifyToken == "" {
		v.logger.Error("Webhook verification failed: no verify token configured")
		return "", ErrVerifyTokenNotConfigured
	}

	if mode != "subscribe" || token != v.config.VerifyToken {
		v.logger.Warn("Webhook verification failed: mode or token mismatch", "mode", mode)
		return "", ErrVerificationFailed
	}

	reply := NormalizeChallenge(challenge)
	v.logger.Info("Webhook verified successfully", "challenge", reply)
	return reply, nil
}

// NormalizeChallenge returns a fully numeric challenge in its canonical
// numeric form and any other challenge unchanged. The provider expects a bare
// number in the response body when the challenge is numeric, not a quoted
// string.
func NormalizeChallenge(challenge string) string {
	if n, err := strconv.ParseInt(challenge, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	if f, err := strconv.ParseFloat(challenge, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return challenge
}
