package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"whatsapp-cloud-relay/internal/config"
	"whatsapp-cloud-relay/internal/service"
	"whatsapp-cloud-relay/internal/sink"
	"whatsapp-cloud-relay/pkg/logger"
)

type stubReceipter struct{}

func (stubReceipter) MarkRead(ctx context.Context, messageID string) error { return nil }

type stubStore struct{}

func (stubStore) MarkSeen(messageID, sender string) (bool, error) { return false, nil }

type recordingSink struct {
	events []sink.MessageEvent
}

func (s *recordingSink) Trigger(ctx context.Context, event sink.MessageEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func newTestHandler(verifyToken, appSecret string) (*WebhookHandler, *recordingSink) {
	log := logger.New("ERROR")
	cfg := &config.WhatsAppConfig{VerifyToken: verifyToken}
	triggerSink := &recordingSink{}
	verifier := service.NewVerifier(cfg, log)
	dispatcher := service.NewDispatcher(stubReceipter{}, stubStore{}, triggerSink, log)
	return NewWebhookHandler(verifier, dispatcher, appSecret, log), triggerSink
}

func verificationRequest(mode, token, challenge string) *http.Request {
	q := url.Values{}
	q.Set("hub.mode", mode)
	q.Set("hub.verify_token", token)
	q.Set("hub.challenge", challenge)
	return httptest.NewRequest(http.MethodGet, "/webhook?"+q.Encode(), nil)
}

func TestHandshakeEchoesNumericChallenge(t *testing.T) {
	h, _ := newTestHandler("abc", "")

	rec := httptest.NewRecorder()
	h.Handle(rec, verificationRequest("subscribe", "abc", "1158201444"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "1158201444" {
		t.Fatalf("expected bare numeric challenge, got %q", body)
	}
}

func TestHandshakeNoTokenConfiguredIs500(t *testing.T) {
	h, _ := newTestHandler("", "")

	rec := httptest.NewRecorder()
	h.Handle(rec, verificationRequest("subscribe", "abc", "123"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHandshakeTokenMismatchIs403(t *testing.T) {
	h, _ := newTestHandler("abc", "")

	rec := httptest.NewRecorder()
	h.Handle(rec, verificationRequest("subscribe", "wrong", "123"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestEventDeliveryAcknowledged(t *testing.T) {
	h, triggerSink := newTestHandler("abc", "")

	body := `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"messages":[{"from":"15551234","id":"wamid.X","text":{"body":"hi"}}]}}]}]}`
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "EVENT_RECEIVED" {
		t.Fatalf("expected EVENT_RECEIVED, got %q", got)
	}
	if len(triggerSink.events) != 1 {
		t.Fatalf("expected 1 trigger event, got %d", len(triggerSink.events))
	}
	if e := triggerSink.events[0]; e.MessageText != "hi" || e.SenderNumber != "15551234" {
		t.Fatalf("unexpected trigger event: %+v", e)
	}
}

func TestNonWhatsAppDeliveryIgnored(t *testing.T) {
	h, triggerSink := newTestHandler("abc", "")

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"object":"page"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "Ignored" {
		t.Fatalf("expected Ignored, got %q", got)
	}
	if len(triggerSink.events) != 0 {
		t.Fatalf("trigger sink was invoked %d times", len(triggerSink.events))
	}
}

func TestMalformedDeliveryStillAcknowledged(t *testing.T) {
	h, _ := newTestHandler("abc", "")

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"object":`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "OK" {
		t.Fatalf("expected OK, got %q", got)
	}
}

func TestSignatureRequiredWhenSecretConfigured(t *testing.T) {
	h, triggerSink := newTestHandler("abc", "s3cret")

	body := `{"object":"whatsapp_business_account","entry":[]}`
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without signature, got %d", rec.Code)
	}
	if len(triggerSink.events) != 0 {
		t.Fatalf("trigger sink was invoked %d times", len(triggerSink.events))
	}
}

func TestValidSignatureAccepted(t *testing.T) {
	h, _ := newTestHandler("abc", "s3cret")

	body := `{"object":"whatsapp_business_account","entry":[]}`
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write([]byte(body))
	sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", sig)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "EVENT_RECEIVED" {
		t.Fatalf("expected EVENT_RECEIVED, got %q", got)
	}
}

func TestInvalidSignatureRejected(t *testing.T) {
	h, _ := newTestHandler("abc", "s3cret")

	body := `{"object":"whatsapp_business_account","entry":[]}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUnsupportedMethodRejected(t *testing.T) {
	h, _ := newTestHandler("abc", "")

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodDelete, "/webhook", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
