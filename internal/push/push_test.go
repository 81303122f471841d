package push

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestReminderPayloadCountsRemaining(t *testing.T) {
	p := reminderPayload(3, "Meditate")
	if !strings.Contains(p.Body, "3 habits left") {
		t.Errorf("body = %q, want remaining count", p.Body)
	}
	if p.Tag != "daily-reminder" {
		t.Errorf("tag = %q, want daily-reminder", p.Tag)
	}
}

func TestReminderPayloadNamesLastHabit(t *testing.T) {
	p := reminderPayload(1, "Meditate")
	if !strings.Contains(p.Body, "Meditate") {
		t.Errorf("body = %q, want the habit named", p.Body)
	}
}

func TestNewServiceDefaultsSubscriber(t *testing.T) {
	svc := NewService(Config{VAPIDPublicKey: "pub", VAPIDPrivateKey: "priv"})
	if svc.cfg.Subscriber != defaultSubscriber {
		t.Errorf("subscriber = %q, want default", svc.cfg.Subscriber)
	}

	custom := NewService(Config{Subscriber: "mailto:me@example.com"})
	if custom.cfg.Subscriber != "mailto:me@example.com" {
		t.Errorf("subscriber = %q, want configured value kept", custom.cfg.Subscriber)
	}
}

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	// Public key is a base64url-encoded 65-byte uncompressed P-256 point.
	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}

	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privBytes) != 32 {
		t.Errorf("private key length = %d, want 32", len(privBytes))
	}

	pub2, _, _ := GenerateVAPIDKeys()
	if pub == pub2 {
		t.Error("expected different keys on second generation")
	}
}
