package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/ritualhq/ritual/internal/model"
)

// ErrExpired is returned when a push subscription is no longer valid (410 Gone).
var ErrExpired = errors.New("push subscription expired")

// defaultSubscriber is the VAPID contact when none is configured; push
// services require a mailto or https contact address.
const defaultSubscriber = "mailto:noreply@ritual.app"

// reminderTTL keeps an undelivered reminder queued until the evening is
// over; a nudge about today is useless tomorrow.
const reminderTTL = 6 * 3600

// Payload is the notification JSON the service worker displays.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// reminderPayload builds the daily nudge. With exactly one habit left it
// names it; otherwise it counts what remains.
func reminderPayload(remaining int, lastTitle string) Payload {
	body := fmt.Sprintf("You have %d habits left to log today", remaining)
	if remaining == 1 {
		body = fmt.Sprintf("Don't break the streak: %s", lastTitle)
	}
	return Payload{
		Title: "Habit Reminder",
		Body:  body,
		URL:   "/",
		Tag:   "daily-reminder",
	}
}

// Config holds web push configuration read from the environment.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
}

// Service sends web push notifications to subscribed devices.
type Service struct {
	cfg Config
}

func NewService(cfg Config) *Service {
	if cfg.Subscriber == "" {
		cfg.Subscriber = defaultSubscriber
	}
	return &Service{cfg: cfg}
}

// VAPIDPublicKey returns the public key clients subscribe with.
func (s *Service) VAPIDPublicKey() string {
	return s.cfg.VAPIDPublicKey
}

// Send pushes one payload to one device. The payload's Tag doubles as the
// push-service Topic, so a device that was offline all evening wakes up to
// a single coalesced reminder instead of a backlog.
func (s *Service) Send(sub *model.PushSubscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotification(data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		Subscriber:      s.cfg.Subscriber,
		Topic:           payload.Tag,
		Urgency:         webpush.UrgencyNormal,
		TTL:             reminderTTL,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}

// GenerateVAPIDKeys creates a fresh key pair for first-time setup.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("generate vapid keys: %w", err)
	}
	return publicKey, privateKey, nil
}
