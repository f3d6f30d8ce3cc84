package services

import (
	"context"
	"log"
	"strings"

	"firebase.google.com/go/messaging"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/metrics"
)

// PushService delivers FCM notifications. Delivery is best-effort: failures
// are logged and counted, never surfaced to callers. A nil Client turns the
// service into a no-op, which is how local environments run.
type PushService struct {
	Client   *messaging.Client
	Metrics  metrics.Sink
	ErrorLog *log.Logger
}

func (s *PushService) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) {
	tokens = dedupeTokens(tokens)
	if s.Client == nil || len(tokens) == 0 {
		return
	}

	s.incr(ctx, "push.attempted", int64(len(tokens)))

	var delivered, failed int64
	for _, token := range tokens {
		message := &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
			Android: &messaging.AndroidConfig{
				Priority: "high",
				Notification: &messaging.AndroidNotification{
					ChannelID: "service_requests_channel",
				},
			},
			APNS: &messaging.APNSConfig{
				Headers: map[string]string{
					"apns-priority": "10",
				},
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{
						Alert: &messaging.ApsAlert{
							Title: title,
							Body:  body,
						},
						Sound: "default",
					},
				},
			},
		}
		if _, err := s.Client.Send(ctx, message); err != nil {
			failed++
			s.errorf("push delivery failed: %v", err)
			continue
		}
		delivered++
	}

	s.incr(ctx, "push.delivered", delivered)
	s.incr(ctx, "push.failed", failed)
}

func dedupeTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

func (s *PushService) incr(ctx context.Context, name string, delta int64) {
	if s.Metrics == nil || delta == 0 {
		return
	}
	s.Metrics.Incr(ctx, name, delta)
}

func (s *PushService) errorf(format string, args ...interface{}) {
	if s.ErrorLog != nil {
		s.ErrorLog.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
