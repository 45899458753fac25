package senders

import (
	"context"
	"net/http"

	"github.com/fiffu/noticewatch/config"
	"github.com/fiffu/noticewatch/lib/models"
	"go.uber.org/zap"
)

// Payload is one rendered notification.
type Payload struct {
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers one payload to a batch of same-platform addresses.
// Delivery is at-least-once; the transport may still drop or delay.
type Sender interface {
	ValidAddress(address string) bool
	Send(ctx context.Context, addresses []string, payload Payload) error
}

type Registry map[string]Sender

func NewRegistry(log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Registry {
	base := base{log, cfg, transport}
	return Registry{
		models.PlatformExpo:  &expoSender{base},
		models.PlatformEmail: &mailgunSender{base},
	}
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}
