package senders

import (
	"context"
	"regexp"

	"github.com/carlmjohnson/requests"
)

var expoTokenPattern = regexp.MustCompile(`^Expo(nent)?PushToken\[[^\]]+\]$`)

type expoSender struct {
	base
}

func (e *expoSender) ValidAddress(address string) bool {
	return expoTokenPattern.MatchString(address)
}

type expoMessage struct {
	To    string            `json:"to"`
	Sound string            `json:"sound"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type expoResponse struct {
	Data []struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"data"`
}

// Send submits one batch to the Expo push endpoint. The caller bounds the
// batch to the gateway's maximum size.
func (e *expoSender) Send(ctx context.Context, addresses []string, payload Payload) error {
	messages := make([]expoMessage, len(addresses))
	for i, addr := range addresses {
		messages[i] = expoMessage{
			To:    addr,
			Sound: "default",
			Title: payload.Title,
			Body:  payload.Body,
			Data:  payload.Data,
		}
	}

	var resp expoResponse
	err := requests.URL(e.cfg.Push.GatewayURL).
		Transport(e.transport).
		BodyJSON(&messages).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		return err
	}

	// Per-message rejections don't fail the batch; the gateway accepted it.
	for i, receipt := range resp.Data {
		if receipt.Status == "" || receipt.Status == "ok" {
			continue
		}
		addr := ""
		if i < len(addresses) {
			addr = addresses[i]
		}
		e.log.Sugar().Warnw("Push rejected by gateway", "address", addr, "status", receipt.Status, "message", receipt.Message)
	}
	return nil
}
