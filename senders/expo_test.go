package senders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fiffu/noticewatch/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newExpoSender(t *testing.T, gatewayURL string) *expoSender {
	t.Helper()

	cfg := &config.Config{}
	cfg.Push.GatewayURL = gatewayURL
	return &expoSender{base{zap.NewNop(), cfg, http.DefaultTransport}}
}

func TestExpoValidAddress(t *testing.T) {
	e := newExpoSender(t, "")

	assert.True(t, e.ValidAddress("ExponentPushToken[abc123]"))
	assert.True(t, e.ValidAddress("ExpoPushToken[abc123]"))

	assert.False(t, e.ValidAddress(""))
	assert.False(t, e.ValidAddress("abc123"))
	assert.False(t, e.ValidAddress("ExponentPushToken[]"))
	assert.False(t, e.ValidAddress("user@example.com"))
}

func TestExpoSend(t *testing.T) {
	var received []expoMessage
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"data": [{"status": "ok"}, {"status": "error", "message": "DeviceNotRegistered"}]}`))
	}))
	t.Cleanup(gateway.Close)

	e := newExpoSender(t, gateway.URL)
	err := e.Send(context.Background(),
		[]string{"ExponentPushToken[aaa]", "ExponentPushToken[bbb]"},
		Payload{Title: "공지", Body: "내용을 확인해 주세요.", Data: map[string]string{"noticeId": "123"}},
	)
	require.NoError(t, err, "per-message rejections must not fail the batch")

	require.Len(t, received, 2)
	assert.Equal(t, "ExponentPushToken[aaa]", received[0].To)
	assert.Equal(t, "default", received[0].Sound)
	assert.Equal(t, "공지", received[0].Title)
	assert.Equal(t, "내용을 확인해 주세요.", received[0].Body)
	assert.Equal(t, "123", received[0].Data["noticeId"])
}

func TestExpoSend_GatewayFailure(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(gateway.Close)

	e := newExpoSender(t, gateway.URL)
	err := e.Send(context.Background(), []string{"ExponentPushToken[aaa]"}, Payload{Title: "공지", Body: "본문"})
	assert.Error(t, err)
}
