package nats

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/runbridge/internal/messaging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, nats.DefaultURL, cfg.URL)
	assert.Equal(t, "runbridge", cfg.Name)
	assert.Equal(t, -1, cfg.MaxReconnects)
	assert.Equal(t, 2*time.Second, cfg.ReconnectWait)
}

func TestNewClient_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "nats://127.0.0.1:1"
	cfg.Timeout = 200 * time.Millisecond

	client, err := NewClient(cfg, nil)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}

func TestToNATS(t *testing.T) {
	msg := &messaging.Message{
		Subject:  messaging.SubjectAssetsMaterialized,
		Data:     []byte(`{"id":"1"}`),
		Metadata: map[string]string{messaging.HeaderEventID: "1", messaging.HeaderSensor: "airflow"},
	}

	natsMsg := toNATS(msg)
	assert.Equal(t, msg.Subject, natsMsg.Subject)
	assert.Equal(t, msg.Data, natsMsg.Data)
	assert.Equal(t, "1", natsMsg.Header.Get(messaging.HeaderEventID))
	assert.Equal(t, "airflow", natsMsg.Header.Get(messaging.HeaderSensor))

	bare := toNATS(&messaging.Message{Subject: "s"})
	assert.Nil(t, bare.Header)
}
