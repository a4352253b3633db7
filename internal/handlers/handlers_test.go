package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/runbridge/internal/messaging"
	"github.com/telhawk-systems/runbridge/internal/runner"
)

type fixedStatus struct {
	status runner.Status
}

func (f fixedStatus) Status() runner.Status { return f.status }

type stubPublisher struct {
	connected bool
}

func (s *stubPublisher) Publish(ctx context.Context, subject string, data []byte) error { return nil }
func (s *stubPublisher) Flush(ctx context.Context) error                                { return nil }
func (s *stubPublisher) PublishMsg(ctx context.Context, msg *messaging.Message) error   { return nil }
func (s *stubPublisher) IsConnected() bool                                              { return s.connected }
func (s *stubPublisher) Close() error                                                   { return nil }

func TestHealth(t *testing.T) {
	h := NewHandler(fixedStatus{}, nil)

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestReady(t *testing.T) {
	healthy := runner.Status{Sensor: "airflow", Ticks: 2}

	tests := []struct {
		name       string
		status     runner.Status
		publisher  messaging.Publisher
		wantCode   int
		wantReason string
	}{
		{"no ticks yet", runner.Status{}, nil, http.StatusServiceUnavailable, "no tick completed yet"},
		{"last tick failed", runner.Status{Ticks: 1, ConsecutiveFailures: 1, LastError: "boom"}, nil, http.StatusServiceUnavailable, "boom"},
		{"healthy without broker", healthy, nil, http.StatusOK, ""},
		{"broker disconnected", healthy, &stubPublisher{connected: false}, http.StatusServiceUnavailable, "not connected to message broker"},
		{"healthy with broker", healthy, &stubPublisher{connected: true}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(fixedStatus{status: tt.status}, tt.publisher)

			rr := httptest.NewRecorder()
			h.Ready(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.wantCode, rr.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.wantReason, body["reason"])
		})
	}
}

func TestStatus(t *testing.T) {
	last := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h := NewHandler(fixedStatus{status: runner.Status{Sensor: "airflow", Ticks: 5, LastTick: &last, LastSuccess: &last}}, nil)

	rr := httptest.NewRecorder()
	h.Status(rr, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got runner.Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "airflow", got.Sensor)
	assert.Equal(t, 5, got.Ticks)
	require.NotNil(t, got.LastTick)
	assert.True(t, last.Equal(*got.LastTick))

	h = NewHandler(fixedStatus{status: runner.Status{Sensor: "airflow"}}, nil)
	rr = httptest.NewRecorder()
	h.Status(rr, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	var raw map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "last_tick")
	assert.NotContains(t, raw, "last_success")

	rr = httptest.NewRecorder()
	h.Status(rr, httptest.NewRequest(http.MethodPost, "/api/v1/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
