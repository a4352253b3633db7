package messaging

import (
	"context"
	"testing"
)

type stubPublisher struct {
	connected bool
}

func (s *stubPublisher) Publish(ctx context.Context, subject string, data []byte) error { return nil }
func (s *stubPublisher) Flush(ctx context.Context) error                                { return nil }
func (s *stubPublisher) PublishMsg(ctx context.Context, msg *Message) error             { return nil }
func (s *stubPublisher) IsConnected() bool                                              { return s.connected }
func (s *stubPublisher) Close() error                                                   { return nil }

func TestCheckPublisherHealth(t *testing.T) {
	tests := []struct {
		name          string
		publisher     Publisher
		wantConnected bool
		wantError     bool
	}{
		{"nil publisher", nil, false, true},
		{"disconnected", &stubPublisher{connected: false}, false, true},
		{"connected", &stubPublisher{connected: true}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := CheckPublisherHealth(tt.publisher)
			if status.Connected != tt.wantConnected {
				t.Errorf("Connected = %v, want %v", status.Connected, tt.wantConnected)
			}
			if (status.Error != "") != tt.wantError {
				t.Errorf("Error = %q, wantError %v", status.Error, tt.wantError)
			}
		})
	}
}
