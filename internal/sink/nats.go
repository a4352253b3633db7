package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/telhawk-systems/runbridge/internal/logging"
	"github.com/telhawk-systems/runbridge/internal/messaging"
	"github.com/telhawk-systems/runbridge/internal/models"
	"github.com/telhawk-systems/runbridge/internal/sensor"
)

// MaterializationMessage is published once per event.
type MaterializationMessage struct {
	Sensor string       `json:"sensor"`
	TickID string       `json:"tick_id,omitempty"`
	Event  models.Event `json:"event"`
}

// CheckRequestMessage asks the downstream orchestrator to run asset checks.
type CheckRequestMessage struct {
	Sensor      string                 `json:"sensor"`
	TickID      string                 `json:"tick_id,omitempty"`
	Checks      []models.AssetCheckKey `json:"checks"`
	RequestedAt time.Time              `json:"requested_at"`
}

// NATSSink publishes events and check requests to the message bus.
type NATSSink struct {
	publisher messaging.Publisher
	sensor    string
	now       func() time.Time
}

func NewNATSSink(publisher messaging.Publisher, sensorName string) *NATSSink {
	return &NATSSink{publisher: publisher, sensor: sensorName, now: time.Now}
}

func (s *NATSSink) Name() string {
	return "nats"
}

func (s *NATSSink) Emit(ctx context.Context, result *sensor.Result) error {
	tickID := logging.GetTickID(ctx)

	for _, e := range result.Events {
		data, err := json.Marshal(MaterializationMessage{Sensor: s.sensor, TickID: tickID, Event: e})
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", e.ID, err)
		}
		msg := &messaging.Message{
			Subject:   messaging.SubjectAssetsMaterialized,
			Data:      data,
			Metadata:  s.headers(tickID, e.ID),
			Timestamp: s.now(),
		}
		if err := s.publisher.PublishMsg(ctx, msg); err != nil {
			return fmt.Errorf("failed to publish event %s: %w", e.ID, err)
		}
	}

	if len(result.CheckRequest) > 0 {
		if err := s.publishCheckRequest(ctx, tickID, result.CheckRequest); err != nil {
			return err
		}
	}

	// Publishes are buffered client side; the cursor must not move until
	// the broker has them.
	if err := s.publisher.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush published events: %w", err)
	}
	return nil
}

func (s *NATSSink) publishCheckRequest(ctx context.Context, tickID string, checks []models.AssetCheckKey) error {
	req := CheckRequestMessage{
		Sensor:      s.sensor,
		TickID:      tickID,
		Checks:      checks,
		RequestedAt: s.now().UTC(),
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal check request: %w", err)
	}
	msg := &messaging.Message{
		Subject:   messaging.SubjectChecksRequested,
		Data:      data,
		Metadata:  s.headers(tickID, ""),
		Timestamp: req.RequestedAt,
	}
	if err := s.publisher.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish check request: %w", err)
	}
	return nil
}

func (s *NATSSink) headers(tickID, eventID string) map[string]string {
	h := map[string]string{messaging.HeaderSensor: s.sensor}
	if tickID != "" {
		h[messaging.HeaderTickID] = tickID
	}
	if eventID != "" {
		h[messaging.HeaderEventID] = eventID
	}
	return h
}
