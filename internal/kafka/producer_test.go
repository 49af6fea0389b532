package kafka

import (
	"context"
	"encoding/json"
	"testing"
)

func TestNewProducer_DisabledWithoutBrokers(t *testing.T) {
	tests := []struct {
		name    string
		brokers []string
		topic   string
	}{
		{name: "no brokers", brokers: nil, topic: "live-requests"},
		{name: "no topic", brokers: []string{"localhost:9092"}, topic: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProducer(tt.brokers, tt.topic, nil)
			if p.Enabled() {
				t.Fatal("Enabled() = true, want false")
			}
			// no-op, must not panic
			p.ProduceLiveRequestEvent(context.Background(), EventLiveRequestCreated, map[string]interface{}{"live_request_id": 1})
			if err := p.Close(); err != nil {
				t.Errorf("Close() = %v", err)
			}
		})
	}
}

func TestNewProducer_Enabled(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "live-requests", nil)
	defer p.Close()
	if !p.Enabled() {
		t.Fatal("Enabled() = false")
	}
}

func TestEncodeEvent(t *testing.T) {
	body, err := EncodeEvent(EventLiveRequestStarted, map[string]interface{}{
		"live_request_id": 7,
		"status":          "ACTIVE",
		"event":           "spoofed",
	})
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["event"] != EventLiveRequestStarted {
		t.Errorf("event = %v, want %q", got["event"], EventLiveRequestStarted)
	}
	if got["status"] != "ACTIVE" {
		t.Errorf("status = %v", got["status"])
	}
	if got["live_request_id"] != float64(7) {
		t.Errorf("live_request_id = %v", got["live_request_id"])
	}
}
