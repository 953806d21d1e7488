package mq

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Ack
	}{
		{"success", nil, AckOK},
		{"transient", errors.New("db down"), AckRequeue},
		{"rejected", Reject(errors.New("bad payload")), AckDeadLetter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.err); got != tt.want {
				t.Errorf("Decide(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestParsePayload_RoundTripThroughEnvelope(t *testing.T) {
	runID, programID := uuid.New(), uuid.New()
	body, err := json.Marshal(NewMessage(MessageTypeRunPending, RunPendingPayload{RunID: runID, ProgramID: programID}))
	if err != nil {
		t.Fatal(err)
	}

	// Так сообщение видит consumer: payload распарсен в map
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != MessageTypeRunPending {
		t.Errorf("type = %q", msg.Type)
	}

	payload, err := ParsePayload[RunPendingPayload](&msg)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if payload.RunID != runID || payload.ProgramID != programID {
		t.Errorf("payload = %+v", payload)
	}
}

func TestParsePayload_Invalid(t *testing.T) {
	msg := &Message{Payload: map[string]any{"run_id": "not-a-uuid"}}
	if _, err := ParsePayload[RunPendingPayload](msg); err == nil {
		t.Error("expected error for malformed run_id")
	}
}
