package amqp

import (
	"testing"
	"time"
)

func TestNewChangeMessage(t *testing.T) {
	msg := NewChangeMessage("settlement", "created", "set-1", 2024, 3)

	if msg.Entity != "settlement" || msg.Action != "created" || msg.ID != "set-1" {
		t.Errorf("NewChangeMessage() = %+v", msg)
	}
	if msg.Year != 2024 || msg.Month != 3 {
		t.Errorf("NewChangeMessage() period = %d-%d, want 2024-3", msg.Year, msg.Month)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewChangeMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewChangeMessage() Timestamp should be recent")
	}
}

func TestChangeMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &ChangeMessage{
		Entity:    "order",
		Action:    "deleted",
		ID:        "o7",
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := ChangeMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ChangeMessageFromJSON() error = %v", err)
	}

	if parsedMsg.Entity != msg.Entity || parsedMsg.Action != msg.Action || parsedMsg.ID != msg.ID {
		t.Errorf("Parsed message = %+v, want %+v", parsedMsg, msg)
	}
	if !parsedMsg.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsedMsg.Timestamp, msg.Timestamp)
	}
}

func TestChangeMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"year": "not_a_number"}`)

	_, err := ChangeMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("ChangeMessageFromJSON() should fail with invalid JSON")
	}
}
