package alarm

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		want    bool
	}{
		{"event trigger", "anti_theft/daniel/device01/event", "trigger", true},
		{"event subcategory containing trigger", "anti_theft/daniel/device01/event/motion", "pir triggered", true},
		{"sensor open", "anti_theft/daniel/device01/sensor/door", "open", true},
		{"sensor open with suffix", "anti_theft/daniel/device01/sensor/door", "opened", false},
		{"sensor closed", "anti_theft/daniel/device01/sensor/door", "closed", false},
		{"status trigger ignored", "anti_theft/daniel/device01/status", "trigger", false},
		{"command open ignored", "anti_theft/daniel/device01/command", "open", false},
		{"case sensitive", "anti_theft/daniel/device01/event", "TRIGGER", false},
		{"empty payload", "anti_theft/daniel/device01/event", "", false},
		{"foreign namespace", "other/daniel/device01/event", "trigger", false},
		{"too short", "anti_theft/daniel/device01", "trigger", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := Classify(tt.topic, []byte(tt.payload))
			if got != tt.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.topic, tt.payload, got, tt.want)
			}
		})
	}
}

func TestClassify_Parts(t *testing.T) {
	parts, ok := Classify("anti_theft/daniel/device01/event/motion", []byte("trigger"))
	if !ok {
		t.Fatal("Classify() = false, want true")
	}
	if parts.UserID != "daniel" || parts.DeviceID != "device01" {
		t.Errorf("parts = %+v, want user daniel device device01", parts)
	}
	if parts.Category != "event" || parts.Subcategory != "motion" {
		t.Errorf("parts = %+v, want category event subcategory motion", parts)
	}
}

func TestAlarm_Validate(t *testing.T) {
	tests := []struct {
		name    string
		alarm   Alarm
		wantErr bool
	}{
		{"valid", Alarm{UserID: "daniel", DeviceID: "device01", Topic: "anti_theft/daniel/device01/event"}, false},
		{"empty payload allowed", Alarm{UserID: "u", DeviceID: "d", Topic: "t", Payload: ""}, false},
		{"missing topic", Alarm{UserID: "daniel", DeviceID: "device01"}, true},
		{"missing user", Alarm{DeviceID: "device01", Topic: "t"}, true},
		{"missing device", Alarm{UserID: "daniel", Topic: "t"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.alarm.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidAlarm) {
				t.Errorf("Validate() error = %v, want ErrInvalidAlarm", err)
			}
		})
	}
}
