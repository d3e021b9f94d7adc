package device

import (
	"errors"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input   string
		want    Command
		wantErr bool
	}{
		{"ARM", CommandArm, false},
		{"DISARM", CommandDisarm, false},
		{"LOCATE", CommandLocate, false},
		{"arm", "", true},
		{" ARM", "", true},
		{"ARM\n", "", true},
		{"", "", true},
		{"REBOOT", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCommand(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCommand(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnknownCommand) {
				t.Errorf("ParseCommand(%q) error = %v, want ErrUnknownCommand", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCommand(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMatchPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Command
		wantOK  bool
	}{
		{"exact arm", "ARM", CommandArm, true},
		{"exact disarm", "DISARM", CommandDisarm, true},
		{"exact locate", "LOCATE", CommandLocate, true},
		{"empty matches arm", "", CommandArm, true},
		{"arm prefix", "AR", CommandArm, true},
		{"disarm prefix", "DIS", CommandDisarm, true},
		{"locate prefix", "LOC", CommandLocate, true},
		{"single D", "D", CommandDisarm, true},
		{"longer than command", "ARMED", "", false},
		{"trailing newline", "ARM\n", "", false},
		{"lowercase", "arm", "", false},
		{"unknown", "REBOOT", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchPayload(tt.payload)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("MatchPayload(%q) = (%q, %v), want (%q, %v)", tt.payload, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		cmd    Command
		want   string
		wantOK bool
	}{
		{CommandArm, StatusArmed, true},
		{CommandDisarm, StatusDisarmed, true},
		{CommandLocate, "", false},
		{Command("BOGUS"), "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.cmd), func(t *testing.T) {
			got, ok := StatusFor(tt.cmd)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("StatusFor(%q) = (%q, %v), want (%q, %v)", tt.cmd, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
