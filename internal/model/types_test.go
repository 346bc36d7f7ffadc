package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestState_Busy(t *testing.T) {
	tests := []struct {
		state    State
		busy     bool
		alerting bool
	}{
		{StateNotInUse, false, false},
		{StateInUseByIgnoredApp, true, false},
		{StateInUseByUnknown, true, true},
		{StateError, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.Busy(); got != tt.busy {
				t.Errorf("Busy(): got %v, want %v", got, tt.busy)
			}
			if got := tt.state.Alerting(); got != tt.alerting {
				t.Errorf("Alerting(): got %v, want %v", got, tt.alerting)
			}
		})
	}
}

func TestNewReport_CarriesError(t *testing.T) {
	u := Usage{State: StateError, Err: errors.New("/dev/video3 is no device")}
	r := NewReport("/dev/video3", KindVideo, u, time.Now())

	if r.Error != "/dev/video3 is no device" {
		t.Errorf("Error: got %q", r.Error)
	}
	if r.State != StateError {
		t.Errorf("State: got %q, want %q", r.State, StateError)
	}
}

func TestReport_JSON(t *testing.T) {
	r := Report{
		Device:     "/dev/video0",
		Kind:       KindVideo,
		State:      StateInUseByIgnoredApp,
		IgnoredApp: "zoom",
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	for _, want := range []string{
		`"state":"in_use_by_ignored_app"`,
		`"ignored_app":"zoom"`,
		`"kind":"video"`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON output missing %s, got: %s", want, string(data))
		}
	}
	if strings.Contains(string(data), `"error"`) {
		t.Errorf("JSON output should omit empty error, got: %s", string(data))
	}
}

func TestReport_Summary(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   string
	}{
		{
			name:   "free",
			report: Report{Device: "/dev/video0", State: StateNotInUse},
			want:   "/dev/video0 is not being used",
		},
		{
			name:   "ignored",
			report: Report{Device: "/dev/video0", State: StateInUseByIgnoredApp, IgnoredApp: "bar"},
			want:   "/dev/video0 is being used by ignored app bar",
		},
		{
			name:   "unknown",
			report: Report{Device: "/dev/video0", State: StateInUseByUnknown},
			want:   "/dev/video0 is being used",
		},
		{
			name:   "error",
			report: Report{Device: "/dev/video3", State: StateError, Error: "not found"},
			want:   "/dev/video3: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.Summary(); got != tt.want {
				t.Errorf("Summary(): got %q, want %q", got, tt.want)
			}
		})
	}
}
