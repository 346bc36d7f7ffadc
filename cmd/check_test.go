package cmd

import "testing"

func TestIsAudioName(t *testing.T) {
	tests := []struct {
		device string
		want   bool
	}{
		{"/dev/video0", false},
		{"/dev/v4l/by-id/usb-Integrated_Camera-video-index0", false},
		{"hw:1,0", true},
		{"plughw:CARD=PCH,DEV=0", true},
		{"default", true},
		{"/dev/snd/pcmC0D0c", true},
	}

	for _, tt := range tests {
		t.Run(tt.device, func(t *testing.T) {
			if got := isAudioName(tt.device); got != tt.want {
				t.Errorf("isAudioName(%q) = %v, want %v", tt.device, got, tt.want)
			}
		})
	}
}
