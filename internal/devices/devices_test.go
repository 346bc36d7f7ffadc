package devices

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func anyFile(fs.FileInfo) bool { return true }

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestVideoNumericOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"video10", "video2", "video0", "video1", "videoX", "video-meta", "null"} {
		touch(t, filepath.Join(dir, name))
	}

	l := &Lister{DevDir: dir, isDevice: anyFile}
	got, err := l.Video()
	if err != nil {
		t.Fatalf("Video() error: %v", err)
	}

	want := []string{"video0", "video1", "video2", "video10"}
	if len(got) != len(want) {
		t.Fatalf("Video() = %v, want %v", got, want)
	}
	for i, w := range want {
		if got[i] != filepath.Join(dir, w) {
			t.Errorf("Video()[%d] = %q, want %q", i, got[i], filepath.Join(dir, w))
		}
	}
}

func TestVideoSkipsNonDevices(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "video0"))

	l := &Lister{DevDir: dir} // default filter: regular files are not char devices
	got, err := l.Video()
	if err != nil {
		t.Fatalf("Video() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Video() = %v, want none", got)
	}
}

func TestVideoCap(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < MaxVideoDevices+8; i++ {
		touch(t, filepath.Join(dir, "video"+strconv.Itoa(i)))
	}

	l := &Lister{DevDir: dir, isDevice: anyFile}
	got, err := l.Video()
	if err != nil {
		t.Fatalf("Video() error: %v", err)
	}
	if len(got) != MaxVideoDevices {
		t.Fatalf("Video() returned %d devices, want %d", len(got), MaxVideoDevices)
	}
	if last := got[len(got)-1]; last != filepath.Join(dir, "video"+strconv.Itoa(MaxVideoDevices-1)) {
		t.Errorf("last device = %q, want the lowest-numbered nodes kept", last)
	}
}

func TestVideoEmptyDir(t *testing.T) {
	l := &Lister{DevDir: t.TempDir(), isDevice: anyFile}
	got, err := l.Video()
	if err != nil {
		t.Fatalf("Video() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Video() = %v, want none", got)
	}
}

const pcmList = `00-00: ALC3246 Analog : ALC3246 Analog : playback 1 : capture 1
00-03: HDMI 0 : HDMI 0 : playback 1
00-06: DMIC Raw : DMIC Raw : capture 1
01-00: USB Audio : USB Audio : playback 1 : capture 1
garbage line
`

func TestParsePCM(t *testing.T) {
	devs, err := ParsePCM(strings.NewReader(pcmList))
	if err != nil {
		t.Fatalf("ParsePCM() error: %v", err)
	}

	want := []AudioDevice{
		{Name: "hw:0,0", Card: 0, Device: 0, Description: "ALC3246 Analog"},
		{Name: "hw:0,6", Card: 0, Device: 6, Description: "DMIC Raw"},
		{Name: "hw:1,0", Card: 1, Device: 0, Description: "USB Audio"},
	}
	if len(devs) != len(want) {
		t.Fatalf("ParsePCM() = %+v, want %+v", devs, want)
	}
	for i, w := range want {
		if devs[i] != w {
			t.Errorf("ParsePCM()[%d] = %+v, want %+v", i, devs[i], w)
		}
	}
}

func TestAudio(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pcm"), []byte(pcmList), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "card1"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "card1", "id"), []byte("Webcam\n"), 0644); err != nil {
		t.Fatal(err)
	}

	l := &Lister{ASoundDir: dir}
	devs, err := l.Audio()
	if err != nil {
		t.Fatalf("Audio() error: %v", err)
	}
	if len(devs) != 3 {
		t.Fatalf("Audio() = %+v, want 3 devices", devs)
	}
	if devs[2].ID != "Webcam" {
		t.Errorf("card 1 id = %q, want %q", devs[2].ID, "Webcam")
	}
	if devs[0].ID != "" {
		t.Errorf("card 0 id = %q, want empty when unreadable", devs[0].ID)
	}
}

func TestAudioWithoutSoundSupport(t *testing.T) {
	l := &Lister{ASoundDir: filepath.Join(t.TempDir(), "missing")}
	devs, err := l.Audio()
	if err != nil {
		t.Fatalf("Audio() error: %v", err)
	}
	if len(devs) != 0 {
		t.Errorf("Audio() = %v, want none", devs)
	}
}
