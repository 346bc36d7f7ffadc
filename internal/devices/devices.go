// Package devices enumerates candidate capture devices: V4L2 video nodes
// under /dev and ALSA capture PCMs listed in /proc/asound/pcm.
package devices

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// MaxVideoDevices caps how many /dev/video* nodes are returned.
const MaxVideoDevices = 32

// AudioDevice is an ALSA PCM with at least one capture substream.
type AudioDevice struct {
	Name        string `json:"name"` // "hw:<card>,<device>"
	Card        int    `json:"card"`
	Device      int    `json:"device"`
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Lister finds devices on the local machine.
type Lister struct {
	DevDir    string // defaults to /dev
	ASoundDir string // defaults to /proc/asound

	// isDevice filters video candidates. Defaults to character devices.
	isDevice func(fs.FileInfo) bool
}

// NewLister returns a Lister for the live system.
func NewLister() *Lister {
	return &Lister{DevDir: "/dev", ASoundDir: "/proc/asound"}
}

// Video returns the /dev/video<N> character devices in ascending N order,
// at most MaxVideoDevices of them.
func (l *Lister) Video() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.devDir(), "video*"))
	if err != nil {
		return nil, fmt.Errorf("globbing video devices: %w", err)
	}

	type node struct {
		path  string
		index int
	}
	var nodes []node
	for _, m := range matches {
		idx, ok := videoIndex(filepath.Base(m))
		if !ok {
			continue
		}
		info, err := os.Stat(m)
		if err != nil || !l.deviceFilter()(info) {
			continue
		}
		nodes = append(nodes, node{path: m, index: idx})
	}

	slices.SortFunc(nodes, func(a, b node) int { return a.index - b.index })
	if len(nodes) > MaxVideoDevices {
		nodes = nodes[:MaxVideoDevices]
	}

	paths := make([]string, len(nodes))
	for i, n := range nodes {
		paths[i] = n.path
	}
	return paths, nil
}

// Audio returns the ALSA PCMs that expose a capture stream.
// A machine without sound support yields an empty list, not an error.
func (l *Lister) Audio() ([]AudioDevice, error) {
	f, err := os.Open(filepath.Join(l.asoundDir(), "pcm"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading ALSA pcm list: %w", err)
	}
	defer f.Close()

	devs, err := ParsePCM(f)
	if err != nil {
		return nil, err
	}
	for i := range devs {
		devs[i].ID = l.cardID(devs[i].Card)
	}
	return devs, nil
}

// ParsePCM reads the /proc/asound/pcm format
//
//	00-00: ALC3246 Analog : ALC3246 Analog : playback 1 : capture 1
//
// and keeps the lines that advertise a capture stream.
func ParsePCM(r io.Reader) ([]AudioDevice, error) {
	var devs []AudioDevice
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, " : ")
		if !hasCapture(fields[1:]) {
			continue
		}
		addr, desc, ok := strings.Cut(fields[0], ":")
		if !ok {
			continue
		}
		cardStr, devStr, ok := strings.Cut(addr, "-")
		if !ok {
			continue
		}
		card, err1 := strconv.Atoi(cardStr)
		dev, err2 := strconv.Atoi(devStr)
		if err1 != nil || err2 != nil {
			continue
		}
		devs = append(devs, AudioDevice{
			Name:        fmt.Sprintf("hw:%d,%d", card, dev),
			Card:        card,
			Device:      dev,
			Description: strings.TrimSpace(desc),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parsing ALSA pcm list: %w", err)
	}
	return devs, nil
}

func hasCapture(fields []string) bool {
	for _, f := range fields {
		if strings.HasPrefix(strings.TrimSpace(f), "capture") {
			return true
		}
	}
	return false
}

// cardID reads the short card id (e.g. "PCH") from /proc/asound/card<N>/id.
func (l *Lister) cardID(card int) string {
	data, err := os.ReadFile(filepath.Join(l.asoundDir(), fmt.Sprintf("card%d", card), "id"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// videoIndex extracts N from "videoN".
func videoIndex(base string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(base, "video"))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func isCharDevice(info fs.FileInfo) bool {
	return info.Mode()&fs.ModeCharDevice != 0
}

func (l *Lister) deviceFilter() func(fs.FileInfo) bool {
	if l.isDevice != nil {
		return l.isDevice
	}
	return isCharDevice
}

func (l *Lister) devDir() string {
	if l.DevDir == "" {
		return "/dev"
	}
	return l.DevDir
}

func (l *Lister) asoundDir() string {
	if l.ASoundDir == "" {
		return "/proc/asound"
	}
	return l.ASoundDir
}
