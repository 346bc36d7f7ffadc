package probe

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ProbeAudio reports whether the ALSA capture device called name is free.
//
// Any failure to open the resolved PCM node counts as busy. A successful open
// is closed straight away; the probe never keeps the device.
func (p *Prober) ProbeAudio(name string) (Signal, error) {
	node, err := p.PCMCaptureNode(name)
	if err != nil {
		return Unknown, err
	}

	isChar, err := p.ops.stat(node)
	if err != nil || !isChar {
		return Unknown, fmt.Errorf("%s (%s): %w", name, node, ErrAudioNotFound)
	}

	fd, err := p.ops.open(node)
	if err != nil {
		return Busy, nil
	}
	_ = p.ops.close(fd)
	return Free, nil
}

// PCMCaptureNode maps an ALSA device name to its capture node, e.g.
// "hw:1,0" -> /dev/snd/pcmC1D0c.
//
// Accepted forms: an absolute node path, "default", "sysdefault",
// "hw:C[,D]", "plughw:C[,D]", "sysdefault:C" and the keyed variants
// "hw:CARD=id,DEV=n". Card ids are looked up under ASoundDir.
func (p *Prober) PCMCaptureNode(name string) (string, error) {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "/") {
		return name, nil
	}

	switch name {
	case "default", "sysdefault":
		return p.pcmNode(0, 0), nil
	case "":
		return "", fmt.Errorf("empty device name: %w", ErrAudioNotFound)
	}

	iface, args, ok := strings.Cut(name, ":")
	if !ok {
		return "", fmt.Errorf("unsupported ALSA device name %q: %w", name, ErrAudioNotFound)
	}
	switch iface {
	case "hw", "plughw", "sysdefault":
	default:
		return "", fmt.Errorf("unsupported ALSA interface %q: %w", iface, ErrAudioNotFound)
	}

	cardArg, devArg := "", "0"
	for i, part := range strings.Split(args, ",") {
		part = strings.TrimSpace(part)
		key, val, keyed := strings.Cut(part, "=")
		switch {
		case keyed && strings.EqualFold(key, "CARD"):
			cardArg = val
		case keyed && strings.EqualFold(key, "DEV"):
			devArg = val
		case keyed:
			// SUBDEV and friends do not change the node.
		case i == 0:
			cardArg = part
		case i == 1:
			devArg = part
		}
	}

	card, err := p.cardIndex(cardArg)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	dev, err := strconv.Atoi(devArg)
	if err != nil || dev < 0 {
		return "", fmt.Errorf("%s: invalid device %q: %w", name, devArg, ErrAudioNotFound)
	}
	return p.pcmNode(card, dev), nil
}

// cardIndex resolves a card number or card id. An id such as "PCH" is a
// symlink in procfs pointing at "cardN".
func (p *Prober) cardIndex(card string) (int, error) {
	card = strings.Trim(strings.TrimSpace(card), `"`)
	if card == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(card); err == nil && n >= 0 {
		return n, nil
	}

	target, err := os.Readlink(filepath.Join(p.ASoundDir, card))
	if err != nil {
		return 0, fmt.Errorf("unknown card %q: %w", card, ErrAudioNotFound)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(target), "card"))
	if err != nil {
		return 0, fmt.Errorf("unexpected card link %q: %w", target, ErrAudioNotFound)
	}
	return n, nil
}

func (p *Prober) pcmNode(card, dev int) string {
	return filepath.Join(p.SoundDevDir, fmt.Sprintf("pcmC%dD%dc", card, dev))
}
