package usage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timvw/device-patrol/internal/model"
	"github.com/timvw/device-patrol/internal/probe"
	"github.com/timvw/device-patrol/internal/procfd"
)

type fakeProber struct {
	sig   probe.Signal
	err   error
	calls int
}

func (f *fakeProber) ProbeVideo(string) (probe.Signal, error) {
	f.calls++
	return f.sig, f.err
}

func (f *fakeProber) ProbeAudio(string) (probe.Signal, error) {
	f.calls++
	return f.sig, f.err
}

// fakeHolders answers from a device -> holding process names table.
type fakeHolders struct {
	holders map[string][]string
	errs    map[string]error
	calls   []string
}

func (f *fakeHolders) HoldsDevice(_ context.Context, devicePath, processName string) (bool, error) {
	f.calls = append(f.calls, processName)
	if err := f.errs[processName]; err != nil {
		return false, err
	}
	for _, p := range f.holders[devicePath] {
		if p == processName {
			return true, nil
		}
	}
	return false, nil
}

func TestClassify_Free(t *testing.T) {
	holders := &fakeHolders{}
	c := &Classifier{Video: &fakeProber{sig: probe.Free}, Holders: holders}

	u := c.Classify(context.Background(), "/dev/video0", []string{"bar"})

	assert.Equal(t, model.StateNotInUse, u.State)
	assert.Empty(t, holders.calls, "a free device needs no attribution")
}

func TestClassify_BusyWithoutIgnoredApps(t *testing.T) {
	for _, apps := range [][]string{nil, {}} {
		holders := &fakeHolders{}
		c := &Classifier{Video: &fakeProber{sig: probe.Busy}, Holders: holders}

		u := c.Classify(context.Background(), "/dev/video0", apps)

		assert.Equal(t, model.StateInUseByUnknown, u.State)
		assert.Empty(t, holders.calls)
	}
}

func TestClassify_HeldByUnlistedProcess(t *testing.T) {
	holders := &fakeHolders{holders: map[string][]string{"/dev/video0": {"foo"}}}
	c := &Classifier{Video: &fakeProber{sig: probe.Busy}, Holders: holders}

	u := c.Classify(context.Background(), "/dev/video0", []string{"bar", "baz"})

	assert.Equal(t, model.StateInUseByUnknown, u.State)
	assert.Empty(t, u.IgnoredApp)
	assert.Equal(t, []string{"bar", "baz"}, holders.calls, "every ignored app is checked before giving up")
}

func TestClassify_HeldByIgnoredApp(t *testing.T) {
	holders := &fakeHolders{holders: map[string][]string{"/dev/video0": {"bar"}}}
	c := &Classifier{Video: &fakeProber{sig: probe.Busy}, Holders: holders}

	u := c.Classify(context.Background(), "/dev/video0", []string{"zoom", "bar"})

	assert.Equal(t, model.StateInUseByIgnoredApp, u.State)
	assert.Equal(t, "bar", u.IgnoredApp)
}

func TestClassify_FirstMatchShortCircuits(t *testing.T) {
	holders := &fakeHolders{holders: map[string][]string{"/dev/video0": {"bar", "baz"}}}
	c := &Classifier{Video: &fakeProber{sig: probe.Busy}, Holders: holders}

	u := c.Classify(context.Background(), "/dev/video0", []string{"bar", "baz", "qux"})

	assert.Equal(t, model.StateInUseByIgnoredApp, u.State)
	assert.Equal(t, "bar", u.IgnoredApp, "list order decides which app is credited")
	assert.Equal(t, []string{"bar"}, holders.calls)
}

func TestClassify_OrderDecidesCredit(t *testing.T) {
	holders := &fakeHolders{holders: map[string][]string{"/dev/video0": {"bar", "baz"}}}
	c := &Classifier{Video: &fakeProber{sig: probe.Busy}, Holders: holders}

	u := c.Classify(context.Background(), "/dev/video0", []string{"baz", "bar"})

	assert.Equal(t, "baz", u.IgnoredApp)
}

func TestClassify_ResolutionErrorIsIsolated(t *testing.T) {
	holders := &fakeHolders{
		holders: map[string][]string{"/dev/video0": {"bar"}},
		errs:    map[string]error{"zoom": fmt.Errorf("%w: pid 12: permission denied", procfd.ErrResolution)},
	}
	c := &Classifier{Video: &fakeProber{sig: probe.Busy}, Holders: holders}

	u := c.Classify(context.Background(), "/dev/video0", []string{"zoom", "bar"})

	assert.Equal(t, model.StateInUseByIgnoredApp, u.State)
	assert.Equal(t, "bar", u.IgnoredApp)
	require.Len(t, u.Warnings, 1)
	assert.Contains(t, u.Warnings[0], "zoom")
}

func TestClassify_ResolutionErrorIsNotFree(t *testing.T) {
	holders := &fakeHolders{errs: map[string]error{"zoom": procfd.ErrResolution}}
	c := &Classifier{Video: &fakeProber{sig: probe.Busy}, Holders: holders}

	u := c.Classify(context.Background(), "/dev/video0", []string{"zoom"})

	assert.Equal(t, model.StateInUseByUnknown, u.State)
	assert.Len(t, u.Warnings, 1)
}

func TestClassify_ProbeError(t *testing.T) {
	holders := &fakeHolders{}
	c := &Classifier{Video: &fakeProber{err: fmt.Errorf("/dev/video3: %w", probe.ErrNotFound)}, Holders: holders}

	u := c.Classify(context.Background(), "/dev/video3", []string{"bar"})

	assert.Equal(t, model.StateError, u.State)
	assert.ErrorIs(t, u.Err, probe.ErrNotADevice)
	assert.Empty(t, holders.calls)
}

func TestClassifyAudio(t *testing.T) {
	tests := []struct {
		name string
		sig  probe.Signal
		err  error
		want model.State
	}{
		{"free", probe.Free, nil, model.StateNotInUse},
		{"busy", probe.Busy, nil, model.StateInUseByUnknown},
		{"missing", probe.Unknown, probe.ErrAudioNotFound, model.StateError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Classifier{Audio: &fakeProber{sig: tt.sig, err: tt.err}}
			u := c.ClassifyAudio(context.Background(), "default")
			assert.Equal(t, tt.want, u.State)
		})
	}
}
