package monitor

import (
	"sync"

	"github.com/timvw/device-patrol/internal/model"
)

// Transition is a change in a device's state between two scans.
type Transition struct {
	Report   model.Report
	Previous model.State // empty on the first observation of a device
}

// Alert reports whether the transition newly puts the device in an alerting
// state. A device staying in_use_by_unknown across scans alerts only once.
func (t Transition) Alert() bool {
	return t.Report.State.Alerting() && !t.Previous.Alerting()
}

// StateTracker remembers the last state seen for each device so the watch
// loop reports changes instead of repeating every scan.
type StateTracker struct {
	mu   sync.Mutex
	last map[string]model.State // keyed by device
}

// NewStateTracker returns an empty tracker.
func NewStateTracker() *StateTracker {
	return &StateTracker{last: make(map[string]model.State)}
}

// Observe records reports and returns the ones whose state changed,
// including devices seen for the first time. Devices missing from reports
// are forgotten, so an unplugged camera that returns is reported again.
func (t *StateTracker) Observe(reports []model.Report) []Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]bool, len(reports))
	var changed []Transition
	for _, r := range reports {
		seen[r.Device] = true
		prev, ok := t.last[r.Device]
		if ok && prev == r.State {
			continue
		}
		changed = append(changed, Transition{Report: r, Previous: prev})
		t.last[r.Device] = r.State
	}
	for dev := range t.last {
		if !seen[dev] {
			delete(t.last, dev)
		}
	}
	return changed
}

// Forget drops the remembered state for device, so the next observation is
// reported as a change. The dashboard uses it on a manual rescan.
func (t *StateTracker) Forget(device string) {
	t.mu.Lock()
	delete(t.last, device)
	t.mu.Unlock()
}
