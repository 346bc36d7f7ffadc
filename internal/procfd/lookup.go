package procfd

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/shirou/gopsutil/v3/process"
)

// commLen is the kernel's limit on a task comm name (TASK_COMM_LEN - 1).
const commLen = 15

// ProcessLookup finds processes in the system process table by name.
// A process matches when its comm name or its executable's base name equals
// the requested name. Names longer than the kernel comm limit also match
// their truncated comm.
type ProcessLookup struct{}

// PIDs returns the matching pids in ascending order.
func (ProcessLookup) PIDs(ctx context.Context, name string) ([]int32, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	var pids []int32
	for _, p := range procs {
		if processMatches(ctx, p, name) {
			pids = append(pids, p.Pid)
		}
	}
	slices.Sort(pids)
	return pids, nil
}

func processMatches(ctx context.Context, p *process.Process, name string) bool {
	// Processes exit while we iterate; errors just mean "not this one".
	if comm, err := p.NameWithContext(ctx); err == nil && CommMatches(comm, name) {
		return true
	}
	if exe, err := p.ExeWithContext(ctx); err == nil && filepath.Base(exe) == name {
		return true
	}
	return false
}

// CommMatches compares a kernel comm value against a configured name.
func CommMatches(comm, name string) bool {
	if comm == name {
		return true
	}
	return len(name) > commLen && comm == name[:commLen]
}
