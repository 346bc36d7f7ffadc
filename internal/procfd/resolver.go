// Package procfd answers "does this process hold that device open?" by
// reading the symlinks in /proc/<pid>/fd.
package procfd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
)

// ErrResolution means a process was found but its descriptor table could not
// be read, so the answer is unknown rather than "no".
var ErrResolution = errors.New("cannot inspect process descriptors")

// fdBatch is how many descriptor entries are read per directory read.
const fdBatch = 64

// Lookup resolves a process name to the pids currently running under it.
// An empty result means no such process.
type Lookup interface {
	PIDs(ctx context.Context, name string) ([]int32, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, name string) ([]int32, error)

func (f LookupFunc) PIDs(ctx context.Context, name string) ([]int32, error) {
	return f(ctx, name)
}

// Resolver scans process descriptor tables.
type Resolver struct {
	// ProcRoot is the procfs mount point. Defaults to /proc.
	ProcRoot string
	// Lookup maps process names to pids.
	Lookup Lookup
	// OnSkip, if set, is told about descriptors that vanished or could not
	// be read during a scan.
	OnSkip func(link string, err error)
}

// NewResolver returns a Resolver over /proc using the system process table.
func NewResolver() *Resolver {
	return &Resolver{
		ProcRoot: "/proc",
		Lookup:   ProcessLookup{},
	}
}

// HoldsDevice reports whether any process named processName has devicePath
// open. A name with no running process is not an error.
//
// When every matching process fails to scan the error wraps ErrResolution.
// A match in any one of them wins over failures in the others.
func (r *Resolver) HoldsDevice(ctx context.Context, devicePath, processName string) (bool, error) {
	pids, err := r.Lookup.PIDs(ctx, processName)
	if err != nil {
		return false, fmt.Errorf("%w: looking up %q: %w", ErrResolution, processName, err)
	}

	targets := deviceTargets(devicePath)
	var errs []error
	for _, pid := range pids {
		if pid <= 0 {
			continue
		}
		held, err := r.scan(pid, targets)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if held {
			return true, nil
		}
	}
	return false, errors.Join(errs...)
}

// PIDHoldsDevice reports whether pid has devicePath open.
func (r *Resolver) PIDHoldsDevice(pid int32, devicePath string) (bool, error) {
	return r.scan(pid, deviceTargets(devicePath))
}

// scan walks pid's descriptor directory and stops at the first descriptor
// pointing at one of targets.
func (r *Resolver) scan(pid int32, targets []string) (bool, error) {
	fdDir := filepath.Join(r.procRoot(), strconv.Itoa(int(pid)), "fd")
	dir, err := os.Open(fdDir)
	if err != nil {
		return false, fmt.Errorf("%w: pid %d: %w", ErrResolution, pid, err)
	}
	defer func() {
		_ = dir.Close()
	}()

	for {
		entries, readErr := dir.ReadDir(fdBatch)
		for _, e := range entries {
			link := filepath.Join(fdDir, e.Name())
			target, err := os.Readlink(link)
			if err != nil {
				// Closed between listing and readlink.
				r.skip(link, err)
				continue
			}
			if slices.Contains(targets, target) {
				return true, nil
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return false, nil
			}
			return false, fmt.Errorf("%w: pid %d: %w", ErrResolution, pid, readErr)
		}
	}
}

func (r *Resolver) procRoot() string {
	if r.ProcRoot == "" {
		return "/proc"
	}
	return r.ProcRoot
}

func (r *Resolver) skip(link string, err error) {
	if r.OnSkip != nil {
		r.OnSkip(link, err)
	}
}

// deviceTargets returns the strings a descriptor link may hold for the
// device: the path as given and, for aliases such as /dev/v4l/by-id/...,
// the path the kernel reports after resolving symlinks.
func deviceTargets(devicePath string) []string {
	targets := []string{devicePath}
	if resolved, err := filepath.EvalSymlinks(devicePath); err == nil && resolved != devicePath {
		targets = append(targets, resolved)
	}
	return targets
}
