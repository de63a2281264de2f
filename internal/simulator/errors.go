// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/containerd/errdefs"
	units "github.com/docker/go-units"
)

// BootCommandError is a device-control boot invocation failure. It carries
// the raw option map that was submitted, for diagnostics.
type BootCommandError struct {
	UDID    string
	Options map[string]any
	Err     error
}

func (e *BootCommandError) Error() string {
	return fmt.Sprintf("boot of %s with options %v failed: %v", e.UDID, e.Options, e.Err)
}

func (e *BootCommandError) Unwrap() error { return e.Err }

// TimeoutError is an expired bounded wait. Exactly one of LastState and
// MissingService is set, depending on which wait expired.
type TimeoutError struct {
	UDID    string
	Timeout time.Duration
	// LastState is the device state observed when waiting for Booted expired.
	LastState string
	// MissingService is the first required service still absent when
	// readiness polling expired.
	MissingService string
}

func (e *TimeoutError) Error() string {
	if e.MissingService != "" {
		return fmt.Sprintf("service %s on %s not running after %s", e.MissingService, e.UDID, units.HumanDuration(e.Timeout))
	}
	return fmt.Sprintf("device %s did not report Booted after %s (last state %s)", e.UDID, units.HumanDuration(e.Timeout), e.LastState)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

func preconditionError(device Device, state DeviceState) error {
	return fmt.Errorf("device %s is in state %s, booting needs Shutdown: %w", device.UDID(), state, errdefs.ErrFailedPrecondition)
}

func processNotFoundError(udid, role string) error {
	return fmt.Errorf("%s process for %s not found: %w", role, udid, errdefs.ErrNotFound)
}
