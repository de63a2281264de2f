// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

package simulator

import (
	"fmt"

	"github.com/containerd/errdefs"
)

// LaunchMechanism selects how the companion Simulator.app is started.
type LaunchMechanism int

const (
	// LaunchViaSubprocess spawns the application binary directly.
	LaunchViaSubprocess LaunchMechanism = iota
	// LaunchViaWorkspace asks the host's application launcher to open a new
	// instance without activating it.
	LaunchViaWorkspace
)

func (m LaunchMechanism) String() string {
	if m == LaunchViaWorkspace {
		return "workspace"
	}
	return "subprocess"
}

// BootConfiguration is the caller's intent for one boot attempt. Immutable
// once handed to the orchestrator.
type BootConfiguration struct {
	ConnectFramebuffer bool
	Framebuffer        *FramebufferConfig
	ConnectBridge      bool
	// UseCompanionApp boots by launching Simulator.app instead of calling
	// the device-control API directly.
	UseCompanionApp bool
	LaunchMechanism LaunchMechanism
	// Scale is the companion window scale, e.g. "0.5". Empty means unscaled.
	Scale string
	// UseCustomDeviceSet passes the device's set path to the companion.
	UseCustomDeviceSet bool
	// AwaitServices blocks the attempt until the device's required services
	// are running, not merely until the device reports Booted.
	AwaitServices bool
}

// BootOptions is the generation-specific resolution of a BootConfiguration.
// Computed exactly once per attempt and never mutated.
type BootOptions struct {
	CreateFramebuffer bool
	RawOptions        map[string]any
}

// ResolveBootOptions maps caller intent onto the option set the given
// CoreSimulator generation understands. Pure; no I/O.
func ResolveBootOptions(generation Generation, config BootConfiguration) (BootOptions, error) {
	switch generation {
	case GenerationA:
		// Omitting the framebuffer here hangs mach-interface calls host-side.
		return BootOptions{
			CreateFramebuffer: true,
			RawOptions: map[string]any{
				"register-head-services": true,
			},
		}, nil
	case GenerationB:
		return BootOptions{
			CreateFramebuffer: config.ConnectFramebuffer,
			RawOptions: map[string]any{
				"env": map[string]string{
					"SIMULATOR_IS_HEADLESS": "1",
				},
			},
		}, nil
	case GenerationC:
		return BootOptions{
			CreateFramebuffer: config.ConnectFramebuffer,
			RawOptions: map[string]any{
				"persist": false,
			},
		}, nil
	default:
		return BootOptions{}, fmt.Errorf("no boot option semantics for CoreSimulator generation %q: %w", generation, errdefs.ErrInvalidArgument)
	}
}
