// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

package simulator

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/containerd/errdefs"
)

// CompanionArguments builds the argument vector for a Simulator.app launch.
// Hardware keyboard passthrough is always disabled; it steals key events
// from the HID connection.
func CompanionArguments(host Host, config BootConfiguration, device Device) ([]string, error) {
	args := []string{
		"-CurrentDeviceUDID", device.UDID(),
		"-ConnectHardwareKeyboard", "0",
	}
	if config.Scale != "" {
		args = append(args, fmt.Sprintf("-SimulatorWindowLastScale-%s", device.DeviceTypeIdentifier()), config.Scale)
	}
	if config.UseCustomDeviceSet {
		if !host.SupportsCustomDeviceSets() {
			return nil, fmt.Errorf("custom device sets need Xcode 7.2 or later, host has %d.%d: %w", host.XcodeMajor, host.XcodeMinor, errdefs.ErrInvalidArgument)
		}
		args = append(args, "-DeviceSetPath", device.SetPath())
	}
	return args, nil
}

// companionEnvironment carries the device identity into the companion's
// process tree so children spawned by Simulator.app can discover it.
func companionEnvironment(device Device) map[string]string {
	return map[string]string{
		"FBSIMULATORCONTROL_SIM_UDID":     device.UDID(),
		"FBSIMULATORCONTROL_SIM_SET_PATH": device.SetPath(),
	}
}

// Launcher starts the companion process. A nil error means the process was
// accepted for launch, not that it finished initializing.
type Launcher interface {
	Launch(ctx context.Context, args []string, environment map[string]string) error
}

func launcherFor(env Env, mechanism LaunchMechanism) Launcher {
	if mechanism == LaunchViaWorkspace {
		return &WorkspaceLauncher{Env: env}
	}
	return &SubprocessLauncher{Env: env}
}

// SubprocessLauncher spawns the Simulator.app binary directly. Output is
// streamed into the structured log, one event per line.
type SubprocessLauncher struct {
	Env Env
}

func (l *SubprocessLauncher) Launch(ctx context.Context, args []string, environment map[string]string) error {
	cmd := exec.Command(l.Env.SimulatorApp, args...)
	cmd.Env = append(os.Environ(), flattenEnvironment(environment)...)
	writer := newLineLogWriter(l.Env, "binary", l.Env.SimulatorApp)
	cmd.Stdout = writer
	cmd.Stderr = writer
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("companion subprocess launch: %w", err)
	}
	logEvent(l.Env, "companion process started", "binary", l.Env.SimulatorApp, "pid", cmd.Process.Pid)
	// The companion outlives the boot attempt; reap it whenever it exits.
	go func() { _ = cmd.Wait() }()
	return nil
}

// WorkspaceLauncher uses the host application-launch facility: a new
// instance (-n), without activation (-g).
type WorkspaceLauncher struct {
	Env Env
}

func (l *WorkspaceLauncher) Launch(ctx context.Context, args []string, environment map[string]string) error {
	openArgs := []string{"-n", "-g", "-a", l.Env.SimulatorApp, "--args"}
	openArgs = append(openArgs, args...)
	cmd := exec.CommandContext(ctx, l.Env.Open, openArgs...)
	cmd.Env = append(os.Environ(), flattenEnvironment(environment)...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v failed: %v\n%s", l.Env.Open, openArgs, err, buf.String())
	}
	logEvent(l.Env, "companion launch accepted by workspace", "app", l.Env.SimulatorApp)
	return nil
}

func flattenEnvironment(environment map[string]string) []string {
	out := make([]string, 0, len(environment))
	for k, v := range environment {
		out = append(out, k+"="+v)
	}
	return out
}
