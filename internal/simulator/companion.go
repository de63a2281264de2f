// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

package simulator

import (
	"context"
)

// launchCompanionIfNeeded runs the companion boot stage: launch
// Simulator.app, wait for the device to report Booted, resolve the
// companion's process identity and notify the sink. No-op for direct boots.
func launchCompanionIfNeeded(ctx context.Context, env Env, host Host, config BootConfiguration, device Device, c Collaborators) error {
	if !config.UseCompanionApp {
		return nil
	}

	args, err := CompanionArguments(host, config, device)
	if err != nil {
		return err
	}
	launcher := c.Launcher
	if launcher == nil {
		launcher = launcherFor(env, config.LaunchMechanism)
	}

	logEvent(env, "launching companion process",
		"udid", device.UDID(),
		"mechanism", config.LaunchMechanism.String(),
		"args", args,
	)
	if err := launcher.Launch(ctx, args, companionEnvironment(device)); err != nil {
		return err
	}

	if err := waitForState(env, c.Clock, device, StateBooted); err != nil {
		return err
	}

	process, ok := c.Processes.CompanionProcess(ctx, device)
	if !ok {
		return processNotFoundError(device.UDID(), "companion")
	}
	c.Events.ContainerDidLaunch(process)
	return nil
}

// waitForState polls the device's reported state until it matches, bounded
// by the shared slow timeout. The timeout error carries the last observed
// state for diagnostics.
func waitForState(env Env, clock Clock, device Device, want DeviceState) error {
	deadline := clock.Now().Add(env.SlowTimeout)
	last := StateUnknown
	for {
		last = device.State()
		if last == want {
			return nil
		}
		if !clock.Now().Before(deadline) {
			break
		}
		clock.Sleep(env.PollInterval)
	}
	return &TimeoutError{UDID: device.UDID(), Timeout: env.SlowTimeout, LastState: last.String()}
}
