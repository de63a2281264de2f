// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

package simulator

import (
	"context"
	"fmt"
)

// RequiredServices is the set of launchd_sim service names whose presence
// signals the device is ready to run applications, not merely booted. The
// set depends on the hardware family and on the CoreSimulator generation
// (daemon names were renamed between epochs). Order is significant: timeout
// errors name the first missing entry.
func RequiredServices(family ProductFamily, generation Generation) []string {
	switch family {
	case FamilyPhone, FamilyPad:
		bridge := "com.apple.iphonesimulator.bridge"
		if generation == GenerationC {
			bridge = "com.apple.SimulatorBridge"
		}
		return []string{
			"com.apple.backboardd",
			"com.apple.mobile.installd",
			bridge,
			"com.apple.SpringBoard",
		}
	case FamilyWatch, FamilyTV:
		network := "com.apple.networkd"
		if generation == GenerationC {
			network = "com.apple.nsurlsessiond"
		}
		return []string{
			"com.apple.mobileassetd",
			network,
		}
	default:
		return nil
	}
}

// awaitReadiness resolves the device's service supervisor (launchd_sim) and,
// when the configuration asks for it, polls the service registry until every
// required service is present or the slow timeout expires. The supervisor
// discovery is announced to the sink before any polling starts.
func awaitReadiness(ctx context.Context, env Env, host Host, config BootConfiguration, device Device, c Collaborators) (ProcessInfo, error) {
	supervisor, ok := c.Processes.SupervisorProcess(ctx, device)
	if !ok {
		return ProcessInfo{}, processNotFoundError(device.UDID(), "supervisor")
	}
	c.Events.SupervisorDiscovered(supervisor)

	if !config.AwaitServices {
		return supervisor, nil
	}
	required := RequiredServices(device.ProductFamily(), host.Generation())
	if len(required) == 0 {
		return supervisor, nil
	}

	logEvent(env, "awaiting required services",
		"udid", device.UDID(),
		"family", device.ProductFamily().String(),
		"services", required,
	)
	deadline := c.Clock.Now().Add(env.SlowTimeout)
	missing := required[0]
	for {
		services, err := c.Services.ListServices(ctx, device)
		if err != nil {
			return ProcessInfo{}, fmt.Errorf("service registry query for %s: %w", device.UDID(), err)
		}
		missing = firstMissingService(required, services)
		if missing == "" {
			return supervisor, nil
		}
		if !c.Clock.Now().Before(deadline) {
			break
		}
		c.Clock.Sleep(env.PollInterval)
	}
	return ProcessInfo{}, &TimeoutError{UDID: device.UDID(), Timeout: env.SlowTimeout, MissingService: missing}
}

func firstMissingService(required []string, present map[string]ProcessInfo) string {
	for _, name := range required {
		if _, ok := present[name]; !ok {
			return name
		}
	}
	return ""
}
