// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

/*
Package simulatormanager provides a Go library for booting iOS-style
simulators into a usable running state for automated testing.

# Overview

Booting a simulator is more than asking the device-control layer for a
state transition. Depending on the installed toolchain generation the boot
options differ, the boot may have to go through the companion Simulator.app
process, and "Booted" does not mean "ready to run applications": the
per-device service supervisor still has to bring up a family-specific set
of services. This library sequences all of that behind one call.

# Quick Start

	import "github.com/wangyja/FBSimulatorControl/pkg/simulatormanager"

	func main() {
		mgr := simulatormanager.New()

		devices, _ := mgr.List()
		for _, d := range devices {
			fmt.Println(d.UDID, d.Name, d.State)
		}

		// Boot headless via the device-control API and wait for readiness.
		result, err := mgr.Boot(simulatormanager.BootRequest{
			UDID: devices[0].UDID,
			Config: simulatormanager.BootConfig{
				AwaitServices: true,
			},
		})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("booted", result.UDID)
	}

# Key Concepts

**Generation**: a version epoch of the device-control API. Xcode 7 (A),
Xcode 8 (B) and Xcode 9+ (C) want mutually incompatible boot option sets;
the library resolves them from the caller's intent.

**Companion boot**: instead of calling the device-control API directly, the
boot can be performed by launching Simulator.app, either as a raw
subprocess or through the host's application launcher (a new instance,
without activation).

**Readiness**: after the device reports Booted, a family-specific set of
services (SpringBoard, installd, the simulator bridge, ...) must be running
before applications can launch. Boot with AwaitServices to block on that.

# Environment Configuration

By default, the manager auto-detects paths from environment variables:
  - DEVELOPER_DIR
  - FBSIM_DEVICE_SET
  - FBSIM_SIMULATOR_APP
  - FBSIM_CORRELATION_ID

Use NewWithEnv() to override with custom paths and timeouts.

# Thread Safety

Manager instances are not thread-safe, and concurrent boot attempts against
the same device are not supported: the boot precondition assumes exclusive
access to the device's lifecycle for the duration of the attempt.

# Requirements

  - Xcode with CoreSimulator (xcrun, simctl, Simulator.app)
  - macOS host for production use; the core is fully testable anywhere

# License

MIT
*/
package simulatormanager
