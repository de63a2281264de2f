// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

package simulator

import (
	"context"
	"fmt"
)

// defaultFramebufferConfig is used when the caller asked for a framebuffer
// but supplied no surface description. iPhone 6 dimensions at 1x.
var defaultFramebufferConfig = FramebufferConfig{
	Width:       750,
	Height:      1334,
	ScaleFactor: 1.0,
}

// performDirectBoot runs the device-control boot stage. For companion boots
// the stage is a no-op: display and input setup is Simulator.app's concern
// and an empty connection is returned. Each step depends on host state the
// previous one established, so the sequence is strictly serial.
func performDirectBoot(ctx context.Context, env Env, config BootConfiguration, device Device, options BootOptions, c Collaborators) (*Connection, error) {
	if config.UseCompanionApp {
		return &Connection{}, nil
	}

	connection := &Connection{}
	if options.CreateFramebuffer {
		fbConfig := config.Framebuffer
		if fbConfig == nil {
			logEvent(env, "no framebuffer configuration supplied, using default",
				"udid", device.UDID(),
				"width", defaultFramebufferConfig.Width,
				"height", defaultFramebufferConfig.Height,
			)
			d := defaultFramebufferConfig
			fbConfig = &d
		}
		framebuffer, err := c.Framebuffer.Connect(ctx, *fbConfig, device)
		if err != nil {
			return nil, fmt.Errorf("framebuffer connection for %s: %w", device.UDID(), err)
		}
		connection.Framebuffer = framebuffer
	}

	hid, err := c.HID.Create(ctx, device)
	if err != nil {
		return nil, fmt.Errorf("HID connection for %s: %w", device.UDID(), err)
	}
	connection.HID = hid

	if err := device.Boot(ctx, options.RawOptions); err != nil {
		return nil, &BootCommandError{UDID: device.UDID(), Options: options.RawOptions, Err: err}
	}
	return connection, nil
}
