// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

// Package config loads the optional TOML defaults file the CLI applies to
// boot requests before flags are considered.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/wangyja/FBSimulatorControl/internal/simulator"
)

type BootDefaults struct {
	ConnectFramebuffer bool   `toml:"connect_framebuffer"`
	ConnectBridge      bool   `toml:"connect_bridge"`
	UseCompanionApp    bool   `toml:"use_companion_app"`
	LaunchMechanism    string `toml:"launch_mechanism"` // "subprocess" or "workspace"
	Scale              string `toml:"scale"`
	UseCustomDeviceSet bool   `toml:"use_custom_device_set"`
	AwaitServices      bool   `toml:"await_services"`
	SlowTimeoutSeconds int    `toml:"slow_timeout_seconds"`
}

func Load(path string) (BootDefaults, error) {
	var defaults BootDefaults
	if _, err := toml.DecodeFile(path, &defaults); err != nil {
		return BootDefaults{}, fmt.Errorf("loading boot defaults from %s: %w", path, err)
	}
	if defaults.LaunchMechanism == "" {
		defaults.LaunchMechanism = "subprocess"
	}
	if err := Validate(defaults); err != nil {
		return BootDefaults{}, err
	}
	return defaults, nil
}

func Validate(defaults BootDefaults) error {
	switch defaults.LaunchMechanism {
	case "subprocess", "workspace":
	default:
		return fmt.Errorf("launch_mechanism must be subprocess or workspace, got %q", defaults.LaunchMechanism)
	}
	if defaults.Scale != "" {
		scale, err := strconv.ParseFloat(defaults.Scale, 64)
		if err != nil || scale <= 0 || scale > 1 {
			return fmt.Errorf("scale must be a number in (0, 1], got %q", defaults.Scale)
		}
	}
	if defaults.SlowTimeoutSeconds < 0 {
		return fmt.Errorf("slow_timeout_seconds must not be negative, got %d", defaults.SlowTimeoutSeconds)
	}
	return nil
}

// Mechanism translates the textual selector into the core's enum.
func (d BootDefaults) Mechanism() simulator.LaunchMechanism {
	if d.LaunchMechanism == "workspace" {
		return simulator.LaunchViaWorkspace
	}
	return simulator.LaunchViaSubprocess
}

// Configuration turns the defaults into a core boot configuration.
func (d BootDefaults) Configuration() simulator.BootConfiguration {
	return simulator.BootConfiguration{
		ConnectFramebuffer: d.ConnectFramebuffer,
		ConnectBridge:      d.ConnectBridge,
		UseCompanionApp:    d.UseCompanionApp,
		LaunchMechanism:    d.Mechanism(),
		Scale:              d.Scale,
		UseCustomDeviceSet: d.UseCustomDeviceSet,
		AwaitServices:      d.AwaitServices,
	}
}

// SlowTimeout returns the configured timeout, or zero when unset so callers
// keep the environment default.
func (d BootDefaults) SlowTimeout() time.Duration {
	return time.Duration(d.SlowTimeoutSeconds) * time.Second
}
