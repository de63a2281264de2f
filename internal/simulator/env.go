// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

package simulator

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"time"
)

type Env struct {
	DeveloperDir  string // DEVELOPER_DIR (default /Applications/Xcode.app/Contents/Developer)
	DeviceSetPath string // FBSIM_DEVICE_SET (default ~/Library/Developer/CoreSimulator/Devices)
	Xcrun         string // xcrun
	Open          string // open
	PS            string // ps
	SimulatorApp  string // Simulator.app executable used for subprocess companion launches
	// SlowTimeout bounds every blocking wait in a boot attempt: companion
	// boot confirmation and service readiness polling share it.
	SlowTimeout  time.Duration
	PollInterval time.Duration
	// CorrelationID is used to tie logs and spans to a specific workflow/activity.
	CorrelationID string
	// Context is used to parent OpenTelemetry spans.
	Context context.Context
}

func Detect() Env {
	usr, _ := user.Current()
	home := ""
	if usr != nil {
		home = usr.HomeDir
	} else if h := os.Getenv("HOME"); h != "" {
		home = h
	}

	developer := getenv("DEVELOPER_DIR", "/Applications/Xcode.app/Contents/Developer")
	set := getenv("FBSIM_DEVICE_SET", filepath.Join(home, "Library", "Developer", "CoreSimulator", "Devices"))
	app := getenv("FBSIM_SIMULATOR_APP", filepath.Join(developer, "Applications", "Simulator.app", "Contents", "MacOS", "Simulator"))
	correlationID := os.Getenv("FBSIM_CORRELATION_ID")

	return Env{
		DeveloperDir:  developer,
		DeviceSetPath: set,
		Xcrun:         "xcrun",
		Open:          "open",
		PS:            "ps",
		SimulatorApp:  app,
		SlowTimeout:   2 * time.Minute,
		PollInterval:  500 * time.Millisecond,
		CorrelationID: correlationID,
		Context:       context.Background(),
	}
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
