// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

package simulator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/containerd/errdefs"
)

var modernHost = Host{XcodeMajor: 9, XcodeMinor: 2}

func TestCompanionArgumentsAlwaysCarryUDIDAndKeyboardFlag(t *testing.T) {
	device := &fakeDevice{udid: "ABCD-1234", deviceType: "com.apple.CoreSimulator.SimDeviceType.iPhone-8"}
	args, err := CompanionArguments(modernHost, BootConfiguration{}, device)
	if err != nil {
		t.Fatalf("arguments: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-CurrentDeviceUDID ABCD-1234") {
		t.Fatalf("missing UDID argument: %v", args)
	}
	if !strings.Contains(joined, "-ConnectHardwareKeyboard 0") {
		t.Fatalf("hardware keyboard passthrough not disabled: %v", args)
	}
}

func TestCompanionArgumentsScaleFlagIsParameterizedByDeviceType(t *testing.T) {
	device := &fakeDevice{udid: "ABCD-1234", deviceType: "com.apple.CoreSimulator.SimDeviceType.iPad-Air-2"}
	args, err := CompanionArguments(modernHost, BootConfiguration{Scale: "0.5"}, device)
	if err != nil {
		t.Fatalf("arguments: %v", err)
	}
	want := "-SimulatorWindowLastScale-com.apple.CoreSimulator.SimDeviceType.iPad-Air-2"
	found := false
	for i, arg := range args {
		if arg == want {
			found = true
			if i+1 >= len(args) || args[i+1] != "0.5" {
				t.Fatalf("scale flag has no value: %v", args)
			}
		}
	}
	if !found {
		t.Fatalf("scale flag %s not present in %v", want, args)
	}
}

func TestCompanionArgumentsDeviceSetPath(t *testing.T) {
	device := &fakeDevice{udid: "ABCD-1234", setPath: "/tmp/custom-set"}
	args, err := CompanionArguments(modernHost, BootConfiguration{UseCustomDeviceSet: true}, device)
	if err != nil {
		t.Fatalf("arguments: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-DeviceSetPath /tmp/custom-set") {
		t.Fatalf("missing device set path: %v", args)
	}
}

func TestCompanionArgumentsDeviceSetPathOnOldHostIsConfigurationError(t *testing.T) {
	device := &fakeDevice{udid: "ABCD-1234", setPath: "/tmp/custom-set"}
	oldHost := Host{XcodeMajor: 7, XcodeMinor: 1}
	_, err := CompanionArguments(oldHost, BootConfiguration{UseCustomDeviceSet: true}, device)
	if err == nil {
		t.Fatal("expected configuration error on Xcode 7.1")
	}
	if !errdefs.IsInvalidArgument(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCompanionEnvironmentCarriesDeviceIdentity(t *testing.T) {
	device := &fakeDevice{udid: "ABCD-1234", setPath: "/tmp/set"}
	environment := companionEnvironment(device)
	if environment["FBSIMULATORCONTROL_SIM_UDID"] != "ABCD-1234" {
		t.Fatalf("missing UDID in environment: %v", environment)
	}
	if environment["FBSIMULATORCONTROL_SIM_SET_PATH"] != "/tmp/set" {
		t.Fatalf("missing set path in environment: %v", environment)
	}
}

func TestLauncherForSelectsMechanism(t *testing.T) {
	env := testEnv()
	if _, ok := launcherFor(env, LaunchViaSubprocess).(*SubprocessLauncher); !ok {
		t.Fatal("expected subprocess launcher")
	}
	if _, ok := launcherFor(env, LaunchViaWorkspace).(*WorkspaceLauncher); !ok {
		t.Fatal("expected workspace launcher")
	}
}

func TestWorkspaceLauncherInvokesOpenWithoutActivation(t *testing.T) {
	dir := t.TempDir()
	captured := filepath.Join(dir, "open-args")
	openStub := filepath.Join(dir, "open")
	// printf, not echo: shell echo would eat the leading -n as its own flag.
	script := "#!/bin/sh\nprintf '%s\\n' \"$*\" > " + captured + "\nexit 0\n"
	if err := os.WriteFile(openStub, []byte(script), 0o755); err != nil {
		t.Fatalf("write open stub: %v", err)
	}

	env := testEnv()
	env.Open = openStub
	env.SimulatorApp = "/Applications/Simulator.app"
	launcher := &WorkspaceLauncher{Env: env}
	err := launcher.Launch(context.Background(), []string{"-CurrentDeviceUDID", "ABCD"}, map[string]string{"FBSIMULATORCONTROL_SIM_UDID": "ABCD"})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}

	payload, err := os.ReadFile(captured)
	if err != nil {
		t.Fatalf("read captured args: %v", err)
	}
	got := strings.TrimSpace(string(payload))
	for _, want := range []string{"-n", "-g", "--args", "-CurrentDeviceUDID ABCD"} {
		if !strings.Contains(got, want) {
			t.Fatalf("open args %q missing %q", got, want)
		}
	}
}

func TestSubprocessLauncherAcceptsLaunch(t *testing.T) {
	dir := t.TempDir()
	simStub := filepath.Join(dir, "Simulator")
	script := "#!/bin/sh\nsleep 0.1\nexit 0\n"
	if err := os.WriteFile(simStub, []byte(script), 0o755); err != nil {
		t.Fatalf("write simulator stub: %v", err)
	}

	env := testEnv()
	env.SimulatorApp = simStub
	launcher := &SubprocessLauncher{Env: env}
	if err := launcher.Launch(context.Background(), []string{"-CurrentDeviceUDID", "ABCD"}, nil); err != nil {
		t.Fatalf("launch: %v", err)
	}
	// give the reaper goroutine a moment; nothing to assert beyond acceptance
	time.Sleep(200 * time.Millisecond)
}
