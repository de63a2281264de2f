// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

func run(env Env, bin string, args ...string) (string, error) {
	cmd := exec.Command(bin, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = newCommandLogWriter(env, bin, args)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %v failed: %v\n%s", bin, args, err, buf.String())
	}
	return buf.String(), nil
}

// DetectHost resolves the installed Xcode version via xcodebuild.
func DetectHost(env Env) (Host, error) {
	out, err := run(env, env.Xcrun, "xcodebuild", "-version")
	if err != nil {
		return Host{}, err
	}
	return parseXcodeVersion(out)
}

func parseXcodeVersion(out string) (Host, error) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "Xcode" {
			continue
		}
		parts := strings.SplitN(fields[1], ".", 3)
		major, err := strconv.Atoi(parts[0])
		if err != nil {
			break
		}
		minor := 0
		if len(parts) > 1 {
			minor, _ = strconv.Atoi(parts[1])
		}
		return Host{XcodeMajor: major, XcodeMinor: minor}, nil
	}
	return Host{}, fmt.Errorf("no Xcode version in xcodebuild output %q", strings.TrimSpace(out))
}

// DeviceInfo is one device entry from the device-control layer's inventory.
type DeviceInfo struct {
	UDID       string `json:"udid"`
	Name       string `json:"name"`
	State      string `json:"state"`
	DeviceType string `json:"deviceTypeIdentifier"`
	Runtime    string `json:"runtime"`
}

type simctlDeviceList struct {
	Devices map[string][]DeviceInfo `json:"devices"`
}

// ListDevices returns the inventory of the active device set.
func ListDevices(env Env) ([]DeviceInfo, error) {
	out, err := run(env, env.Xcrun, "simctl", "list", "devices", "-j")
	if err != nil {
		return nil, err
	}
	var list simctlDeviceList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		return nil, fmt.Errorf("parsing simctl device list: %w", err)
	}
	var infos []DeviceInfo
	for runtime, devices := range list.Devices {
		for _, d := range devices {
			d.Runtime = runtime
			infos = append(infos, d)
		}
	}
	return infos, nil
}

// FindDevice resolves a device by UDID into a handle backed by simctl.
func FindDevice(env Env, udid string) (Device, error) {
	infos, err := ListDevices(env)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.UDID == udid {
			return &simctlDevice{env: env, info: info}, nil
		}
	}
	return nil, processNotFoundError(udid, "device")
}

// simctlDevice is the production Device implementation, shelling out to
// `xcrun simctl` for state queries and boot requests.
type simctlDevice struct {
	env  Env
	info DeviceInfo
}

func (d *simctlDevice) UDID() string { return d.info.UDID }

func (d *simctlDevice) State() DeviceState {
	infos, err := ListDevices(d.env)
	if err != nil {
		return StateUnknown
	}
	for _, info := range infos {
		if info.UDID == d.info.UDID {
			return stateFromString(info.State)
		}
	}
	return StateUnknown
}

func (d *simctlDevice) ProductFamily() ProductFamily {
	return familyFromDeviceType(d.info.DeviceType)
}

func (d *simctlDevice) DeviceTypeIdentifier() string { return d.info.DeviceType }

func (d *simctlDevice) SetPath() string { return d.env.DeviceSetPath }

func (d *simctlDevice) Boot(ctx context.Context, options map[string]any) error {
	// simctl exposes no raw option surface; the resolved map is recorded so
	// a failed boot can still be diagnosed against what was requested.
	logEvent(d.env, "requesting device boot", "udid", d.info.UDID, "options", fmt.Sprint(options))
	_, err := run(d.env, d.env.Xcrun, "simctl", "boot", d.info.UDID)
	return err
}

func familyFromDeviceType(identifier string) ProductFamily {
	switch {
	case strings.Contains(identifier, "iPhone"):
		return FamilyPhone
	case strings.Contains(identifier, "iPad"):
		return FamilyPad
	case strings.Contains(identifier, "Watch"):
		return FamilyWatch
	case strings.Contains(identifier, "TV"):
		return FamilyTV
	default:
		return FamilyOther
	}
}

// launchctlRegistry lists launchd_sim services through
// `simctl spawn <udid> launchctl list`.
type launchctlRegistry struct {
	env Env
}

func NewServiceRegistry(env Env) ServiceRegistry {
	return &launchctlRegistry{env: env}
}

func (r *launchctlRegistry) ListServices(ctx context.Context, device Device) (map[string]ProcessInfo, error) {
	out, err := run(r.env, r.env.Xcrun, "simctl", "spawn", device.UDID(), "launchctl", "list")
	if err != nil {
		return nil, err
	}
	return parseLaunchctlList(out), nil
}

// parseLaunchctlList reads `launchctl list` output: PID, last exit status
// and label, tab separated, one header line. Entries without a live PID are
// registered but not running, so they do not count as present.
func parseLaunchctlList(out string) map[string]ProcessInfo {
	services := make(map[string]ProcessInfo)
	for i, line := range strings.Split(out, "\n") {
		if i == 0 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		label := fields[2]
		services[label] = ProcessInfo{PID: pid, Name: label}
	}
	return services
}

// psProcessFetcher resolves companion and supervisor processes by scanning
// the host process table.
type psProcessFetcher struct {
	env Env
}

func NewProcessFetcher(env Env) ProcessFetcher {
	return &psProcessFetcher{env: env}
}

func (f *psProcessFetcher) CompanionProcess(ctx context.Context, device Device) (ProcessInfo, bool) {
	return f.scan(device.UDID(), "Simulator")
}

func (f *psProcessFetcher) SupervisorProcess(ctx context.Context, device Device) (ProcessInfo, bool) {
	return f.scan(device.UDID(), "launchd_sim")
}

// scan finds the first process whose arguments mention both the device UDID
// and the wanted executable name.
func (f *psProcessFetcher) scan(udid, executable string) (ProcessInfo, bool) {
	out, err := run(f.env, f.env.PS, "axo", "pid=,args=")
	if err != nil {
		return ProcessInfo{}, false
	}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		args := strings.Join(fields[1:], " ")
		if !strings.Contains(args, udid) || !strings.Contains(args, executable) {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		return ProcessInfo{PID: pid, Name: executable}, true
	}
	return ProcessInfo{}, false
}

// deviceIO is a handle onto a device's IO surface. CoreSimulator exposes IO
// to out-of-process clients only once the device is booted, so the handle
// resolves lazily on first use instead of opening anything at boot time.
type deviceIO struct {
	env  Env
	udid string
}

func (io *deviceIO) Close() error { return nil }

type hostIOFactory struct {
	env Env
}

func (f *hostIOFactory) Connect(ctx context.Context, config FramebufferConfig, device Device) (Framebuffer, error) {
	logEvent(f.env, "framebuffer surface reserved",
		"udid", device.UDID(),
		"width", config.Width,
		"height", config.Height,
	)
	return &deviceIO{env: f.env, udid: device.UDID()}, nil
}

func (f *hostIOFactory) Create(ctx context.Context, device Device) (HID, error) {
	return &deviceIO{env: f.env, udid: device.UDID()}, nil
}

// simctlBridge drives the post-boot control channel through simctl.
type simctlBridge struct {
	env  Env
	udid string
}

func (b *simctlBridge) SetLocation(latitude, longitude float64) error {
	_, err := run(b.env, b.env.Xcrun, "simctl", "location", b.udid, "set", fmt.Sprintf("%f,%f", latitude, longitude))
	return err
}

type simctlBridgeConnector struct {
	env Env
}

func (c *simctlBridgeConnector) Connect(ctx context.Context, device Device) (Bridge, error) {
	return &simctlBridge{env: c.env, udid: device.UDID()}, nil
}

// ProductionCollaborators wires the collaborators a real host provides.
func ProductionCollaborators(env Env) Collaborators {
	io := &hostIOFactory{env: env}
	return Collaborators{
		Framebuffer: io,
		HID:         io,
		Bridge:      &simctlBridgeConnector{env: env},
		Processes:   NewProcessFetcher(env),
		Services:    NewServiceRegistry(env),
		Events:      loggingEventSink{env: env},
		Clock:       systemClock{},
	}
}
