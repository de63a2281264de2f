// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

package simulator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Default geolocation handed to a freshly connected bridge.
const (
	defaultLatitude  = 37.485023
	defaultLongitude = -122.147911
)

type bootStage int

const (
	stageNotStarted bootStage = iota
	stageDeviceControlBooted
	stageCompanionLaunched
	stageBridgeConnected
	stageServicesVerified
	stageBooted
	stageFailed
)

func (s bootStage) String() string {
	switch s {
	case stageNotStarted:
		return "NotStarted"
	case stageDeviceControlBooted:
		return "DeviceControlBooted"
	case stageCompanionLaunched:
		return "CompanionLaunched"
	case stageBridgeConnected:
		return "BridgeConnected"
	case stageServicesVerified:
		return "ServicesVerified"
	case stageBooted:
		return "Booted"
	default:
		return "Failed"
	}
}

// Orchestrator sequences the boot stages for devices on one host toolchain.
// A single attempt is a sequential pipeline; stages never overlap because
// each depends on host-side state the previous one established. Concurrent
// attempts against the same device are not supported.
type Orchestrator struct {
	env           Env
	host          Host
	collaborators Collaborators
}

// NewOrchestrator builds an orchestrator over the given collaborators. Any
// nil collaborator is filled with its production counterpart, so a partially
// populated bundle never dereferences nil mid-boot.
func NewOrchestrator(env Env, host Host, collaborators Collaborators) *Orchestrator {
	defaults := ProductionCollaborators(env)
	if collaborators.Framebuffer == nil {
		collaborators.Framebuffer = defaults.Framebuffer
	}
	if collaborators.HID == nil {
		collaborators.HID = defaults.HID
	}
	if collaborators.Bridge == nil {
		collaborators.Bridge = defaults.Bridge
	}
	if collaborators.Processes == nil {
		collaborators.Processes = defaults.Processes
	}
	if collaborators.Services == nil {
		collaborators.Services = defaults.Services
	}
	if collaborators.Events == nil {
		collaborators.Events = defaults.Events
	}
	if collaborators.Clock == nil {
		collaborators.Clock = defaults.Clock
	}
	return &Orchestrator{env: env, host: host, collaborators: collaborators}
}

// Boot takes a device from Shutdown to a usable running state and returns
// the connection handle. A device already in Booted state is a no-op
// success; any state other than Shutdown or Booted is a precondition
// failure with no side effects. Failures are terminal for the attempt:
// already-established connections are not rolled back here, that is the
// device lifecycle owner's job.
func (o *Orchestrator) Boot(ctx context.Context, config BootConfiguration, device Device) (*Connection, error) {
	sessionID := uuid.NewString()
	_, span := startSpan(o.env, "simulator.Boot",
		attribute.String("udid", device.UDID()),
		attribute.String("generation", o.host.Generation().String()),
		attribute.String("session_id", sessionID),
	)
	defer span.End()

	stage := stageNotStarted
	fail := func(err error) (*Connection, error) {
		recordSpanError(span, err)
		logEvent(o.env, "boot attempt failed",
			"udid", device.UDID(),
			"session_id", sessionID,
			"stage", stage.String(),
			"error", err,
		)
		stage = stageFailed
		return nil, err
	}
	advance := func(next bootStage) {
		stage = next
		logEvent(o.env, "boot stage reached",
			"udid", device.UDID(),
			"session_id", sessionID,
			"stage", stage.String(),
		)
	}

	switch state := device.State(); state {
	case StateBooted:
		logEvent(o.env, "device already booted", "udid", device.UDID(), "session_id", sessionID)
		return &Connection{}, nil
	case StateShutdown:
		// bootable
	default:
		return fail(preconditionError(device, state))
	}

	options, err := ResolveBootOptions(o.host.Generation(), config)
	if err != nil {
		return fail(fmt.Errorf("resolving boot options for %s: %w", device.UDID(), err))
	}

	connection, err := performDirectBoot(ctx, o.env, config, device, options, o.collaborators)
	if err != nil {
		return fail(err)
	}
	advance(stageDeviceControlBooted)

	if err := launchCompanionIfNeeded(ctx, o.env, o.host, config, device, o.collaborators); err != nil {
		return fail(err)
	}
	advance(stageCompanionLaunched)

	if config.ConnectBridge {
		bridge, err := o.collaborators.Bridge.Connect(ctx, device)
		if err != nil {
			return fail(fmt.Errorf("bridge connection for %s: %w", device.UDID(), err))
		}
		if err := bridge.SetLocation(defaultLatitude, defaultLongitude); err != nil {
			return fail(fmt.Errorf("setting default location on %s: %w", device.UDID(), err))
		}
		advance(stageBridgeConnected)
	}

	if _, err := awaitReadiness(ctx, o.env, o.host, config, device, o.collaborators); err != nil {
		return fail(err)
	}
	advance(stageServicesVerified)

	o.collaborators.Events.ConnectionDidEstablish(connection)
	advance(stageBooted)
	return connection, nil
}

// loggingEventSink is the default sink: every notification becomes a
// structured log event.
type loggingEventSink struct {
	env Env
}

func (s loggingEventSink) ContainerDidLaunch(process ProcessInfo) {
	logEvent(s.env, "companion process launched", "pid", process.PID, "name", process.Name)
}

func (s loggingEventSink) SupervisorDiscovered(process ProcessInfo) {
	logEvent(s.env, "service supervisor discovered", "pid", process.PID, "name", process.Name)
}

func (s loggingEventSink) ConnectionDidEstablish(connection *Connection) {
	logEvent(s.env, "simulator connection established",
		"framebuffer", connection.Framebuffer != nil,
		"hid", connection.HID != nil,
	)
}
