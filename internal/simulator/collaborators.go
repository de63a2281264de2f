// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

package simulator

import (
	"context"
	"time"
)

// DeviceState mirrors the lifecycle states CoreSimulator reports for a
// device. The boot core only reads it; transitions happen host-side.
type DeviceState int

const (
	StateUnknown DeviceState = iota
	StateCreating
	StateShutdown
	StateBooting
	StateBooted
	StateShuttingDown
)

func (s DeviceState) String() string {
	switch s {
	case StateCreating:
		return "Creating"
	case StateShutdown:
		return "Shutdown"
	case StateBooting:
		return "Booting"
	case StateBooted:
		return "Booted"
	case StateShuttingDown:
		return "Shutting Down"
	default:
		return "Unknown"
	}
}

func stateFromString(s string) DeviceState {
	switch s {
	case "Creating":
		return StateCreating
	case "Shutdown":
		return StateShutdown
	case "Booting":
		return StateBooting
	case "Booted":
		return StateBooted
	case "Shutting Down", "ShuttingDown":
		return StateShuttingDown
	default:
		return StateUnknown
	}
}

// ProductFamily is the coarse hardware class of a device. The set of
// services that signals readiness differs per family.
type ProductFamily int

const (
	FamilyOther ProductFamily = iota
	FamilyPhone
	FamilyPad
	FamilyWatch
	FamilyTV
)

func (f ProductFamily) String() string {
	switch f {
	case FamilyPhone:
		return "iPhone"
	case FamilyPad:
		return "iPad"
	case FamilyWatch:
		return "Apple Watch"
	case FamilyTV:
		return "Apple TV"
	default:
		return "other"
	}
}

// Device is the handle the device-control layer exposes for one simulator.
type Device interface {
	UDID() string
	State() DeviceState
	ProductFamily() ProductFamily
	// DeviceTypeIdentifier is the hardware-type identifier, e.g.
	// com.apple.CoreSimulator.SimDeviceType.iPhone-8.
	DeviceTypeIdentifier() string
	// SetPath is the device set this device belongs to.
	SetPath() string
	Boot(ctx context.Context, options map[string]any) error
}

// ProcessInfo identifies a host-side process backing part of a simulator.
type ProcessInfo struct {
	PID  int    `json:"pid"`
	Name string `json:"name"`
}

// Framebuffer is an established display-buffer connection. Torn down by the
// device lifecycle owner, not by the boot core.
type Framebuffer interface {
	Close() error
}

// FramebufferConfig describes the surface to render into.
type FramebufferConfig struct {
	Width       int
	Height      int
	ScaleFactor float64
}

type FramebufferConnector interface {
	Connect(ctx context.Context, config FramebufferConfig, device Device) (Framebuffer, error)
}

// HID is an established input-injection connection.
type HID interface {
	Close() error
}

type HIDFactory interface {
	Create(ctx context.Context, device Device) (HID, error)
}

// Bridge is the inter-process control channel to a booted simulator.
type Bridge interface {
	SetLocation(latitude, longitude float64) error
}

type BridgeConnector interface {
	Connect(ctx context.Context, device Device) (Bridge, error)
}

// ProcessFetcher resolves the host processes backing a simulator. The
// boolean reports presence; lookup failures count as absent.
type ProcessFetcher interface {
	CompanionProcess(ctx context.Context, device Device) (ProcessInfo, bool)
	SupervisorProcess(ctx context.Context, device Device) (ProcessInfo, bool)
}

// ServiceRegistry lists the services the device's supervisor has started.
type ServiceRegistry interface {
	ListServices(ctx context.Context, device Device) (map[string]ProcessInfo, error)
}

// EventSink receives lifecycle notifications. Within one boot attempt the
// orchestrator calls these synchronously and in this order: container
// launch, supervisor discovery, connection establishment.
type EventSink interface {
	ContainerDidLaunch(process ProcessInfo)
	SupervisorDiscovered(process ProcessInfo)
	ConnectionDidEstablish(connection *Connection)
}

// Connection is the result of a successful boot. Either fully populated per
// the resolved boot options or the attempt has already failed.
type Connection struct {
	Framebuffer Framebuffer
	HID         HID
}

// Clock abstracts time for the bounded waits so tests can simulate elapsed
// time without real delays.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Collaborators bundles the external subsystems a boot attempt touches.
type Collaborators struct {
	Framebuffer FramebufferConnector
	HID         HIDFactory
	Bridge      BridgeConnector
	Processes   ProcessFetcher
	Services    ServiceRegistry
	Events      EventSink
	// Launcher overrides the mechanism derived from the boot configuration
	// when non-nil.
	Launcher Launcher
	Clock    Clock
}
