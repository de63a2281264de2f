// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

// Package simulatormanager provides a Go library for booting iOS-style
// simulators into a usable state for automated testing.
package simulatormanager

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wangyja/FBSimulatorControl/internal/simulator"
)

var tracer = otel.Tracer("simulatormanager")

// Manager provides high-level simulator boot operations.
type Manager struct {
	env simulator.Env
}

// New creates a new Manager with auto-detected environment.
func New() *Manager {
	return &Manager{
		env: simulator.Detect(),
	}
}

// NewWithCorrelationID creates a new Manager with a correlation ID for structured logs.
func NewWithCorrelationID(correlationID string) *Manager {
	return NewWithContextAndCorrelationID(context.Background(), correlationID)
}

// NewWithContext creates a new Manager with a custom context for tracing.
func NewWithContext(ctx context.Context) *Manager {
	return NewWithContextAndCorrelationID(ctx, "")
}

// NewWithContextAndCorrelationID creates a new Manager with a custom context and correlation ID.
func NewWithContextAndCorrelationID(ctx context.Context, correlationID string) *Manager {
	env := simulator.Detect()
	if ctx == nil {
		ctx = context.Background()
	}
	env.Context = ctx
	env.CorrelationID = correlationID
	return &Manager{
		env: env,
	}
}

// NewWithEnv creates a new Manager with custom environment configuration.
func NewWithEnv(env Environment) *Manager {
	ctx := env.Context
	if ctx == nil {
		ctx = context.Background()
	}
	detected := simulator.Detect()
	resolved := simulator.Env{
		DeveloperDir:  pick(env.DeveloperDir, detected.DeveloperDir),
		DeviceSetPath: pick(env.DeviceSetPath, detected.DeviceSetPath),
		Xcrun:         pick(env.XcrunBin, detected.Xcrun),
		Open:          pick(env.OpenBin, detected.Open),
		PS:            pick(env.PSBin, detected.PS),
		SimulatorApp:  pick(env.SimulatorApp, detected.SimulatorApp),
		SlowTimeout:   detected.SlowTimeout,
		PollInterval:  detected.PollInterval,
		CorrelationID: env.CorrelationID,
		Context:       ctx,
	}
	if env.SlowTimeout > 0 {
		resolved.SlowTimeout = env.SlowTimeout
	}
	return &Manager{env: resolved}
}

func pick(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

// Environment holds configuration for host tools and paths.
type Environment struct {
	DeveloperDir  string          // DEVELOPER_DIR
	DeviceSetPath string          // device set directory
	XcrunBin      string          // path to xcrun (default: "xcrun")
	OpenBin       string          // path to open (default: "open")
	PSBin         string          // path to ps (default: "ps")
	SimulatorApp  string          // Simulator.app executable
	SlowTimeout   time.Duration   // bound on blocking waits (default: 2m)
	CorrelationID string          // correlation ID for log enrichment
	Context       context.Context // context for tracing
}

// BootConfig is the caller's intent for one boot attempt.
type BootConfig struct {
	ConnectFramebuffer bool   // connect a framebuffer on direct boots
	ConnectBridge      bool   // connect the simulator bridge after boot
	UseCompanionApp    bool   // boot via Simulator.app instead of the device-control API
	LaunchMechanism    string // "subprocess" (default) or "workspace"
	Scale              string // companion window scale, e.g. "0.5"
	UseCustomDeviceSet bool   // pass the device set path to the companion
	AwaitServices      bool   // block until required services are running
}

func (c BootConfig) core() (simulator.BootConfiguration, error) {
	mechanism := simulator.LaunchViaSubprocess
	switch c.LaunchMechanism {
	case "", "subprocess":
	case "workspace":
		mechanism = simulator.LaunchViaWorkspace
	default:
		return simulator.BootConfiguration{}, fmt.Errorf("unknown launch mechanism %q", c.LaunchMechanism)
	}
	return simulator.BootConfiguration{
		ConnectFramebuffer: c.ConnectFramebuffer,
		ConnectBridge:      c.ConnectBridge,
		UseCompanionApp:    c.UseCompanionApp,
		LaunchMechanism:    mechanism,
		Scale:              c.Scale,
		UseCustomDeviceSet: c.UseCustomDeviceSet,
		AwaitServices:      c.AwaitServices,
	}, nil
}

// BootRequest describes one boot attempt.
type BootRequest struct {
	UDID   string // device UDID (required)
	Config BootConfig
}

// BootResult reports what a successful boot established.
type BootResult struct {
	UDID           string
	HasFramebuffer bool
	HasHID         bool
}

// DeviceInfo contains information about a simulator device.
type DeviceInfo struct {
	UDID    string // device UDID
	Name    string // device name
	State   string // lifecycle state as reported by the device-control layer
	Runtime string // runtime identifier
}

// ServiceInfo is one running service of a booted device.
type ServiceInfo struct {
	Name string
	PID  int
}

// Boot boots a device and blocks until it is usable per the configuration.
func (m *Manager) Boot(req BootRequest) (BootResult, error) {
	ctx, span := m.startSpan("simulatormanager.Boot", attribute.String("udid", req.UDID))
	defer span.End()
	config, err := req.Config.core()
	if err != nil {
		span.RecordError(err)
		return BootResult{}, err
	}
	host, err := simulator.DetectHost(m.env)
	if err != nil {
		span.RecordError(err)
		return BootResult{}, err
	}
	device, err := simulator.FindDevice(m.env, req.UDID)
	if err != nil {
		span.RecordError(err)
		return BootResult{}, err
	}
	orchestrator := simulator.NewOrchestrator(m.env, host, simulator.ProductionCollaborators(m.env))
	connection, err := orchestrator.Boot(ctx, config, device)
	if err != nil {
		span.RecordError(err)
		return BootResult{}, err
	}
	return BootResult{
		UDID:           req.UDID,
		HasFramebuffer: connection.Framebuffer != nil,
		HasHID:         connection.HID != nil,
	}, nil
}

// List returns the devices in the active device set.
func (m *Manager) List() ([]DeviceInfo, error) {
	infos, err := simulator.ListDevices(m.env)
	if err != nil {
		return nil, err
	}
	result := make([]DeviceInfo, len(infos))
	for i, info := range infos {
		result[i] = DeviceInfo{
			UDID:    info.UDID,
			Name:    info.Name,
			State:   info.State,
			Runtime: info.Runtime,
		}
	}
	return result, nil
}

// Services returns the running services of a booted device.
func (m *Manager) Services(udid string) ([]ServiceInfo, error) {
	ctx, span := m.startSpan("simulatormanager.Services", attribute.String("udid", udid))
	defer span.End()
	device, err := simulator.FindDevice(m.env, udid)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	services, err := simulator.NewServiceRegistry(m.env).ListServices(ctx, device)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	result := make([]ServiceInfo, 0, len(services))
	for name, process := range services {
		result = append(result, ServiceInfo{Name: name, PID: process.PID})
	}
	return result, nil
}

func (m *Manager) startSpan(name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if m.env.CorrelationID != "" {
		attrs = append(attrs, attribute.String("correlation_id", m.env.CorrelationID))
	}
	ctx := m.env.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
