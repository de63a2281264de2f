// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

package simulator

import (
	"context"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time        { return c.now }
func (c *fakeClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

type fakeDevice struct {
	udid       string
	state      DeviceState
	family     ProductFamily
	deviceType string
	setPath    string
	// stateSequence, when non-empty, is consumed one entry per State call;
	// the last entry repeats.
	stateSequence []DeviceState
	bootCalls     []map[string]any
	bootErr       error
}

func (d *fakeDevice) UDID() string { return d.udid }

func (d *fakeDevice) State() DeviceState {
	if len(d.stateSequence) > 0 {
		s := d.stateSequence[0]
		if len(d.stateSequence) > 1 {
			d.stateSequence = d.stateSequence[1:]
		}
		return s
	}
	return d.state
}

func (d *fakeDevice) ProductFamily() ProductFamily { return d.family }
func (d *fakeDevice) DeviceTypeIdentifier() string { return d.deviceType }
func (d *fakeDevice) SetPath() string              { return d.setPath }

func (d *fakeDevice) Boot(ctx context.Context, options map[string]any) error {
	d.bootCalls = append(d.bootCalls, options)
	return d.bootErr
}

type fakeFramebuffer struct{}

func (fakeFramebuffer) Close() error { return nil }

type fakeFramebufferConnector struct {
	connects []FramebufferConfig
	err      error
}

func (c *fakeFramebufferConnector) Connect(ctx context.Context, config FramebufferConfig, device Device) (Framebuffer, error) {
	c.connects = append(c.connects, config)
	if c.err != nil {
		return nil, c.err
	}
	return fakeFramebuffer{}, nil
}

type fakeHID struct{}

func (fakeHID) Close() error { return nil }

type fakeHIDFactory struct {
	creates int
	err     error
}

func (f *fakeHIDFactory) Create(ctx context.Context, device Device) (HID, error) {
	f.creates++
	if f.err != nil {
		return nil, f.err
	}
	return fakeHID{}, nil
}

type fakeBridge struct {
	locations [][2]float64
}

func (b *fakeBridge) SetLocation(latitude, longitude float64) error {
	b.locations = append(b.locations, [2]float64{latitude, longitude})
	return nil
}

type fakeBridgeConnector struct {
	bridge *fakeBridge
	err    error
}

func (c *fakeBridgeConnector) Connect(ctx context.Context, device Device) (Bridge, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.bridge == nil {
		c.bridge = &fakeBridge{}
	}
	return c.bridge, nil
}

type fakeProcessFetcher struct {
	companion    ProcessInfo
	hasCompanion bool
	supervisor   ProcessInfo
	hasSuperv    bool
}

func (f *fakeProcessFetcher) CompanionProcess(ctx context.Context, device Device) (ProcessInfo, bool) {
	return f.companion, f.hasCompanion
}

func (f *fakeProcessFetcher) SupervisorProcess(ctx context.Context, device Device) (ProcessInfo, bool) {
	return f.supervisor, f.hasSuperv
}

// fakeRegistry serves one canned response per poll; the last repeats.
type fakeRegistry struct {
	responses []map[string]ProcessInfo
	queries   int
	err       error
}

func (r *fakeRegistry) ListServices(ctx context.Context, device Device) (map[string]ProcessInfo, error) {
	r.queries++
	if r.err != nil {
		return nil, r.err
	}
	if len(r.responses) == 0 {
		return map[string]ProcessInfo{}, nil
	}
	response := r.responses[0]
	if len(r.responses) > 1 {
		r.responses = r.responses[1:]
	}
	return response, nil
}

func registryWith(names ...string) map[string]ProcessInfo {
	out := make(map[string]ProcessInfo, len(names))
	for i, name := range names {
		out[name] = ProcessInfo{PID: 100 + i, Name: name}
	}
	return out
}

type fakeSink struct {
	events []string
}

func (s *fakeSink) ContainerDidLaunch(process ProcessInfo) {
	s.events = append(s.events, "container-launch")
}

func (s *fakeSink) SupervisorDiscovered(process ProcessInfo) {
	s.events = append(s.events, "supervisor-discovered")
}

func (s *fakeSink) ConnectionDidEstablish(connection *Connection) {
	s.events = append(s.events, "connection-established")
}

type fakeLauncher struct {
	launches [][]string
	envs     []map[string]string
	err      error
}

func (l *fakeLauncher) Launch(ctx context.Context, args []string, environment map[string]string) error {
	l.launches = append(l.launches, args)
	l.envs = append(l.envs, environment)
	return l.err
}

func testEnv() Env {
	return Env{
		SlowTimeout:  2 * time.Second,
		PollInterval: 500 * time.Millisecond,
		Context:      context.Background(),
	}
}

func testCollaborators() (Collaborators, *fakeSink, *fakeClock) {
	sink := &fakeSink{}
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	c := Collaborators{
		Framebuffer: &fakeFramebufferConnector{},
		HID:         &fakeHIDFactory{},
		Bridge:      &fakeBridgeConnector{},
		Processes:   &fakeProcessFetcher{supervisor: ProcessInfo{PID: 42, Name: "launchd_sim"}, hasSuperv: true},
		Services:    &fakeRegistry{},
		Events:      sink,
		Launcher:    &fakeLauncher{},
		Clock:       clock,
	}
	return c, sink, clock
}
