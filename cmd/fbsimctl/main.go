// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/wangyja/FBSimulatorControl/internal/config"
	core "github.com/wangyja/FBSimulatorControl/internal/simulator"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	shutdown, err := setupTracing(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	env := core.Detect()

	root := &cobra.Command{
		Use:   "fbsimctl",
		Short: "Simulator boot orchestration tool (CI-friendly)",
	}

	// boot
	var (
		udid        string
		configPath  string
		framebuffer bool
		bridge      bool
		companion   bool
		mechanism   string
		scale       string
		customSet   bool
		await       bool
		timeout     time.Duration
	)
	bootCmd := &cobra.Command{
		Use:   "boot",
		Short: "Boot a simulator into a usable state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if udid == "" {
				return errors.New("--udid is required")
			}
			cfg := core.BootConfiguration{
				ConnectFramebuffer: framebuffer,
				ConnectBridge:      bridge,
				UseCompanionApp:    companion,
				Scale:              scale,
				UseCustomDeviceSet: customSet,
				AwaitServices:      await,
			}
			mech, err := launchMechanism(mechanism)
			if err != nil {
				return err
			}
			cfg.LaunchMechanism = mech
			if configPath != "" {
				defaults, err := config.Load(configPath)
				if err != nil {
					return err
				}
				base := defaults.Configuration()
				if !cmd.Flags().Changed("framebuffer") {
					cfg.ConnectFramebuffer = base.ConnectFramebuffer
				}
				if !cmd.Flags().Changed("bridge") {
					cfg.ConnectBridge = base.ConnectBridge
				}
				if !cmd.Flags().Changed("companion") {
					cfg.UseCompanionApp = base.UseCompanionApp
				}
				if !cmd.Flags().Changed("mechanism") {
					cfg.LaunchMechanism = base.LaunchMechanism
				}
				if !cmd.Flags().Changed("scale") {
					cfg.Scale = base.Scale
				}
				if !cmd.Flags().Changed("custom-set") {
					cfg.UseCustomDeviceSet = base.UseCustomDeviceSet
				}
				if !cmd.Flags().Changed("await-services") {
					cfg.AwaitServices = base.AwaitServices
				}
				if d := defaults.SlowTimeout(); d > 0 && !cmd.Flags().Changed("timeout") {
					env.SlowTimeout = d
				}
			}
			if cmd.Flags().Changed("timeout") {
				env.SlowTimeout = timeout
			}

			host, err := core.DetectHost(env)
			if err != nil {
				return err
			}
			device, err := core.FindDevice(env, udid)
			if err != nil {
				return err
			}
			orchestrator := core.NewOrchestrator(env, host, core.ProductionCollaborators(env))
			connection, err := orchestrator.Boot(cmd.Context(), cfg, device)
			if err != nil {
				return err
			}
			fmt.Printf("Booted %s (framebuffer=%v hid=%v)\n", udid, connection.Framebuffer != nil, connection.HID != nil)
			return nil
		},
	}
	bootCmd.Flags().StringVar(&udid, "udid", "", "device UDID")
	bootCmd.Flags().StringVar(&configPath, "config", "", "TOML boot defaults file")
	bootCmd.Flags().BoolVar(&framebuffer, "framebuffer", false, "connect a framebuffer")
	bootCmd.Flags().BoolVar(&bridge, "bridge", false, "connect the simulator bridge after boot")
	bootCmd.Flags().BoolVar(&companion, "companion", false, "boot by launching Simulator.app instead of the device-control API")
	bootCmd.Flags().StringVar(&mechanism, "mechanism", "subprocess", "companion launch mechanism: subprocess or workspace")
	bootCmd.Flags().StringVar(&scale, "scale", "", "companion window scale, e.g. 0.5")
	bootCmd.Flags().BoolVar(&customSet, "custom-set", false, "pass the custom device set path to the companion")
	bootCmd.Flags().BoolVar(&await, "await-services", false, "wait for required services, not just the Booted state")
	bootCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "slow timeout for boot confirmation and readiness")
	root.AddCommand(bootCmd)

	// list
	var listJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List simulators in the active device set",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := core.ListDevices(env)
			if err != nil {
				return err
			}
			if listJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(devices)
			}
			for _, d := range devices {
				fmt.Printf("%-38s %-20s %s\n", d.UDID, d.Name, d.State)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output JSON")
	root.AddCommand(listCmd)

	// services
	var svcUDID string
	var svcJSON bool
	servicesCmd := &cobra.Command{
		Use:   "services",
		Short: "Dump the running services of a booted simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if svcUDID == "" {
				return errors.New("--udid is required")
			}
			device, err := core.FindDevice(env, svcUDID)
			if err != nil {
				return err
			}
			services, err := core.NewServiceRegistry(env).ListServices(cmd.Context(), device)
			if err != nil {
				return err
			}
			if svcJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(services)
			}
			for name, process := range services {
				fmt.Printf("%-50s pid=%d\n", name, process.PID)
			}
			return nil
		},
	}
	servicesCmd.Flags().StringVar(&svcUDID, "udid", "", "device UDID")
	servicesCmd.Flags().BoolVar(&svcJSON, "json", false, "output JSON")
	root.AddCommand(servicesCmd)

	return root.Execute()
}

// launchMechanism parses the --mechanism flag value.
func launchMechanism(value string) (core.LaunchMechanism, error) {
	switch value {
	case "", "subprocess":
		return core.LaunchViaSubprocess, nil
	case "workspace":
		return core.LaunchViaWorkspace, nil
	}
	return core.LaunchViaSubprocess, fmt.Errorf("unknown launch mechanism %q (want subprocess or workspace)", value)
}

// setupTracing installs an OTLP trace exporter when FBSIM_OTLP_ENDPOINT is
// set; otherwise tracing stays on the no-op provider.
func setupTracing(ctx context.Context) (func(), error) {
	endpoint := os.Getenv("FBSIM_OTLP_ENDPOINT")
	if endpoint == "" {
		return func() {}, nil
	}
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}
	// The semconv schema URL must match resource.Default()'s; Merge rejects
	// resources with conflicting schema URLs.
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("fbsimctl"),
	))
	if err != nil {
		return nil, fmt.Errorf("building trace resource: %w", err)
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}, nil
}
