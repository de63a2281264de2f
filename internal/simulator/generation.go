// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

package simulator

import "fmt"

// Generation is a version epoch of the CoreSimulator API. Each epoch has
// incompatible boot-option semantics, so boot options are resolved per
// generation rather than per exact Xcode version.
type Generation int

const (
	GenerationUnknown Generation = iota
	// GenerationA is the Xcode 7 era. Booting without a framebuffer hangs
	// mach-port calls on the host, so one is always created.
	GenerationA
	// GenerationB is the Xcode 8 era. Headless operation needs an explicit
	// environment override or a visible window appears.
	GenerationB
	// GenerationC is Xcode 9 and later. Headless is the default; boots are
	// requested as non-persistent instead.
	GenerationC
)

func (g Generation) String() string {
	switch g {
	case GenerationA:
		return "A"
	case GenerationB:
		return "B"
	case GenerationC:
		return "C"
	default:
		return "unknown"
	}
}

// Host describes the installed Xcode toolchain version.
type Host struct {
	XcodeMajor int
	XcodeMinor int
}

func (h Host) Generation() Generation {
	switch {
	case h.XcodeMajor == 7:
		return GenerationA
	case h.XcodeMajor == 8:
		return GenerationB
	case h.XcodeMajor >= 9:
		return GenerationC
	default:
		return GenerationUnknown
	}
}

// SupportsCustomDeviceSets reports whether the host toolchain can operate on
// device sets outside the default one. Xcode gained this in 7.2.
func (h Host) SupportsCustomDeviceSets() bool {
	return h.XcodeMajor > 7 || (h.XcodeMajor == 7 && h.XcodeMinor >= 2)
}

func (h Host) String() string {
	return fmt.Sprintf("Xcode %d.%d (generation %s)", h.XcodeMajor, h.XcodeMinor, h.Generation())
}
