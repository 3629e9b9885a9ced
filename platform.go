package main

import (
	"fmt"
	"strings"
)

// Canonical OS and architecture tokens, as used in download URLs and
// checksum keys. These are distinct from the raw vocabulary the runner
// reports (RUNNER_OS / RUNNER_ARCH), which is mapped below.
const (
	osLinux   = "linux"
	osMacOS   = "macos"
	osWindows = "windows"

	archAMD64 = "amd64"
	archARM64 = "arm64"
)

// Platform is a supported (os, arch) pair in canonical vocabulary.
type Platform struct {
	OS   string
	Arch string
}

// runnerOSNames maps the runner's OS vocabulary to canonical tokens. Both
// the RUNNER_OS spelling and the lowercase form are accepted. The mapping is
// kept as an explicit table so the supported matrix stays auditable; do not
// replace it with a case transform.
var runnerOSNames = map[string]string{
	"Linux":   osLinux,
	"linux":   osLinux,
	"macOS":   osMacOS,
	"macos":   osMacOS,
	"Windows": osWindows,
	"windows": osWindows,
}

// runnerArchNames maps the runner's architecture vocabulary to canonical
// tokens.
var runnerArchNames = map[string]string{
	"X64":   archAMD64,
	"amd64": archAMD64,
	"ARM64": archARM64,
	"arm64": archARM64,
}

// resolvePlatform maps the raw runner OS and architecture strings to a
// supported canonical platform. ARM64 is only supported on macOS.
func resolvePlatform(rawOS string, rawArch string) (Platform, error) {
	os, ok := runnerOSNames[rawOS]
	if !ok {
		return Platform{}, fmt.Errorf("%w: %q", ErrUnsupportedOS, rawOS)
	}

	arch, ok := runnerArchNames[rawArch]
	if !ok {
		return Platform{}, fmt.Errorf("%w: %q", ErrUnsupportedArch, rawArch)
	}

	if arch == archARM64 && os != osMacOS {
		return Platform{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedCombination, os, arch)
	}

	return Platform{OS: os, Arch: arch}, nil
}

// checksumKey returns the key under which the metadata service publishes
// this platform's binary checksum, e.g. ARCH_TYPE_LINUX_AMD64.
func (p Platform) checksumKey() string {
	return "ARCH_TYPE_" + strings.ToUpper(p.OS) + "_" + strings.ToUpper(p.Arch)
}

// binaryName returns the installed binary's file name for this platform.
func (p Platform) binaryName() string {
	if p.OS == osWindows {
		return "endorctl.exe"
	}
	return "endorctl"
}

func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}
