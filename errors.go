package main

import "errors"

// Provisioning error kinds. Each stage wraps one of these so callers can
// classify failures with errors.Is; context lives in metaerr metadata.
var (
	ErrUnsupportedOS           = errors.New("unsupported operating system")
	ErrUnsupportedArch         = errors.New("unsupported architecture")
	ErrUnsupportedCombination  = errors.New("unsupported os/arch combination")
	ErrMetadataFetch           = errors.New("fetch version metadata")
	ErrMetadataParse           = errors.New("invalid version metadata")
	ErrUnrecognizedPlatformKey = errors.New("no checksum published for platform")
	ErrDownload                = errors.New("download binary")
	ErrChecksumMismatch        = errors.New("checksum mismatch")
	ErrInstall                 = errors.New("install binary")
)
