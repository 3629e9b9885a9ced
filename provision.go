package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/endorlabs/endorctl-action/internal/metaerr"
)

// provisionRequest carries the caller-supplied inputs for one provisioning
// run. Version and Checksum are optional pins; when Version is set no
// metadata query happens. DownloadBase is overridable for tests only.
type provisionRequest struct {
	Version      string
	Checksum     string
	API          string
	RunnerOS     string
	RunnerArch   string
	DownloadBase string
}

// provision resolves, downloads, verifies and installs the endorctl binary.
// The stages are strictly sequential and the first error aborts the run; no
// partially trusted binary is ever left at the install path.
func provision(ctx context.Context, client *http.Client, req provisionRequest) (InstalledBinary, error) {
	platform, err := resolvePlatform(req.RunnerOS, req.RunnerArch)
	if err != nil {
		return InstalledBinary{}, metaerr.WithMetadata(err,
			"runner_os", req.RunnerOS,
			"runner_arch", req.RunnerArch,
		)
	}
	slog.Debug("resolved platform", "platform", platform.String())

	version, checksum, err := resolveVersion(ctx, client, req.API, req.Version, req.Checksum, platform)
	if err != nil {
		return InstalledBinary{}, err
	}
	slog.Debug("resolved version", "version", version)

	// Stage under the working directory so the final rename into place never
	// crosses a filesystem boundary (the system temp dir is often a
	// different mount on CI hosts).
	tmpDir, err := os.MkdirTemp(".", ".endorctl-*")
	if err != nil {
		return InstalledBinary{}, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			slog.Error("failed to remove temporary directory", "dir", tmpDir, "error", err)
		}
	}()

	url := downloadURL(req.DownloadBase, version, platform)
	path, err := download(ctx, client, url, tmpDir)
	if err != nil {
		return InstalledBinary{}, err
	}
	slog.Debug("downloaded binary", "url", url, "path", path)

	if err := verifyChecksum(path, checksum); err != nil {
		return InstalledBinary{}, err
	}

	bin, err := install(path, platform)
	if err != nil {
		return InstalledBinary{}, err
	}
	slog.Info("installed endorctl", "path", bin.Path, "version", version)

	if err := writeInstallRecord(bin.Dir, newInstallRecord(version, platform, url, checksum)); err != nil {
		slog.Warn("failed to write install record", "error", err)
	}

	return bin, nil
}
