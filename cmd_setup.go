package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cluttrdev/cli"
	"github.com/pterm/pterm"

	"github.com/endorlabs/endorctl-action/internal/metaerr"
)

func newSetupCmd() *cli.Command {
	cfg := setupCmd{}

	fs := flag.NewFlagSet("endorctl-action setup", flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       "setup",
		ShortHelp:  "Provision the endorctl binary without running a scan.",
		ShortUsage: "endorctl-action setup [OPTION]...",
		Flags:      fs,
		Exec:       cfg.Exec,
	}
}

type setupCmd struct {
	rootCmd

	version  string
	checksum string
	api      string
}

func (c *setupCmd) RegisterFlags(fs *flag.FlagSet) {
	c.rootCmd.RegisterFlags(fs)

	fs.StringVar(&c.version, "version", "", "Pin the endorctl version to install.")
	fs.StringVar(&c.checksum, "checksum", "", "Expected sha256 checksum of the pinned version.")
	fs.StringVar(&c.api, "api", "", "The Endor Labs API base url.")
}

func (c *setupCmd) Exec(ctx context.Context, args []string) (err error) {
	c.initLogging()

	defer func() {
		if err != nil && c.logFile != os.Stderr {
			err = fmt.Errorf("%w\nSee %s for details", err, c.logFile.Name())
		}
	}()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	c.applyFlags(&cfg)

	if err := cfg.validateProvision(); err != nil {
		return err
	}

	bin, err := provisionBinary(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Println(bin.Path)
	return nil
}

func (c *setupCmd) applyFlags(cfg *Config) {
	if c.version != "" {
		cfg.Endorctl.Version = c.version
	}
	if c.checksum != "" {
		cfg.Endorctl.Checksum = c.checksum
	}
	if c.api != "" {
		cfg.Endorctl.API = c.api
	}
}

// provisionBinary runs the provisioning pipeline for the configured version
// and the platform reported by the runner, and publishes the install
// directory on the search path. A binary provisioned earlier in the same job
// is reused when it matches the pinned version.
func provisionBinary(ctx context.Context, cfg Config) (InstalledBinary, error) {
	if bin, ok := previouslyInstalled(cfg); ok {
		slog.Info("reusing endorctl installed earlier in this job", "path", bin.Path, "version", cfg.Endorctl.Version)
		if err := publishPath(bin.Dir); err != nil {
			return InstalledBinary{}, fmt.Errorf("publish install directory: %w", err)
		}
		return bin, nil
	}

	req := provisionRequest{
		Version:    cfg.Endorctl.Version,
		Checksum:   cfg.Endorctl.Checksum,
		API:        cfg.Endorctl.API,
		RunnerOS:   os.Getenv("RUNNER_OS"),
		RunnerArch: os.Getenv("RUNNER_ARCH"),
	}

	spinner, _ := pterm.DefaultSpinner.Start("Provisioning endorctl")
	bin, err := provision(ctx, apiClient(cfg.Endorctl), req)
	if err != nil {
		slog.With("error", err).
			With(metaerr.GetMetadata(err)...).
			Error("failed to provision endorctl")
		spinner.Fail("Failed to provision endorctl: ", err)
		return InstalledBinary{}, err
	}
	spinner.Success("Provisioned ", bin.Path)

	if err := publishPath(bin.Dir); err != nil {
		return InstalledBinary{}, fmt.Errorf("publish install directory: %w", err)
	}

	return bin, nil
}

func apiClient(spec EndorctlSpec) *http.Client {
	if spec.Token != "" {
		return newAuthedClient(spec.Token)
	}
	return defaultClient()
}

// previouslyInstalled reports whether the install path already holds a
// binary recorded with the pinned version. Unpinned runs always provision
// fresh, since the latest release may have moved.
func previouslyInstalled(cfg Config) (InstalledBinary, bool) {
	if cfg.Endorctl.Version == "" {
		return InstalledBinary{}, false
	}

	platform, err := resolvePlatform(os.Getenv("RUNNER_OS"), os.Getenv("RUNNER_ARCH"))
	if err != nil {
		return InstalledBinary{}, false
	}

	dst, err := filepath.Abs(platform.binaryName())
	if err != nil {
		return InstalledBinary{}, false
	}

	record, err := readInstallRecord(filepath.Dir(dst))
	if err != nil || record.Version != cfg.Endorctl.Version {
		return InstalledBinary{}, false
	}
	if checksum := cfg.Endorctl.Checksum; checksum != "" && record.Digest != "sha256:"+strings.ToLower(checksum) {
		return InstalledBinary{}, false
	}

	if _, err := os.Stat(dst); err != nil {
		return InstalledBinary{}, false
	}

	return InstalledBinary{Path: dst, Dir: filepath.Dir(dst)}, true
}
