package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/goccy/go-yaml"
)

const defaultAPI = "https://api.endorlabs.com"

// Config holds all settings for the action, merged from the optional YAML
// configuration file and the environment.
type Config struct {
	Endorctl EndorctlSpec `yaml:"endorctl"`
	Scan     ScanSpec     `yaml:"scan"`
}

// EndorctlSpec configures how the scanner binary is provisioned and
// authenticated. Version and Checksum pin an exact release; when Version is
// empty the latest release is resolved from the metadata service at API.
// Either Token or the CredentialsKey/CredentialsSecret pair must be set for
// scans.
type EndorctlSpec struct {
	Version  string `yaml:"version"`
	Checksum string `yaml:"checksum"`
	API      string `yaml:"api"`

	Token             string `yaml:"token"`
	CredentialsKey    string `yaml:"credentialsKey"`
	CredentialsSecret string `yaml:"credentialsSecret"`
}

// ScanSpec configures the downstream scan invocation.
type ScanSpec struct {
	Namespace  string   `yaml:"namespace"`
	Path       string   `yaml:"path"`
	Languages  []string `yaml:"languages"`
	OutputFile string   `yaml:"outputFile"`
	Flags      []string `yaml:"flags"`
}

// LoadConfig reads the configuration from a reader into `cfg`.
func LoadConfig(r io.Reader, cfg *Config) error {
	if r == nil {
		return nil
	}
	return yaml.NewDecoder(r).Decode(cfg)
}

// LoadConfigFile reads the configuration from a file into `cfg`.
func LoadConfigFile(name string, cfg *Config) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()
	return LoadConfig(file, cfg)
}

// applyEnv overlays environment-provided settings onto the configuration.
// Environment values win over the config file, matching how action inputs
// are delivered on CI runners.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ENDORCTL_VERSION"); v != "" {
		cfg.Endorctl.Version = v
	}
	if v := os.Getenv("ENDORCTL_CHECKSUM"); v != "" {
		cfg.Endorctl.Checksum = v
	}
	if v := os.Getenv("ENDOR_API"); v != "" {
		cfg.Endorctl.API = v
	}
	if v := os.Getenv("ENDOR_API_TOKEN"); v != "" {
		cfg.Endorctl.Token = v
	}
	if v := os.Getenv("ENDOR_API_CREDENTIALS_KEY"); v != "" {
		cfg.Endorctl.CredentialsKey = v
	}
	if v := os.Getenv("ENDOR_API_CREDENTIALS_SECRET"); v != "" {
		cfg.Endorctl.CredentialsSecret = v
	}
	if v := os.Getenv("ENDOR_NAMESPACE"); v != "" {
		cfg.Scan.Namespace = v
	}
	if v := os.Getenv("ENDOR_SCAN_PATH"); v != "" {
		cfg.Scan.Path = v
	}
	if v := os.Getenv("ENDOR_SCAN_FLAGS"); v != "" {
		cfg.Scan.Flags = append(cfg.Scan.Flags, strings.Fields(v)...)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Endorctl.API == "" {
		cfg.Endorctl.API = defaultAPI
	}
	if cfg.Scan.Path == "" {
		cfg.Scan.Path = "."
	}
}

// validateProvision checks the provisioning inputs before any network or
// filesystem activity. A pinned version must be valid semver.
func (c *Config) validateProvision() error {
	if v := c.Endorctl.Version; v != "" {
		if _, err := semver.NewVersion(v); err != nil {
			return fmt.Errorf("invalid pinned version %q: %w", v, err)
		}
	}
	return nil
}

// validateScan checks the settings the scan invocation needs on top of the
// provisioning inputs.
func (c *Config) validateScan() error {
	if err := c.validateProvision(); err != nil {
		return err
	}
	if c.Scan.Namespace == "" {
		return fmt.Errorf("missing namespace: set ENDOR_NAMESPACE or scan.namespace")
	}
	if !c.Endorctl.hasCredentials() {
		return fmt.Errorf("missing credentials: set ENDOR_API_TOKEN or ENDOR_API_CREDENTIALS_KEY and ENDOR_API_CREDENTIALS_SECRET")
	}
	return nil
}

func (s EndorctlSpec) hasCredentials() bool {
	return s.Token != "" || (s.CredentialsKey != "" && s.CredentialsSecret != "")
}

// scanArgs assembles the argument vector for the endorctl invocation.
func scanArgs(spec ScanSpec) []string {
	args := []string{"scan", "--path", spec.Path, "--output-type", "json"}
	if spec.Namespace != "" {
		args = append(args, "--namespace", spec.Namespace)
	}
	if len(spec.Languages) > 0 {
		args = append(args, "--languages", strings.Join(spec.Languages, ","))
	}
	return append(args, spec.Flags...)
}
