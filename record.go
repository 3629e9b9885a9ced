package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

// recordFileName is written next to the installed binary as an audit trail
// of what was provisioned during the job.
const recordFileName = ".endorctl-install.yaml"

// InstallRecord captures the provenance of an installed binary.
type InstallRecord struct {
	Installed   time.Time `yaml:"installed"`
	Version     string    `yaml:"version"`
	Platform    string    `yaml:"platform"`
	DownloadURL string    `yaml:"downloadUrl"`
	Digest      string    `yaml:"digest"`
}

func newInstallRecord(version string, platform Platform, url string, checksum string) InstallRecord {
	return InstallRecord{
		Installed:   time.Now().UTC(),
		Version:     version,
		Platform:    platform.String(),
		DownloadURL: url,
		Digest:      "sha256:" + checksum,
	}
}

func writeInstallRecord(dir string, record InstallRecord) error {
	data, err := yaml.Marshal(record)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, recordFileName), data, 0o644)
}

func readInstallRecord(dir string) (InstallRecord, error) {
	data, err := os.ReadFile(filepath.Join(dir, recordFileName))
	if err != nil {
		return InstallRecord{}, err
	}
	var record InstallRecord
	if err := yaml.Unmarshal(data, &record); err != nil {
		return InstallRecord{}, err
	}
	return record, nil
}
