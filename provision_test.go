package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
)

// fixtureBinary stands in for a downloaded endorctl release.
var fixtureBinary = []byte("#!/bin/sh\necho endorctl fixture\n")

func fixtureDigest(t *testing.T) string {
	t.Helper()
	d, err := digest(strings.NewReader(string(fixtureBinary)))
	if err != nil {
		t.Fatalf("digest fixture: %v", err)
	}
	return d
}

func TestProvisionPinned(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}

	mux, storage := setupServer(t)
	mux.HandleFunc("/v1.2.3/binaries/endorctl_v1.2.3_linux_amd64", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fixtureBinary)
	})

	chdir(t, t.TempDir())

	bin, err := provision(context.Background(), http.DefaultClient, provisionRequest{
		Version:      "v1.2.3",
		Checksum:     fixtureDigest(t),
		RunnerOS:     "Linux",
		RunnerArch:   "X64",
		DownloadBase: storage.URL,
	})
	if err != nil {
		t.Fatalf("provision() failed: %v", err)
	}

	info, err := os.Stat(bin.Path)
	if err != nil {
		t.Fatalf("stat installed binary: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Errorf("installed binary is not executable: %v", info.Mode())
	}

	record, err := readInstallRecord(bin.Dir)
	if err != nil {
		t.Fatalf("read install record: %v", err)
	}
	if record.Version != "v1.2.3" {
		t.Errorf("install record version = %v, want v1.2.3", record.Version)
	}
	if record.Digest != "sha256:"+fixtureDigest(t) {
		t.Errorf("install record digest = %v, want sha256:%v", record.Digest, fixtureDigest(t))
	}
}

func TestProvisionResolvedVersion(t *testing.T) {
	var downloadPath atomic.Value

	mux, srv := setupServer(t)
	mux.HandleFunc("/meta/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"Service":{"Version":"v2.0.0"},"ClientChecksums":{"ARCH_TYPE_MACOS_ARM64":%q}}`, fixtureDigest(t))
	})
	mux.HandleFunc("/v2.0.0/", func(w http.ResponseWriter, r *http.Request) {
		downloadPath.Store(r.URL.Path)
		_, _ = w.Write(fixtureBinary)
	})

	chdir(t, t.TempDir())

	bin, err := provision(context.Background(), http.DefaultClient, provisionRequest{
		API:          srv.URL,
		RunnerOS:     "macOS",
		RunnerArch:   "ARM64",
		DownloadBase: srv.URL,
	})
	if err != nil {
		t.Fatalf("provision() failed: %v", err)
	}

	want := "/v2.0.0/binaries/endorctl_v2.0.0_macos_arm64"
	if got, _ := downloadPath.Load().(string); got != want {
		t.Errorf("download path = %v, want %v", got, want)
	}

	if _, err := os.Stat(bin.Path); err != nil {
		t.Errorf("stat installed binary: %v", err)
	}
}

func TestProvisionStagesOnDestinationFilesystem(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}

	mux, storage := setupServer(t)
	mux.HandleFunc("/v1.2.3/binaries/endorctl_v1.2.3_linux_amd64", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fixtureBinary)
	})

	chdir(t, t.TempDir())

	// The staging dir must live on the destination filesystem, not under the
	// system temp dir, so the final rename never crosses devices. An
	// unusable TMPDIR proves the system temp dir is not involved.
	t.Setenv("TMPDIR", "/nonexistent")

	bin, err := provision(context.Background(), http.DefaultClient, provisionRequest{
		Version:      "v1.2.3",
		Checksum:     fixtureDigest(t),
		RunnerOS:     "Linux",
		RunnerArch:   "X64",
		DownloadBase: storage.URL,
	})
	if err != nil {
		t.Fatalf("provision() failed: %v", err)
	}
	if _, err := os.Stat(bin.Path); err != nil {
		t.Fatalf("stat installed binary: %v", err)
	}

	// the staging dir is cleaned up afterwards
	entries, err := os.ReadDir(".")
	if err != nil {
		t.Fatalf("read working directory: %v", err)
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), ".endorctl-") {
			t.Errorf("staging directory left behind: %v", entry.Name())
		}
	}
}

func TestProvisionChecksumMismatch(t *testing.T) {
	mux, storage := setupServer(t)
	mux.HandleFunc("/v1.2.3/binaries/endorctl_v1.2.3_linux_amd64", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fixtureBinary)
	})

	chdir(t, t.TempDir())

	_, err := provision(context.Background(), http.DefaultClient, provisionRequest{
		Version:      "v1.2.3",
		Checksum:     "deadbeef",
		RunnerOS:     "Linux",
		RunnerArch:   "X64",
		DownloadBase: storage.URL,
	})
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("provision() error = %v, want %v", err, ErrChecksumMismatch)
	}

	// the unverified binary must not reach the install path
	if _, err := os.Stat("endorctl"); !os.IsNotExist(err) {
		t.Errorf("unverified binary was installed")
	}
}

func TestProvisionUnsupportedPlatform(t *testing.T) {
	var requests atomic.Int64
	mux, srv := setupServer(t)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	})

	_, err := provision(context.Background(), http.DefaultClient, provisionRequest{
		API:          srv.URL,
		RunnerOS:     "Windows",
		RunnerArch:   "ARM64",
		DownloadBase: srv.URL,
	})
	if !errors.Is(err, ErrUnsupportedCombination) {
		t.Fatalf("provision() error = %v, want %v", err, ErrUnsupportedCombination)
	}

	// platform resolution fails before any network activity
	if n := requests.Load(); n != 0 {
		t.Errorf("provision() made %d network calls, want 0", n)
	}
}
