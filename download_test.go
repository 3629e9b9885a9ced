package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
)

func Test_downloadURL(t *testing.T) {
	tests := []struct {
		testName string // description of this test case
		// Named input parameters for target function.
		base     string
		version  string
		platform Platform
		want     string
	}{
		{
			testName: "linux amd64",
			version:  "v1.2.3",
			platform: Platform{OS: osLinux, Arch: archAMD64},
			want:     "https://storage.googleapis.com/endorlabs/v1.2.3/binaries/endorctl_v1.2.3_linux_amd64",
		},
		{
			testName: "macos arm64",
			version:  "v2.0.0",
			platform: Platform{OS: osMacOS, Arch: archARM64},
			want:     "https://storage.googleapis.com/endorlabs/v2.0.0/binaries/endorctl_v2.0.0_macos_arm64",
		},
		{
			testName: "windows gets exe suffix",
			version:  "v1.2.3",
			platform: Platform{OS: osWindows, Arch: archAMD64},
			want:     "https://storage.googleapis.com/endorlabs/v1.2.3/binaries/endorctl_v1.2.3_windows_amd64.exe",
		},
		{
			testName: "custom base",
			base:     "http://127.0.0.1:8080",
			version:  "v1.2.3",
			platform: Platform{OS: osLinux, Arch: archAMD64},
			want:     "http://127.0.0.1:8080/v1.2.3/binaries/endorctl_v1.2.3_linux_amd64",
		},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			if got := downloadURL(tt.base, tt.version, tt.platform); got != tt.want {
				t.Errorf("downloadURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_download(t *testing.T) {
	mux, srv := setupServer(t)
	mux.HandleFunc("/v1.2.3/binaries/endorctl_v1.2.3_linux_amd64", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("binary content"))
	})

	dir := t.TempDir()
	url := srv.URL + "/v1.2.3/binaries/endorctl_v1.2.3_linux_amd64"

	path, err := download(context.Background(), http.DefaultClient, url, dir)
	if err != nil {
		t.Fatalf("download() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "binary content" {
		t.Errorf("download() content = %q, want %q", data, "binary content")
	}
}

func Test_downloadNotFound(t *testing.T) {
	_, srv := setupServer(t)

	_, err := download(context.Background(), http.DefaultClient, srv.URL+"/missing", t.TempDir())
	if !errors.Is(err, ErrDownload) {
		t.Fatalf("download() error = %v, want %v", err, ErrDownload)
	}
}

func Test_downloadUnreachable(t *testing.T) {
	_, srv := setupServer(t)
	url := srv.URL + "/gone"
	srv.Close()

	_, err := download(context.Background(), http.DefaultClient, url, t.TempDir())
	if !errors.Is(err, ErrDownload) {
		t.Fatalf("download() error = %v, want %v", err, ErrDownload)
	}
}
