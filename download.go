package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	_url "net/url"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/endorlabs/endorctl-action/internal/metaerr"
)

// defaultDownloadBase is where endorctl release binaries are published.
const defaultDownloadBase = "https://storage.googleapis.com/endorlabs"

// downloadURL renders the release URL for a version and platform. Windows
// binaries carry an .exe suffix.
func downloadURL(base string, version string, platform Platform) string {
	if base == "" {
		base = defaultDownloadBase
	}
	name := fmt.Sprintf("endorctl_%s_%s_%s", version, platform.OS, platform.Arch)
	if platform.OS == osWindows {
		name += ".exe"
	}
	return fmt.Sprintf("%s/%s/binaries/%s", base, version, name)
}

// download retrieves the binary at url and saves it in the given directory.
// It returns the local path to the downloaded file. No retries; a failed
// transfer fails the provisioning run.
func download(ctx context.Context, client *http.Client, url string, dir string) (string, error) {
	wrap := func(err error) error {
		return metaerr.WithMetadata(fmt.Errorf("%w: %w", ErrDownload, err), "url", url)
	}

	u, err := _url.Parse(url)
	if err != nil {
		return "", wrap(err)
	}

	file, err := os.Create(filepath.Join(dir, filepath.Base(u.Path)))
	if err != nil {
		return "", wrap(fmt.Errorf("create output file: %w", err))
	}
	defer func() {
		_ = file.Close()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", wrap(err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", wrap(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", wrap(fmt.Errorf("%d - %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		return "", wrap(fmt.Errorf("write output file: %w", err))
	}

	return file.Name(), nil
}

func defaultClient() *http.Client {
	return &http.Client{
		Transport: defaultTransport(),
	}
}

func defaultTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   runtime.GOMAXPROCS(0) + 1,
	}
}

func newAuthedClient(token string) *http.Client {
	return &http.Client{
		Transport: &authedTransport{
			Transport: defaultTransport(),
			token:     token,
		},
	}
}

type authedTransport struct {
	*http.Transport
	token string
}

func (t *authedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if values := req.Header.Values("Authorization"); len(values) == 0 {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.Transport.RoundTrip(req)
}
