package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/endorlabs/endorctl-action/internal/metaerr"
)

// versionMetadata is the shape of the metadata service response. The nested
// Service object is a pointer so a structurally incomplete response can be
// told apart from an empty one.
type versionMetadata struct {
	Service         *serviceMetadata  `json:"Service"`
	ClientChecksums map[string]string `json:"ClientChecksums"`
}

type serviceMetadata struct {
	Version string `json:"Version"`
}

// maxBodyExcerpt bounds how much of a bad response body gets attached to an
// error, to keep log lines readable.
const maxBodyExcerpt = 1024

// resolveVersion determines the endorctl version and its expected checksum
// for the given platform.
//
// A non-empty pinned version short-circuits: the pinned version and checksum
// are returned verbatim without any network call. Otherwise the metadata
// service at `<api>/meta/version` is queried and the checksum is selected by
// the platform's key.
func resolveVersion(ctx context.Context, client *http.Client, api string, pinnedVersion string, pinnedChecksum string, platform Platform) (string, string, error) {
	if pinnedVersion != "" {
		return pinnedVersion, pinnedChecksum, nil
	}

	url := strings.TrimRight(api, "/") + "/meta/version"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", metaerr.WithMetadata(
			fmt.Errorf("%w: %w", ErrMetadataFetch, err),
			"url", url,
		)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", "", metaerr.WithMetadata(
			fmt.Errorf("%w: %w", ErrMetadataFetch, err),
			"url", url,
		)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", metaerr.WithMetadata(
			fmt.Errorf("%w: read response body: %w", ErrMetadataFetch, err),
			"url", url,
		)
	}

	if resp.StatusCode != http.StatusOK {
		return "", "", metaerr.WithMetadata(
			fmt.Errorf("%w: %d - %s", ErrMetadataFetch, resp.StatusCode, http.StatusText(resp.StatusCode)),
			"url", url,
			"body", bodyExcerpt(body),
		)
	}

	var meta versionMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return "", "", metaerr.WithMetadata(
			fmt.Errorf("%w: %w", ErrMetadataParse, err),
			"url", url,
			"body", bodyExcerpt(body),
		)
	}
	if meta.Service == nil || meta.Service.Version == "" || meta.ClientChecksums == nil {
		return "", "", metaerr.WithMetadata(
			fmt.Errorf("%w: missing Service or ClientChecksums", ErrMetadataParse),
			"url", url,
			"body", bodyExcerpt(body),
		)
	}

	key := platform.checksumKey()
	checksum, ok := meta.ClientChecksums[key]
	if !ok || checksum == "" {
		return "", "", metaerr.WithMetadata(
			fmt.Errorf("%w: %s", ErrUnrecognizedPlatformKey, key),
			"url", url,
			"version", meta.Service.Version,
		)
	}

	return meta.Service.Version, checksum, nil
}

func bodyExcerpt(body []byte) string {
	if len(body) > maxBodyExcerpt {
		return string(body[:maxBodyExcerpt]) + "...(truncated)"
	}
	return string(body)
}
