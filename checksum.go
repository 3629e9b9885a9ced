package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/endorlabs/endorctl-action/internal/metaerr"
)

// digest streams the reader through SHA-256 and returns the lowercase hex
// encoded sum.
func digest(in io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, in); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// verifyChecksum compares the file's SHA-256 digest against the expected
// checksum. The expected value is normalized to lowercase hex before the
// comparison, since checksum sources differ in casing. A mismatch is always
// fatal; the binary must not be installed.
func verifyChecksum(path string, expected string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open downloaded file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	actual, err := digest(file)
	if err != nil {
		return fmt.Errorf("hash downloaded file: %w", err)
	}

	want := strings.ToLower(strings.TrimSpace(expected))
	if actual != want {
		return metaerr.WithMetadata(
			ErrChecksumMismatch,
			"expected", want,
			"actual", actual,
		)
	}

	return nil
}
