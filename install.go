package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// InstalledBinary describes a provisioned binary: its absolute path and the
// directory to publish on the search path. The PATH mutation itself is left
// to the caller so provisioning stays a function of its inputs.
type InstalledBinary struct {
	Path string
	Dir  string
}

// install makes the verified file executable and moves it to the working
// directory under the platform's binary name.
func install(src string, platform Platform) (InstalledBinary, error) {
	if platform.OS != osWindows {
		if err := os.Chmod(src, 0o755); err != nil {
			return InstalledBinary{}, fmt.Errorf("%w: set executable bit: %w", ErrInstall, err)
		}
	}

	dst, err := filepath.Abs(platform.binaryName())
	if err != nil {
		return InstalledBinary{}, fmt.Errorf("%w: %w", ErrInstall, err)
	}

	if err := os.Rename(src, dst); err != nil {
		return InstalledBinary{}, fmt.Errorf("%w: move binary: %w", ErrInstall, err)
	}

	return InstalledBinary{
		Path: dst,
		Dir:  filepath.Dir(dst),
	}, nil
}

// publishPath makes dir resolvable by subsequent commands. On GitHub runners
// the directory is appended to the GITHUB_PATH file; the process PATH is
// updated as well so the current process can invoke the binary by name.
func publishPath(dir string) error {
	if ghPath := os.Getenv("GITHUB_PATH"); ghPath != "" {
		file, err := os.OpenFile(ghPath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
		if err != nil {
			return fmt.Errorf("open GITHUB_PATH file: %w", err)
		}
		defer func() {
			_ = file.Close()
		}()
		if _, err := fmt.Fprintln(file, dir); err != nil {
			return fmt.Errorf("append to GITHUB_PATH file: %w", err)
		}
	}

	return os.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}
