package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// runScan invokes the installed binary with the assembled scan arguments and
// returns the captured JSON results. Stderr is passed through so scanner
// progress shows up in the job log. A nonzero exit fails the step.
func runScan(ctx context.Context, bin InstalledBinary, cfg Config) ([]byte, error) {
	args := scanArgs(cfg.Scan)
	slog.Debug("running scan", "binary", bin.Path, "args", args)

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, bin.Path, args...)
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), credentialEnv(cfg.Endorctl)...)

	runErr := cmd.Run()

	if file := cfg.Scan.OutputFile; file != "" && out.Len() > 0 {
		if err := os.WriteFile(file, out.Bytes(), 0o644); err != nil {
			slog.Error("failed to write results file", "file", file, "error", err)
		}
	}

	if runErr != nil {
		return out.Bytes(), fmt.Errorf("run endorctl scan: %w", runErr)
	}

	return out.Bytes(), nil
}

// credentialEnv exports the configured API credentials to the scanner
// process, so credentials from the config file work the same as ones already
// present in the environment.
func credentialEnv(spec EndorctlSpec) []string {
	var env []string
	if spec.Token != "" {
		env = append(env, "ENDOR_API_TOKEN="+spec.Token)
	}
	if spec.CredentialsKey != "" {
		env = append(env, "ENDOR_API_CREDENTIALS_KEY="+spec.CredentialsKey)
	}
	if spec.CredentialsSecret != "" {
		env = append(env, "ENDOR_API_CREDENTIALS_SECRET="+spec.CredentialsSecret)
	}
	return env
}
