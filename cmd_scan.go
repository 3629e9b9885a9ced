package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cluttrdev/cli"
)

func newScanCmd() *cli.Command {
	cfg := scanCmd{}

	fs := flag.NewFlagSet("endorctl-action scan", flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       "scan",
		ShortHelp:  "Provision endorctl and scan the repository.",
		ShortUsage: "endorctl-action scan [OPTION]...",
		Flags:      fs,
		Exec:       cfg.Exec,
	}
}

type scanCmd struct {
	setupCmd

	namespace  string
	path       string
	outputFile string
}

func (c *scanCmd) RegisterFlags(fs *flag.FlagSet) {
	c.setupCmd.RegisterFlags(fs)

	fs.StringVar(&c.namespace, "namespace", "", "The Endor Labs namespace to scan into.")
	fs.StringVar(&c.path, "path", "", "The directory to scan.")
	fs.StringVar(&c.outputFile, "output-file", "", "Write the scan results to this file.")
}

func (c *scanCmd) Exec(ctx context.Context, args []string) (err error) {
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
	c.setupCmd.applyFlags(&cfg)
	if c.namespace != "" {
		cfg.Scan.Namespace = c.namespace
	}
	if c.path != "" {
		cfg.Scan.Path = c.path
	}
	if c.outputFile != "" {
		cfg.Scan.OutputFile = c.outputFile
	}

	if err := cfg.validateScan(); err != nil {
		return err
	}

	bin, err := provisionBinary(ctx, cfg)
	if err != nil {
		return err
	}

	results, err := runScan(ctx, bin, cfg)
	if err != nil {
		return err
	}

	// The summary is best effort; a scan that ran to completion is not
	// failed over reporting.
	counts, err := summarizeFindings(results)
	if err != nil {
		slog.Warn("failed to summarize scan results", "error", err)
		return nil
	}
	if err := writeStepSummary(renderSummary(counts)); err != nil {
		slog.Warn("failed to write step summary", "error", err)
	}

	return nil
}
