package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bio-mcp/bedtools-mcp/pkg/runner"
)

// newDoctorCmd reports whether the configured bedtools executable can be
// resolved and what version it is. Availability is reported, never
// enforced: the server starts without bedtools and fails per-invocation.
func newDoctorCmd(flags *serveFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the bedtools executable is available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			resolved, err := exec.LookPath(cfg.BedtoolsPath)
			if err != nil {
				fmt.Fprintf(out, "bedtools: NOT FOUND (%q is not on PATH)\n", cfg.BedtoolsPath)
				fmt.Fprintln(out, "Tool invocations will fail with status 500 until bedtools is installed.")
				return nil
			}
			fmt.Fprintf(out, "bedtools: %s\n", resolved)

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
			result, err := runner.NewDefaultCommandRunner(quiet).Run(ctx, "", resolved, "--version")
			if err != nil || result.ExitCode != 0 {
				fmt.Fprintf(out, "version: could not be determined (%v)\n", err)
				return nil
			}
			fmt.Fprintf(out, "version: %s\n", strings.TrimSpace(string(result.Stdout)))
			return nil
		},
	}
}
