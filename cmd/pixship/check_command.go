package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pixship/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var skipPublish bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify binaries, directories and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			report := preflight.RunAll(cfg, preflight.Options{SkipPublish: skipPublish})

			var lines []string
			lines = append(lines, renderSectionHeader("Programs", colorize)...)
			lines = append(lines, dependencyLines(report.Binaries, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Setup", colorize)...)
			lines = append(lines, renderStatusLine("Publish mode", statusInfo, cfg.Publish.Mode, colorize))
			lines = append(lines, checkLines(report.Checks, colorize)...)
			fmt.Fprintln(out, strings.Join(lines, "\n"))

			if blocking := report.Blocking(); len(blocking) > 0 {
				return errors.New("preflight failed: " + strings.Join(blocking, "; "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPublish, "skip-publish", false, "Only check what a run without publishing needs")
	return cmd
}
