package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tturner/pcapexplain/internal/capture"
	"github.com/tturner/pcapexplain/internal/config"
	"github.com/tturner/pcapexplain/internal/errors"
	"github.com/tturner/pcapexplain/internal/llm"
)

func newConfigCheckCmd(stdout io.Writer) *cobra.Command {
	flags := &sourceFlags{}

	cmd := &cobra.Command{
		Use:   "config-check",
		Short: "Show the effective configuration and check tshark",
		Long: `Print the merged configuration (API key masked), validate it and report
the tshark that analyze would use.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			return runConfigCheck(cmd, flags, stdout)
		},
	}
	addSourceFlags(cmd, flags)
	return cmd
}

func runConfigCheck(cmd *cobra.Command, flags *sourceFlags, stdout io.Writer) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	text, err := cfg.Redacted().WriteYAML()
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, text)
	fmt.Fprintln(stdout)

	if err := config.Validate(cfg); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Endpoint: %s\n", llm.BaseURL(cfg.LLM.Endpoint))

	tshark, err := capture.ResolveTsharkPath(cfg.TsharkPath)
	if err != nil {
		return &errors.ExtractionError{Path: cfg.TsharkPath, Reason: errors.ReasonToolMissing, Err: err}
	}
	versionLine, err := capture.TsharkVersion(cmd.Context(), tshark)
	if err != nil {
		return &errors.ExtractionError{Path: tshark, Reason: errors.ReasonMalformedOut, Err: err}
	}
	fmt.Fprintf(stdout, "tshark: %s (%s)\n", tshark, versionLine)
	fmt.Fprintln(stdout, "Configuration OK")
	return nil
}
