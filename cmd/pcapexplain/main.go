package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tturner/pcapexplain/internal/errors"
	"github.com/tturner/pcapexplain/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		friendly := errors.Friendly(err)
		ui.NewDisplay(stderr).Error(friendly)
		return errors.ExitCode(friendly)
	}
	return errors.ExitOK
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pcapexplain",
		Short: "Explain packet captures with a language model",
		Long: `pcapexplain decodes a packet capture with tshark, sends the packets in
batches to an OpenAI-compatible model and consolidates the per-batch analyses
into one summary. Results are written to summary.txt and details.txt.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.AddCommand(newAnalyzeCmd(stdout, stderr))
	rootCmd.AddCommand(newConfigCheckCmd(stdout))
	rootCmd.AddCommand(newVersionCmd(stdout))

	// Custom help command
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			if cmd.Long != "" {
				fmt.Fprintf(stdout, "%s\n\n", cmd.Long)
			}
			fmt.Fprint(stdout, cmd.UsageString())
			return
		}
		fmt.Fprintf(stdout, "Usage:\n  %s <command> [arguments] [options]\n\n", cmd.Name())
		fmt.Fprintf(stdout, "Available Commands:\n")
		for _, subCmd := range cmd.Commands() {
			if !subCmd.Hidden && subCmd.Name() != "completion" && subCmd.Name() != "help" {
				fmt.Fprintf(stdout, "  %-15s %s\n", subCmd.Name(), subCmd.Short)
			}
		}
		fmt.Fprintf(stdout, "\nUse \"%s help <command>\" for more information about a command.\n", cmd.Name())
	})

	return rootCmd
}
