package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "pcapexplain version %s\n", version)
			fmt.Fprintf(stdout, "commit: %s\n", commit)
			fmt.Fprintf(stdout, "date: %s\n", date)
		},
	}
}
