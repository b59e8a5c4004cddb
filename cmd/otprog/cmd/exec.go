package cmd

import (
	"errors"

	"al.essio.dev/pkg/shellescape"
	"github.com/spf13/cobra"
)

func newExecCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "exec -- <minipro arguments>",
		Short: "Run minipro with arbitrary arguments",
		Long: `Pass the arguments after -- straight to minipro. Output and progress are
handled like any other command. Nothing is confirmed first.`,
		Example: `  otprog exec -- -p W25Q64 -r flash.bin
  otprog exec -- -p "AT28C256 @DIP28" -D`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("no minipro arguments given")
			}
			return e.issue(cmd)(e.builder.Custom(shellescape.QuoteCommand(args)))
		},
	}
}
