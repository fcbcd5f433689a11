package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/grouphash/pkg/config"
	"github.com/arthur-debert/grouphash/pkg/errors"
	"github.com/arthur-debert/grouphash/pkg/logging"
)

var checkCmd = &cobra.Command{
	Use:   "check <rules-file>",
	Short: "Validate a rules file without applying it",
	Long: `Check parses and validates a rules file the same way the engine would
on reload. Validation is all-or-nothing: the first malformed rule fails
the whole file, with its line or index in the error details.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.GetLogger("cmd.check")

		rs, err := config.Load(args[0])
		if err != nil {
			logger.Debug().
				Str("path", args[0]).
				Str("code", string(errors.GetErrorCode(err))).
				Msg("Rules file failed validation")
			return err
		}

		pterm.Success.Printfln("%s: %d rules, version %d",
			args[0], len(rs.Rules()), rs.Version())
		return nil
	},
}
