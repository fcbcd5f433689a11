package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/grouphash/pkg/config"
)

var fmtTOML bool

var fmtCmd = &cobra.Command{
	Use:   "fmt <rules-file>",
	Short: "Reprint a rules file in canonical form",
	Long: `Fmt parses a rules file and reprints every rule in its canonical DSL
form: normalized spacing, quoted patterns and template variables. With
--toml the output is the structured TOML layout instead, suitable for
the config directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := config.Load(args[0])
		if err != nil {
			return err
		}

		if fmtTOML {
			data, err := config.GenerateTOML(rs)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		}

		for _, rule := range rs.Rules() {
			fmt.Fprintln(cmd.OutOrStdout(), rule.Text())
		}
		return nil
	},
}

func init() {
	fmtCmd.Flags().BoolVar(&fmtTOML, "toml", false,
		"Emit the structured TOML layout instead of plain DSL")
}
