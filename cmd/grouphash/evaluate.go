package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/grouphash/pkg/config"
	"github.com/arthur-debert/grouphash/pkg/engine"
	"github.com/arthur-debert/grouphash/pkg/errors"
	"github.com/arthur-debert/grouphash/pkg/event"
	"github.com/arthur-debert/grouphash/pkg/logging"
	"github.com/arthur-debert/grouphash/pkg/rules"
)

var showTree bool

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <event-file>",
	Short: "Evaluate an event and show its grouping variants",
	Long: `Evaluate runs one event through the grouping engine and prints each
variant with its contribution state, hash and hint, plus the hash-basis
metadata a real ingestion path would persist.

The event file is JSON or YAML in the normalized event layout (platform,
message, exceptions with stacktraces).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.GetLogger("cmd.evaluate")

		rs, err := loadRuleSet()
		if err != nil {
			return err
		}

		ev, err := loadEvent(args[0])
		if err != nil {
			return err
		}

		logger.Debug().
			Str("event", args[0]).
			Int("ruleCount", len(rs.Rules())).
			Msg("Evaluating event")

		result, err := engine.New(rs).Evaluate(ev)
		if err != nil {
			return err
		}

		renderResult(cmd.OutOrStdout(), result, showTree)
		return nil
	},
}

func init() {
	evaluateCmd.Flags().BoolVar(&showTree, "tree", false,
		"Also print each variant's contributing component tree")
}

// loadRuleSet resolves the rules file: the --rules flag, then the
// GROUPHASH_RULES environment variable, then the conventional config
// path, then the embedded defaults.
func loadRuleSet() (*rules.RuleSet, error) {
	path := rulesPath
	if path == "" {
		path = os.Getenv("GROUPHASH_RULES")
	}
	if path == "" {
		if _, err := os.Stat(config.DefaultPath()); err == nil {
			path = config.DefaultPath()
		}
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// loadEvent reads a JSON or YAML event fixture
func loadEvent(path string) (*event.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrEventInvalid,
			"failed to read event file %s", path)
	}

	var ev event.Event
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &ev)
	default:
		err = json.Unmarshal(data, &ev)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrEventInvalid,
			"malformed event in %s", path)
	}
	return &ev, nil
}
