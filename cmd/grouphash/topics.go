package main

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/grouphash/pkg/errors"
)

//go:embed docs/*.md
var topicDocs embed.FS

var topicsCmd = &cobra.Command{
	Use:   "topics [topic]",
	Short: "Show documentation topics",
	Long: `Topics lists the built-in documentation pages. Given a topic name it
renders that page; the rules and matchers pages document the rule DSL,
hashing documents the canonical hash format.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listTopics(cmd)
		}
		return showTopic(cmd, args[0])
	},
}

func listTopics(cmd *cobra.Command) error {
	names, err := topicNames()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Available topics:")
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "\nUse 'grouphash topics <name>' to read one.")
	return nil
}

func showTopic(cmd *cobra.Command, name string) error {
	data, err := topicDocs.ReadFile("docs/" + name + ".md")
	if err != nil {
		names, _ := topicNames()
		return errors.Newf(errors.ErrNotFound,
			"unknown topic %q, available: %s", name, strings.Join(names, ", "))
	}
	fmt.Fprint(cmd.OutOrStdout(), renderMarkdown(string(data)))
	return nil
}

func topicNames() ([]string, error) {
	entries, err := topicDocs.ReadDir("docs")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to list topics")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".md"))
	}
	sort.Strings(names)
	return names, nil
}

// renderMarkdown renders a topic page with glamour, falling back to the
// raw markdown when rendering fails or stdout is not a terminal
func renderMarkdown(content string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return content
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
