package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/arthur-debert/grouphash/pkg/engine"
	"github.com/arthur-debert/grouphash/pkg/style"
	"github.com/arthur-debert/grouphash/pkg/variants"
)

// variantOrder fixes the display order from most to least specific
var variantOrder = []variants.Key{
	variants.KeyCustomFingerprint,
	variants.KeyApp,
	variants.KeySystem,
	variants.KeyMessage,
	variants.KeyFallback,
}

// renderResult prints an evaluation result: one block per variant, then
// the hash-basis metadata
func renderResult(w io.Writer, result *engine.Result, tree bool) {
	fmt.Fprintln(w, style.TitleStyle.Render("Grouping variants"))

	for _, key := range variantOrder {
		v, ok := result.Variants[key]
		if !ok {
			continue
		}
		renderVariant(w, v, tree)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, style.TitleStyle.Render("Metadata"))
	fmt.Fprintf(w, "  hash basis: %s\n", result.Metadata.HashBasis)

	keys := make([]string, 0, len(result.Metadata.HashingMetadata))
	for k := range result.Metadata.HashingMetadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, result.Metadata.HashingMetadata[k])
	}

	if hash := result.PrimaryHash(); hash != "" {
		fmt.Fprintf(w, "  primary hash: %s\n", style.HashStyle.Render(hash))
	}
}

func renderVariant(w io.Writer, v *variants.Variant, tree bool) {
	state := style.SuppressedStyle.Render("suppressed")
	if v.Contributes {
		state = style.ContributingStyle.Render("contributing")
	}
	fmt.Fprintf(w, "\n%s  [%s]\n", string(v.Key), state)

	if v.Hash != "" {
		fmt.Fprintf(w, "  hash: %s\n", style.HashStyle.Render(v.Hash))
	}
	if v.Hint != "" {
		fmt.Fprintf(w, "  hint: %s\n", style.HintStyle.Render(v.Hint))
	}
	if tree && v.Component != nil {
		renderComponent(w, v.Component, 1)
	}
}

// renderComponent prints the component tree, one node per line, muting
// nodes that do not contribute to the hash
func renderComponent(w io.Writer, c *variants.Component, depth int) {
	indent := strings.Repeat("  ", depth)

	line := string(c.Kind)
	if len(c.Values) > 0 {
		line += ": " + strings.Join(c.Values, " ")
	}
	if c.Hint != "" {
		line += "  (" + c.Hint + ")"
	}
	if !c.Contributes {
		line = style.MutedStyle.Render(line)
	}
	fmt.Fprintf(w, "%s%s\n", indent, line)

	for _, child := range c.Children {
		renderComponent(w, child, depth+1)
	}
}
