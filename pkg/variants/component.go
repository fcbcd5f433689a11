package variants

// NodeKind tags a node in the contributing component tree
type NodeKind string

// Component tree node kinds. Trees nest chained-exception → exception →
// stacktrace → frame → leaf values, or fingerprint/message/salt roots.
const (
	KindChainedException NodeKind = "chained-exception"
	KindException        NodeKind = "exception"
	KindStacktrace       NodeKind = "stacktrace"
	KindFrame            NodeKind = "frame"
	KindType             NodeKind = "type"
	KindModule           NodeKind = "module"
	KindFunction         NodeKind = "function"
	KindContextLine      NodeKind = "context-line"
	KindMessage          NodeKind = "message"
	KindFingerprint      NodeKind = "fingerprint"
	KindSalt             NodeKind = "salt"
)

// Component is one node of the contributing component tree: either a leaf
// carrying values or an interior node carrying children. Only nodes with
// Contributes set feed the hash; non-contributing nodes stay in the tree
// so the hint can explain why they were left out.
type Component struct {
	Kind        NodeKind     `json:"kind"`
	Values      []string     `json:"values,omitempty"`
	Children    []*Component `json:"children,omitempty"`
	Contributes bool         `json:"contributes"`
	Hint        string       `json:"hint,omitempty"`
}

// NewLeaf builds a contributing leaf node. Leaves with no non-empty
// values do not contribute.
func NewLeaf(kind NodeKind, values ...string) *Component {
	nonEmpty := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			nonEmpty = append(nonEmpty, v)
		}
	}
	return &Component{
		Kind:        kind,
		Values:      nonEmpty,
		Contributes: len(nonEmpty) > 0,
	}
}

// NewValuesLeaf builds a contributing leaf that keeps its values
// verbatim, empty strings included. Fingerprint and salt components use
// it: the hash must cover the rendered value list exactly as the rule
// produced it, so a template rendering empty still groups consistently
// and ["a", "", "b"] never collides with ["a", "b"].
func NewValuesLeaf(kind NodeKind, values ...string) *Component {
	return &Component{
		Kind:        kind,
		Values:      append([]string(nil), values...),
		Contributes: true,
	}
}

// NewNode builds an interior node. The node contributes if any child
// does.
func NewNode(kind NodeKind, children ...*Component) *Component {
	contributes := false
	for _, c := range children {
		if c.Contributes {
			contributes = true
			break
		}
	}
	return &Component{
		Kind:        kind,
		Children:    children,
		Contributes: contributes,
	}
}

// WithHint sets the node's hint and returns it for chaining
func (c *Component) WithHint(hint string) *Component {
	c.Hint = hint
	return c
}

// MarkNonContributing clears the contributes flag, recording why
func (c *Component) MarkNonContributing(hint string) *Component {
	c.Contributes = false
	c.Hint = hint
	return c
}

// ContributingFrameCount counts contributing frame nodes in the subtree
func (c *Component) ContributingFrameCount() int {
	count := 0
	if c.Kind == KindFrame && c.Contributes {
		count++
	}
	for _, child := range c.Children {
		count += child.ContributingFrameCount()
	}
	return count
}

// Walk visits the node and its descendants depth-first in declared child
// order. The visitor returns false to prune the subtree. Declared order
// makes traversal deterministic, which canonical hashing depends on.
func (c *Component) Walk(visit func(*Component) bool) {
	if !visit(c) {
		return
	}
	for _, child := range c.Children {
		child.Walk(visit)
	}
}
