package hasher

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/arthur-debert/grouphash/pkg/variants"
)

// SerializationVersion pins the canonical encoding fed to the digest.
// Any change to the encoding changes every historical hash, so the format
// is versioned and must only evolve by bumping this constant alongside a
// migration of stored hashes.
const SerializationVersion = 1

// Canonical encoding separators. Node kind and each value are
// NUL-delimited; sibling records are separated by the record separator.
const (
	fieldSep  = 0x00
	recordSep = 0x1e
)

// Hash computes the content hash of a component tree's contributing
// nodes. Identical trees hash identically across runs and processes: the
// serialization walks children in declared order and touches no maps, no
// pointers, no identity. Non-contributing subtrees are skipped entirely.
func Hash(root *variants.Component) string {
	digest := md5.New()
	digest.Write([]byte{'v', SerializationVersion})

	root.Walk(func(c *variants.Component) bool {
		if !c.Contributes {
			return false
		}
		digest.Write([]byte{recordSep})
		digest.Write([]byte(c.Kind))
		for _, value := range c.Values {
			digest.Write([]byte{fieldSep})
			digest.Write([]byte(value))
		}
		return true
	})

	return hex.EncodeToString(digest.Sum(nil))
}

// HashValues computes the hash of a flat list of fingerprint values. It
// is the hash a custom fingerprint variant would produce, exposed for
// callers that persist fingerprints without building a tree.
func HashValues(kind variants.NodeKind, values []string) string {
	return Hash(variants.NewLeaf(kind, values...))
}
