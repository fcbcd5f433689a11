// Package hasher turns contributing component trees into stable,
// content-addressed group hashes.
//
// # Canonical serialization (version 1)
//
// The digest input starts with the serialization version, so a format
// change moves every group at once instead of silently splitting some.
// Contributing nodes are then visited depth-first in declared child
// order. Each node is encoded as its kind followed by its values, all
// separated by NUL (0x00); records are joined with the record separator
// (0x1e). Non-contributing nodes and their subtrees are excluded. The
// digest is MD5, rendered as lowercase hex: the hash identifies content
// and has no adversarial collision-resistance requirement.
//
// The encoding is pinned. Changing field order, separators or the digest
// would silently regroup every historical event, so any evolution must
// bump SerializationVersion and migrate stored hashes.
package hasher
