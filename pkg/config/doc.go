// Package config loads fingerprint rule sets from TOML, YAML or plain
// DSL files into the immutable rules model. Loading is all-or-nothing: a
// partially valid file never produces a rule set.
package config
