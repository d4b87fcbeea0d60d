// Package config defines the format-agnostic model of declarative precomp
// files, along with the Loader interface that format-specific packages
// implement.
//
// The Model is the single source of truth for the operation compiler, the
// value builder and the executor. Concrete loaders for HCL and YAML live in
// separate packages.
package config
