// Package hcl provides the concrete HCL implementation of config.Loader.
// It is responsible for file discovery, parsing, and translating operation,
// instance and value blocks into the format-agnostic model.
//
// Attribute values are converted to fixup text: numbers keep their shortest
// decimal form, booleans become "1" or "0", and lists of numbers become
// space separated vectors.
package hcl
