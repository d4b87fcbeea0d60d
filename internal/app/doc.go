// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle: load the declarative
// files, compile operations, build values, process instances and report,
// decoupled from any specific entrypoint like a CLI.
package app
