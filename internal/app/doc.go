// Package app wires application dependencies for the CLI.
//
// It loads the settings file, applies command-line overrides, and builds the
// logger and store opener, exposing them via the Wire struct. An App is one
// opened store plus the services that work on it.
package app
