// Package main hosts the Salesmind CLI entrypoint and command graph.
//
// The Cobra command tree runs the daemon in the foreground and translates
// terminal invocations into JSON-RPC calls against it: company research,
// graph node clicks, panel tabs, history and API key maintenance, journal
// queries, and log tailing. Configuration resolution and socket discovery
// live in commandContext so subcommands only deal with presentation.
package main
