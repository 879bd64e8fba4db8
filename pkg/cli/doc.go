// Package cli provides the command-line interface for specimport.
//
// Commands:
//   - detect: classify input files and report declared authentication
//   - import: turn collections and OpenAPI documents into sessions, and
//     environment exports into environment files
//   - env import / env list: store and list environments
//   - name: show the session name and resolved URL for one request
//   - version: show build information
//
// Every command accepts --json. In JSON mode stdout carries only the JSON
// document; progress, warnings and logs go to stderr.
//
// Settings resolve as flags > SPECIMPORT_* environment variables >
// .specimportrc.yaml (or --config) > $XDG_CONFIG_HOME/specimport/config.yaml >
// defaults; see package cliconfig.
package cli
