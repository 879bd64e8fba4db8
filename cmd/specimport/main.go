// specimport imports Postman collections, OpenAPI documents and Postman
// environments into proxy sessions and environment files.
package main

import "github.com/getmockd/specimport/pkg/cli"

// Set via -ldflags "-X main.version=..." at release time.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	cli.Version, cli.Commit, cli.BuildDate = version, commit, buildDate
	cli.Execute()
}
