package main

import "github.com/codeninja55/vitalgate/cmd/vitalgate/internal/cli"

// version, commit, and date are injected at build time via -ldflags, per
// the build package's Info fields.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Run(version, commit, date)
}
