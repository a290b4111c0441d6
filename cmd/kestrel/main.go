package main

import (
	"os"

	"github.com/kestrelhq/kestrel/internal/cmd"
)

// Build metadata, injected by the linker.
var (
	version   = "dev"
	commit    = "HEAD"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	os.Exit(cmd.Execute())
}
