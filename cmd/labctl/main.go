// Command labctl turns a service catalog and a selection of services into a
// ready-to-run Docker Compose deployment.
package main

import "os"

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Exit codes.
const (
	ExitSuccess     = 0
	ExitConfigError = 1
	ExitBuildError  = 2
)

func main() {
	os.Exit(run())
}
