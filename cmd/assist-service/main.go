package main

import (
	"flag"
	"os"

	"github.com/waypointhq/waypoint/server/assistservice"
)

func main() {
	// Optional build-target flag override (local | cloud)
	buildTarget := flag.String("build-target", "", "Override BUILD_TARGET (local, cloud)")
	flag.Parse()
	if *buildTarget != "" {
		os.Setenv("WAYPOINT_BUILD_TARGET", *buildTarget)
	}

	if err := assistservice.Run(); err != nil {
		os.Exit(1)
	}
}
