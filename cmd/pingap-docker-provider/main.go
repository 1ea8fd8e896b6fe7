package main

import "os"

// version can be set during build with -ldflags
var version = "dev"

func main() {
	cmd := newRootCmd()
	cmd.Version = version
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
