// Package main provides the entry point for the gbuild CLI.
package main

import (
	"context"
	"os"

	"github.com/jakoblorz/go-gbuild/internal/cli"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := cli.Execute(context.Background(), version); err != nil {
		os.Exit(1)
	}
}
