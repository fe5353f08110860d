// Command askdocs answers questions about a folder of PDFs.
package main

import (
	"context"
	"os"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.Execute(context.Background(), version); err != nil {
		os.Exit(1)
	}
}
