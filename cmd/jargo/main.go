package main

import (
	"os"

	"github.com/jargo-build/jargo/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
