package main

import (
	"os"

	"github.com/dantheman4700/scope-doc-gen-sub000/cmd"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/logging"
)

func main() {
	defer logging.Get().Close()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
