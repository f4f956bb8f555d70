package main

import (
	"log"

	"github.com/spf13/afero"
)

func main() {
	if err := newRootCmd(afero.NewOsFs()).Execute(); err != nil {
		log.Fatalf("jumbotron: %v", err)
	}
}
