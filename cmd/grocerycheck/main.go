// Package main is the entry point for grocerycheck.
package main

import (
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(execute(newApp(os.Stdout, os.Stderr), os.Args[1:]))
}
