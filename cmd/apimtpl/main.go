package main

import (
	"os"

	"github.com/spf13/afero"
)

var version = "0.1.0"

func main() {
	os.Exit(execute(os.Args[1:], afero.NewOsFs(), os.Stdin, os.Stdout, os.Stderr))
}
