package main

import (
	"os"

	"github.com/dmitrijs2005/pagekeeper/internal/admincli"
)

func main() {
	os.Exit(admincli.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
