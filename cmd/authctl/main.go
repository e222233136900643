// Command authctl calls the auth backend from the command line.
//
//	authctl [--config file] [--output json|yaml] [--verbose] <command> [flags]
//
// Commands: register, login, refresh, logout, inspect.
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
