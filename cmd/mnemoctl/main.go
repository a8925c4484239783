// Mnemoctl: command-line maintenance for mnemo memory databases.
package main

import (
	"fmt"
	"os"

	"github.com/HendryAvila/mnemo/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
