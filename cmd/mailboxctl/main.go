// Command mailboxctl generates mailbox names and shares decoded images
// between two context groups through a mailbox registry.
package main

import (
	"os"

	"github.com/gogpu/mailbox/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
