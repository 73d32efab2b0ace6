// The main package for the leadscout executable.
package main

import (
	"github.com/primlogix/leadscout/cmd"
)

func main() {
	cmd.Execute()
}
