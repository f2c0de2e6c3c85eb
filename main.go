// main holds the entry logic for the abfolio CLI.
package main

import (
	"github.com/abfolio/abfolio/cmd"
	"github.com/abfolio/abfolio/internal/contract"
	"github.com/abfolio/abfolio/internal/iocache"
)

func main() {
	err := cmd.Execute()
	// Close stores before a possible exit since LogFatal does not run defers.
	iocache.CloseCaching()
	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
