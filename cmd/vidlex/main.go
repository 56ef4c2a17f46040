// vidlex compares the titles, tags and descriptions of several videos and
// reports the words they share.
package main

import (
	"os"

	"github.com/knowledge-engine/vidlex/cmd/vidlex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
