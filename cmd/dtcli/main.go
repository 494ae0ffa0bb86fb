// Command dtcli is a thin terminal driver over the texttree engine: it
// is not part of the core, just a line-oriented session for exercising
// local inserts/deletes, replaying remote transactions, and running
// the consistency check from a shell.
package main

import "github.com/gocrdt/texttree/cmd/dtcli/cmd"

func main() {
	cmd.Execute()
}
