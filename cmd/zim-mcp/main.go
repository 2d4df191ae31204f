// Command zim-mcp serves ZIM archives to AI assistants over the Model
// Context Protocol.
package main

import (
	"os"

	"github.com/mobilemutex/zim-mcp/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
