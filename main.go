package main

import (
	"os"

	"github.com/desarrollo032/airtable-mcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
