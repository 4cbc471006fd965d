package main

import (
	"os"

	"github.com/cnfairydream/duckdb-extra-asyncio/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
