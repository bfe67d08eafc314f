package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/parleyhq/parley/internal/cli"
)

func main() {
	// Optional .env with PARLEY_* overrides; absence is fine.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
