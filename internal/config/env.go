package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// envFiles are probed in order; the first one that loads wins. The
// process environment always takes precedence, godotenv never
// overrides existing variables.
var envFiles = []string{".env", ".env.local"}

func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			fmt.Fprintf(os.Stderr, "Note: could not load %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", name)
		return
	}
}
