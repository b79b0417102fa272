// Dashboard API serves usage analytics, accounts and the device registry.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
