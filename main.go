// ABOUTME: Entry point for site-console CLI
// ABOUTME: Admin sign-in, password recovery and content browsing for the site API

package main

import (
	"os"

	"github.com/kestreladvisory/site-console/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
