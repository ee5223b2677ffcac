// Command issuetoken prints a bearer token for an API client.
//
// Usage:
//
//	issuetoken <client-name>
//
// Reads the same configuration as the server; AUTH_JWT_SECRET must be set.
package main

import (
	"fmt"
	"os"

	"codescan/internal/auth"
	"codescan/internal/config"
)

func main() {
	if len(os.Args) != 2 || os.Args[1] == "" {
		fmt.Fprintln(os.Stderr, "Usage: issuetoken <client-name>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	svc := auth.NewService(cfg.Auth)
	if !svc.Enabled() {
		fmt.Fprintln(os.Stderr, "Error: AUTH_JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := svc.IssueToken(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error issuing token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
