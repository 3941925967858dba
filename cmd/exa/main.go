// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the exa CLI. exa extracts numeric
// growth claims from an answer, checks their arithmetic, and records the
// DOIs the answer cites.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// version is set at build time via ldflags.
var version = "dev"

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// usageError marks errors caused by how exa was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// errReported is returned by commands that have already printed their own
// message to stderr.
var errReported = errors.New("reported")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(newApp(stdout, stderr))
	root.SetArgs(args)

	err := root.Execute()
	return exitCode(err, stderr)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, errReported) {
		return exitError
	}
	var ue *usageError
	if errors.As(err, &ue) {
		return exitUsage
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitError
}
