// Package main is the entry point for the interviewer API.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"interviewer/bootstrap"
	"interviewer/cmd"
)

// run executes the CLI under a context cancelled by SIGINT or SIGTERM
func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "FATAL: unhandled panic: %v\n%s\n", r, debug.Stack())
			code = bootstrap.ExitFailure
		}
	}()

	ctx, stop := bootstrap.SignalContext(context.Background())
	defer stop()

	return cmd.Execute(ctx, os.Args[1:])
}

func main() {
	os.Exit(run())
}
