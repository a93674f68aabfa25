/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Entry point for showmap. Runs the root command and turns any
failure into a diagnostic line and a non-zero exit.
*/

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/kleascm/showmap/cmd/showmap/commands"
	"github.com/kleascm/showmap/pkg/interfaces"
)

const version = "1.0.0"

func main() {
	rootCmd := commands.NewRootCommand(version)

	// Deferred cleanup inside the command has already run by the time
	// Execute returns, so exiting here cannot leak the segment.
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, interfaces.ErrUsage) {
			fmt.Fprintf(os.Stderr, "\n%s\n\n%s", rootCmd.Long, rootCmd.UsageString())
		}
		fmt.Fprintf(os.Stderr, "[-] PROGRAM ABORT : %v\n", err)
		os.Exit(1)
	}
}
