// Package main is the entry point for the rankctl CLI, the operator
// terminal tool for the visibility tracking API.
package main

import (
	"os"

	"github.com/marcalaing/gpt-rank-sub000/cmd/rankctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
