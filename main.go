// Package main provides the entry point for iplcsim.
// iplcsim is a trace-driven simulator of a 5-stage in-order pipeline in
// front of a configurable set-associative cache.
//
// For the full CLI, use: go run ./cmd/iplcsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("iplcsim - Trace-Driven Cache and Pipeline Simulator")
	fmt.Println("")
	fmt.Println("Usage: iplcsim [options] index_bits blocksize assoc branch_predict_taken [trace]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config      Path to timing configuration JSON file")
	fmt.Println("  -v           Print every cache access")
	fmt.Println("  -dump        Dump the pipeline after every trace line")
	fmt.Println("  -debug       Print retired instructions and taken branches")
	fmt.Println("  -tagstore    Tag store implementation: list or akita")
	fmt.Println("  -crosscheck  Check every probe against the akita tag store")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/iplcsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/iplcsim' instead.")
	}
}
