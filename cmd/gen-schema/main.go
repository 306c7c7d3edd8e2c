// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

// Command gen-schema generates the config and broadcast event JSON Schema files.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chargeshare/chargeshare/internal/broadcast"
	"github.com/chargeshare/chargeshare/internal/config"
)

var schemas = []struct {
	file     string
	generate func() ([]byte, error)
}{
	{file: "config.schema.json", generate: config.GenerateSchema},
	{file: "event.schema.json", generate: broadcast.GenerateEventSchema},
}

func main() {
	outDir := "schemas"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	for _, s := range schemas {
		data, err := s.generate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s: %v\n", s.file, err)
			os.Exit(1)
		}
		outPath := filepath.Join(outDir, s.file)
		if err := os.WriteFile(outPath, data, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated %s\n", outPath)
	}
}
