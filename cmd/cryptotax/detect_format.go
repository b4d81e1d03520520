// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cryptotax/internal/ingest"
)

var detectFormatCmd = &cobra.Command{
	Use:   "detect-format [files...]",
	Short: "Print the detected CSV format (native, cointracker, or unknown) for each file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			fmt.Printf("%s: %s\n", path, ingest.DetectFormat(string(raw)))
		}
		return nil
	},
}
