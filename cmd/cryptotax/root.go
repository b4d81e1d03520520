// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

// Command cryptotax is the CLI driver for the tax engine: it reads one or
// more CSV files (auto-detecting native vs CoinTracker format), optionally
// normalizes and enriches them, replays them through the engine, and
// prints a Schedule-D-style report.
package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.New()

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "cryptotax",
	Short: "Compute U.S.-style capital-gains tax reports from crypto transaction CSVs",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		} else {
			log.SetLevel(logrus.InfoLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "v", "v", false, "verbose logging")
	rootCmd.AddCommand(calculateCmd, detectFormatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
