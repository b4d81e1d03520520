// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"cryptotax/internal/diag"
	"cryptotax/internal/engine"
	"cryptotax/internal/ingest"
	"cryptotax/internal/lot"
	"cryptotax/internal/oracle"
	"cryptotax/internal/report"
)

var (
	flagYear       int
	flagMethod     string
	flagWallets    string
	flagCommodities string
	flagEnrich     bool
	flagOracleURL  string
)

var calculateCmd = &cobra.Command{
	Use:   "calculate [files...]",
	Short: "Ingest CSV files and print a Schedule-D style report for one tax year",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCalculate,
}

func init() {
	calculateCmd.Flags().IntVar(&flagYear, "year", time.Now().UTC().Year(), "tax year to report")
	calculateCmd.Flags().StringVar(&flagMethod, "method", "fifo", "lot selection method: fifo, lifo, or hifo")
	calculateCmd.Flags().StringVar(&flagWallets, "wallet", "", "comma-separated wallet(s) to include (default: all)")
	calculateCmd.Flags().StringVar(&flagCommodities, "commodity", "", "comma-separated asset symbol(s) to include (default: all)")
	calculateCmd.Flags().BoolVar(&flagEnrich, "enrich", false, "fill missing unit prices from the price oracle")
	calculateCmd.Flags().StringVar(&flagOracleURL, "oracle-url", "https://min-api.cryptocompare.com/data/v2/histoday", "price oracle base URL, used when -enrich is set")
}

func runCalculate(cmd *cobra.Command, args []string) error {
	method, err := parseMethod(flagMethod)
	if err != nil {
		return err
	}

	var (
		allTxs   []engine.Transaction
		preErrs  []engine.TxError
		preWarns []engine.TxWarning
	)

	for _, path := range args {
		txs, errs, warns, err := ingestFile(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		allTxs = append(allTxs, txs...)
		for _, e := range errs {
			preErrs = append(preErrs, engine.TxError{Message: fmt.Sprintf("%s: %s", path, e.Error())})
		}
		for _, w := range warns {
			preWarns = append(preWarns, engine.TxWarning{Message: fmt.Sprintf("%s: %s", path, w.String())})
		}
		log.WithField("file", path).WithField("count", len(txs)).Info("ingested transactions")
	}

	allTxs = filterByWalletAndCommodity(allTxs, flagWallets, flagCommodities)

	result := engine.Calculate(allTxs, method, log)
	rpt := report.GenerateReport(result, flagYear, method, preErrs, preWarns)
	printReport(os.Stdout, rpt)
	return nil
}

func parseMethod(s string) (lot.Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fifo":
		return lot.FIFO, nil
	case "lifo":
		return lot.LIFO, nil
	case "hifo":
		return lot.HIFO, nil
	default:
		return "", fmt.Errorf("unknown method %q (expected fifo, lifo, or hifo)", s)
	}
}

// ingestFile reads one CSV file from disk, auto-detects its format, and
// returns canonical transactions plus any row-level diagnostics raised
// along the way (format detection -> optional normalize -> optional
// enrich -> native parse), per §2's data flow.
func ingestFile(ctx context.Context, path string) ([]engine.Transaction, []diag.Error, []diag.Warning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, err
	}
	text := string(raw)

	format := ingest.DetectFormat(text)
	var warnings []diag.Warning

	switch format {
	case ingest.FormatCoinTracker:
		normalized, warns := ingest.Normalize(text)
		warnings = append(warnings, warns...)
		text = normalized
	case ingest.FormatUnknown:
		return nil, []diag.Error{diag.NewError(0, diag.MissingRequiredField, fmt.Sprintf("%s: could not detect a native or CoinTracker header", path))}, nil, nil
	}

	if flagEnrich {
		filled, count, enrichWarns, err := oracle.Enrich(ctx, text, oracle.NewHistoDayOracle(flagOracleURL))
		if err != nil {
			return nil, nil, nil, err
		}
		warnings = append(warnings, enrichWarns...)
		text = filled
		log.WithField("file", path).WithField("filled", count).Debug("enriched prices")
	}

	txs, errs, parseWarns := ingest.ParseNative(text)
	warnings = append(warnings, parseWarns...)
	return txs, errs, warnings, nil
}

func filterByWalletAndCommodity(txs []engine.Transaction, wallets, commodities string) []engine.Transaction {
	walletSet := splitSet(wallets)
	commoditySet := splitSet(commodities)
	if len(walletSet) == 0 && len(commoditySet) == 0 {
		return txs
	}
	out := txs[:0]
	for _, tx := range txs {
		if len(walletSet) > 0 && !walletSet[strings.ToUpper(tx.Wallet)] {
			continue
		}
		if len(commoditySet) > 0 {
			asset := tx.ReceivedAsset
			if asset == "" {
				asset = tx.SentAsset
			}
			if !commoditySet[strings.ToUpper(asset)] {
				continue
			}
		}
		out = append(out, tx)
	}
	return out
}

func splitSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			set[strings.ToUpper(v)] = true
		}
	}
	return set
}

func printReport(w *os.File, rpt report.TaxReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Tax report for %d (method: %s)\n", rpt.Year, rpt.Method)
	fmt.Fprintln(tw, "\nDescription\tAcquired\tDisposed\tProceeds\tBasis\tGain/Loss\tTerm\tDays Held")
	rows := append([]report.Row{}, rpt.Rows...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].DisposedAt.Before(rows[j].DisposedAt) })
	for _, r := range rows {
		term := "short"
		if r.LongTerm {
			term = "long"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t$%s\t$%s\t$%s\t%s\t%d\n",
			r.Description, r.AcquiredAt.Format("2006-01-02"), r.DisposedAt.Format("2006-01-02"),
			r.Proceeds.StringFixed(2), r.Basis.StringFixed(2), r.Gain.StringFixed(2), term, r.DaysHeld)
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Short-term gains\t$%s\n", rpt.Summary.ShortTermGains.StringFixed(2))
	fmt.Fprintf(tw, "Short-term losses\t$%s\n", rpt.Summary.ShortTermLosses.StringFixed(2))
	fmt.Fprintf(tw, "Long-term gains\t$%s\n", rpt.Summary.LongTermGains.StringFixed(2))
	fmt.Fprintf(tw, "Long-term losses\t$%s\n", rpt.Summary.LongTermLosses.StringFixed(2))
	fmt.Fprintf(tw, "Net short-term\t$%s\n", rpt.Summary.NetShort.StringFixed(2))
	fmt.Fprintf(tw, "Net long-term\t$%s\n", rpt.Summary.NetLong.StringFixed(2))
	fmt.Fprintf(tw, "Total\t$%s\n", rpt.Summary.Total.StringFixed(2))
	tw.Flush()

	if len(rpt.Errors) > 0 {
		fmt.Fprintf(w, "\n%d error(s):\n", len(rpt.Errors))
		for _, e := range rpt.Errors {
			fmt.Fprintf(w, "  - %s\n", e.Message)
		}
	}
	if len(rpt.Warnings) > 0 {
		fmt.Fprintf(w, "\n%d warning(s):\n", len(rpt.Warnings))
		for _, wrn := range rpt.Warnings {
			fmt.Fprintf(w, "  - %s\n", wrn.Message)
		}
	}
}
