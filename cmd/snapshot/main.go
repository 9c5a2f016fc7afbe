// Package main takes one dashboard snapshot: it fetches the catalog
// and the first screen of details, merges competitions and prints the
// ordered list. Useful for checking upstream connectivity and ranking
// without running the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/config"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/dashboard"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/exchange"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/fetcher"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/logging"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/storage/memory"
)

func main() {
	baseURL := flag.String("base-url", "", "Exchange base URL (default production)")
	topN := flag.Int("top-n", 20, "How many tokens to show")
	concurrency := flag.Int("concurrency", 3, "Concurrent detail fetches")
	timeout := flag.Duration("timeout", time.Minute, "Overall deadline")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	logger := logging.NewWithConfig(logging.Config{Level: "warn"})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := exchange.NewClient(*baseURL, exchange.WithLogger(logger))

	manager := dashboard.New(dashboard.Options{
		Fetcher:      fetcher.New(client, logger),
		Competitions: memory.NewCompetitionStore(),
		Logger:       logger,
		Refresh: config.RefreshConfig{
			Concurrency: *concurrency,
			TopN:        *topN,
		},
	})

	if err := manager.InitialLoad(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	list := manager.Display(ctx, "")

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(list); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("%-4s %-12s %-24s %14s %14s\n", "#", "SYMBOL", "NAME", "PRICE", "VOL TODAY")
	for i, d := range list {
		price := ""
		if d.Ticker != nil {
			price = d.Ticker.LastPrice.String()
		}
		fmt.Printf("%-4d %-12s %-24s %14s %14.2f\n",
			i+1, d.Symbol, truncate(d.Name, 24), price, d.VolumeStats.VolToday)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
