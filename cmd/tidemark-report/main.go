package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"tidemark/internal/store"
)

const version = "0.1.0"

func main() {
	dbPath := flag.String("db", "data/tidemark.db", "path to the run database")
	limit := flag.Int("limit", 20, "maximum runs to list")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tidemark-report [options] <command>\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version         Print the version\n")
		fmt.Fprintf(os.Stderr, "  runs            List recent backtest runs\n")
		fmt.Fprintf(os.Stderr, "  trades <run>    List the trades of one run\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	switch flag.Arg(0) {
	case "version":
		fmt.Printf("tidemark-report %s\n", version)

	case "runs":
		withStore(*dbPath, func(runs *store.SQLiteStore) error {
			return listRuns(runs, *limit)
		})

	case "trades":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "trades: missing run id")
			os.Exit(1)
		}
		runID, err := strconv.ParseInt(flag.Arg(1), 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "trades: bad run id %q\n", flag.Arg(1))
			os.Exit(1)
		}
		withStore(*dbPath, func(runs *store.SQLiteStore) error {
			return listTrades(runs, runID)
		})

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}

func withStore(dbPath string, fn func(*store.SQLiteStore) error) {
	runs, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	defer runs.Close()

	if err := fn(runs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func listRuns(runs *store.SQLiteStore, limit int) error {
	results, err := runs.ListResults(context.Background(), limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYMBOL\tNAME\tSTRATEGY\tSTART\tEND\tRETURN%\tMAXDD%\tTRADES\tWIN%")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%.2f\t%.2f\t%d\t%.1f\n",
			r.RunID, r.Symbol, r.Name, r.Strategy,
			r.StartTime.Format("2006-01-02"), r.EndTime.Format("2006-01-02"),
			r.ReturnPct*100, r.MaxDrawdownPct*100, r.TradeCount, r.WinRate*100)
	}
	return w.Flush()
}

func listTrades(runs *store.SQLiteStore, runID int64) error {
	trades, err := runs.ListTrades(context.Background(), runID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tENTRY\tEXIT\tMAX SIZE\tGROSS PNL\tNET PNL")
	for _, t := range trades {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%.2f\n",
			t.Symbol,
			t.EntryTime.Format("2006-01-02"), t.ExitTime.Format("2006-01-02"),
			t.MaxSize, t.GrossPnL, t.NetPnL)
	}
	return w.Flush()
}
