package main

import (
	"buddy-chat/repositories"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Inspect error: %v\n", err)
		os.Exit(1)
	}
}

// run prints the pairing journal, most recent first.
func run() error {
	dbPath := flag.String("db", "", "Path to the badger pairing journal")
	limit := flag.Int("limit", 50, "Number of pairings to print")
	cursor := flag.String("cursor", "", "Resume after this cursor")
	flag.Parse()
	if *dbPath == "" {
		return fmt.Errorf("-db is required")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		return fmt.Errorf("opening badger: %w", err)
	}
	defer db.Close()

	var from *string
	if *cursor != "" {
		from = cursor
	}
	journal := repositories.NewPairingRepository(db, slog.Default(), *limit)
	records, next, err := journal.ListPairings(*limit, from)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Formed", "Pairing", "Names", "Ended", "Left by", "Duration"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, r := range records {
		ended, duration := "-", "-"
		if r.Ended() {
			ended = r.EndedAt.Format("15:04:05")
			duration = r.Duration().Round(time.Second).String()
		}
		table.Append([]string{
			r.FormedAt.Format(time.DateTime),
			r.ID.String()[:8],
			strings.Join(r.Names[:], " / "),
			ended,
			r.LeftBy.String(),
			duration,
		})
	}
	table.Render()

	if next != nil {
		fmt.Printf("\nnext page: -cursor=%s\n", *next)
	}
	return nil
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
