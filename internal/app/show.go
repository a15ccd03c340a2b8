package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// Show prints the most recent history entries.
func (a *App) Show(_ context.Context, opts ShowOptions) error {
	history := a.newStore().LoadHistory()
	if len(history) == 0 {
		fmt.Fprintln(os.Stdout, "no history recorded yet")
		return nil
	}

	if opts.Limit > 0 && len(history) > opts.Limit {
		history = history[len(history)-opts.Limit:]
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tFBX01\tFBX11\tDifferential")

	for _, entry := range history {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\n",
			entry.Timestamp.UTC().Format(time.RFC3339),
			formatRate(entry.FBX01),
			formatRate(entry.FBX11),
			formatRate(entry.Differential),
		)
	}

	return writer.Flush()
}

func formatRate(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}
