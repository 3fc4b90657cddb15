package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"
)

// Show prints the most recently persisted observations.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn not configured; nothing to show")
	}
	defer closeStore()

	observations, err := store.ListRecentObservations(ctx, limit)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		fmt.Fprintln(out, "No observations recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHAIN\tBLOCK\tDELTA (ms)\tRECEIVED AT")
	for _, obs := range observations {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			obs.Chain,
			obs.BlockNumber,
			strconv.FormatFloat(obs.DeltaMS, 'f', 1, 64),
			obs.ReceivedAt.UTC().Format(time.RFC3339),
		)
	}
	return w.Flush()
}
