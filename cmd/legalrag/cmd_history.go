package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/legalrag/config"
	"github.com/sweetpotato0/legalrag/journal"
	journalmongo "github.com/sweetpotato0/legalrag/journal/mongo"
)

var (
	historyOutcome string
	historyLimit   int64
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List journaled runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		if cfg.Journal.URI == "" {
			return errors.New("history needs the run journal: set journal.uri or MONGO_URI")
		}
		store, err := journalmongo.New(ctx, journalmongo.Config{
			URI:        cfg.Journal.URI,
			Database:   cfg.Journal.Database,
			Collection: cfg.Journal.Collection,
		})
		if err != nil {
			return err
		}
		defer store.Close(context.Background())

		entries, err := store.Recent(ctx, historyOutcome, historyLimit)
		if err != nil {
			return err
		}
		return printHistory(cmd.OutOrStdout(), entries)
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyOutcome, "outcome", "", "filter by outcome: answered, remediated or clarification")
	historyCmd.Flags().Int64Var(&historyLimit, "limit", 20, "maximum runs to list")
}

func printHistory(w io.Writer, entries []journal.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tOUTCOME\tINTENT\tDURATION\tQUESTION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime),
			e.Outcome,
			e.Intent,
			e.Duration.Round(time.Millisecond),
			truncate(e.Question, 60),
		)
	}
	return tw.Flush()
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}
