package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/legalrag/evidence"
	"github.com/sweetpotato0/legalrag/rag/legal"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one legal question and exit",
	Example: `  legalrag ask "O que é venda casada?"
  legalrag ask --json "Posso desistir de uma compra feita pela internet?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full result as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	shutdown, err := initTelemetry(ctx)
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	a, err := newApp(ctx, opts.configPath)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	res, err := a.asker.Run(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), res, askJSON)
}

func printResult(w io.Writer, res *legal.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if _, err := fmt.Fprintln(w, res.Answer); err != nil {
		return err
	}
	if res.NeedsClarification || len(res.Evidence) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	for _, s := range res.Evidence {
		label := s.SourceLabel
		if loc := strings.TrimSpace(s.Locator); loc != "" && loc != evidence.UnknownLocator {
			label += ", " + loc
		}
		fmt.Fprintf(w, "  - %s\n", label)
	}
	return nil
}
