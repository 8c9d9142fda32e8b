package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/legalrag/rag/legal"
)

const exitCommand = "/bye"

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Ask questions interactively until /bye",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
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

		return runREPL(ctx, a.asker, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// runREPL answers one question per line. A failed question is reported and the
// loop continues; only cancellation, EOF or /bye end it.
func runREPL(ctx context.Context, asker legal.Asker, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Ask a legal question. Type %s to quit.\n", exitCommand)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		switch {
		case question == "":
			continue
		case strings.EqualFold(question, exitCommand):
			return nil
		}

		res, err := asker.Run(ctx, question)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if err := printResult(out, res, false); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
}
