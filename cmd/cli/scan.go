package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"timestudy/adapters/api"
	"timestudy/internal/timestudy"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	var server string
	var badge string
	var process string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a terminal scan station for one process",
		Long: `Sign in with an operator badge and time the operations of a granted process.
Each line read from stdin is a scanned command: "start" or "end". Ending the last
operation completes the cycle and the next start opens a new session.

Example: timestudy-cli scan --server http://localhost:8080 --badge OP-17 --process <uuid>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			processID, err := uuid.Parse(process)
			if err != nil {
				return fmt.Errorf("invalid --process %q: %w", process, err)
			}

			ctx := cmd.Context()
			client := api.NewClient(server, timeout)
			who, err := client.Login(ctx, badge)
			if err != nil {
				return err
			}
			defer client.Logout(context.Background())

			ops, err := client.ListOperations(ctx, processID)
			if err != nil {
				return err
			}
			cycle, err := timestudy.NewCycle(client, processID, ops, timestudy.SystemClock)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s, %d operations\n", who.Name, len(ops))
			return runScan(ctx, cycle, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "Base URL of the time study API")
	cmd.Flags().StringVar(&badge, "badge", "", "Operator badge id")
	cmd.Flags().StringVar(&process, "process", "", "ID of the process to time")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "HTTP request timeout")
	cmd.MarkFlagRequired("badge")
	cmd.MarkFlagRequired("process")
	return cmd
}

// runScan feeds scanned lines to the cycle until in is exhausted or ctx is done. A
// rejected command is reported and scanning continues.
func runScan(ctx context.Context, cycle *timestudy.Cycle, in io.Reader, out io.Writer) error {
	prompt(out, cycle)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		event, err := cycle.Handle(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "rejected: %v\n", err)
			prompt(out, cycle)
			continue
		}

		switch event.Command {
		case timestudy.CommandStart:
			fmt.Fprintf(out, "started %s %s\n", event.Operation.Code, event.Operation.Description)
		case timestudy.CommandEnd:
			fmt.Fprintf(out, "ended %s after %.0fs\n", event.Operation.Code, event.ElapsedSeconds)
			if event.CycleComplete {
				fmt.Fprintln(out, "cycle complete")
			}
		}
		prompt(out, cycle)
	}
	return scanner.Err()
}

func prompt(out io.Writer, cycle *timestudy.Cycle) {
	op := cycle.Current()
	if cycle.Running() {
		fmt.Fprintf(out, "> %s running, scan end\n", op.Code)
		return
	}
	fmt.Fprintf(out, "> next %s, scan start\n", op.Code)
}
