package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/desarrollo032/airtable-mcp/internal/nltool"
	"github.com/desarrollo032/airtable-mcp/internal/progress"
)

var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Run a file of natural-language requests in one conversation",
	Long: `Reads one request per line (blank lines and lines starting with # are
skipped) and runs them in order within a single session, so later lines may
refer to earlier ones. Results are written as JSON lines.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().String("session", "batch", "conversation id shared by every line")
	batchCmd.Flags().String("user", "", "user id")
	batchCmd.Flags().StringP("output", "o", "", "write JSON lines here instead of stdout")
	batchCmd.Flags().Bool("stop-on-error", false, "stop at the first unsuccessful request")
	rootCmd.AddCommand(batchCmd)
}

// batchResult is one JSON line of batch output.
type batchResult struct {
	Line     int             `json:"line"`
	Query    string          `json:"query"`
	Response nltool.Response `json:"response"`
}

type batchLine struct {
	number int
	text   string
}

func readBatch(r io.Reader) ([]batchLine, error) {
	var lines []batchLine
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		lines = append(lines, batchLine{number: n, text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading queries: %w", err)
	}
	return lines, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	lines, err := readBatch(f)
	f.Close()
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Fprintln(os.Stderr, "No queries found.")
		return nil
	}

	session, _ := cmd.Flags().GetString("session")
	user, _ := cmd.Flags().GetString("user")
	outPath, _ := cmd.Flags().GetString("output")
	stopOnError, _ := cmd.Flags().GetBool("stop-on-error")

	out := io.Writer(os.Stdout)
	if outPath != "" {
		of, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer of.Close()
		out = of
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	succeeded, failed, err := processBatch(ctx, a.tool, lines, session, user, stopOnError, out, progress.NewReporter(os.Stderr))
	if err != nil {
		return err
	}
	if failed > 0 && stopOnError {
		return fmt.Errorf("stopped after %d succeeded and %d failed", succeeded, failed)
	}
	return nil
}

// processBatch runs lines in order and writes one batchResult per line.
func processBatch(ctx context.Context, tool *nltool.Tool, lines []batchLine, session, user string, stopOnError bool, out io.Writer, reporter progress.Reporter) (succeeded, failed int, err error) {
	enc := json.NewEncoder(out)
	reporter.Start(len(lines))

	for i, line := range lines {
		if ctx.Err() != nil {
			break
		}
		resp := tool.ProcessNaturalLanguageQuery(ctx, line.text, session, user)
		if resp.Success {
			succeeded++
		} else {
			failed++
		}
		if err := enc.Encode(batchResult{Line: line.number, Query: line.text, Response: resp}); err != nil {
			return succeeded, failed, fmt.Errorf("writing result: %w", err)
		}
		reporter.Update(i+1, truncate(line.text, 40))
		if !resp.Success && stopOnError {
			break
		}
	}

	reporter.Finish(succeeded, failed)
	return succeeded, failed, nil
}
