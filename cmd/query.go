package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/desarrollo032/airtable-mcp/internal/nltool"
)

var queryCmd = &cobra.Command{
	Use:   "query [request]",
	Short: "Run one natural-language request against Airtable",
	Long:  `Processes a single Spanish or English request, executes it and prints the reply. Pass --session to continue an earlier conversation when contexts are persisted.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().String("session", "cli", "conversation id")
	queryCmd.Flags().String("user", "", "user id")
	queryCmd.Flags().Bool("json", false, "output the full response as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	queryText := strings.Join(args, " ")

	session, _ := cmd.Flags().GetString("session")
	user, _ := cmd.Flags().GetString("user")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	resp := a.tool.ProcessNaturalLanguageQuery(ctx, queryText, session, user)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(os.Stdout, resp)
	return nil
}

func printResponse(w io.Writer, resp nltool.Response) {
	status := "ok"
	if !resp.Success {
		status = "failed"
	}
	fmt.Fprintf(w, "[%s] %s (intent=%s, confidence=%.2f)\n", status, resp.Message, resp.Intent, resp.Confidence)

	for _, c := range resp.Clarifications {
		fmt.Fprintf(w, "  ? %s", c.Question)
		if len(c.Suggestions) > 0 {
			fmt.Fprintf(w, " [%s]", strings.Join(c.Suggestions, ", "))
		}
		fmt.Fprintln(w)
	}

	if resp.Success && resp.Data != nil {
		data, err := json.MarshalIndent(resp.Data, "  ", "  ")
		if err == nil {
			fmt.Fprintf(w, "  %s\n", truncate(string(data), 2000))
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
