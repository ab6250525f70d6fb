package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/desarrollo032/airtable-mcp/internal/querylog"
	"github.com/desarrollo032/airtable-mcp/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API and chat WebSocket",
	Long:  `Starts the HTTP server with the natural-language query API, session context endpoints, query history and the /ws/nlp chat socket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background(), appOptions{history: true})
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.cfg.Server
		if cmd.Flags().Changed("port") {
			cfg.Port = serverPort
		}

		srv := server.New(cfg, a.log.WithField("component", "http"))

		// Register all feature routes.
		a.tool.RegisterRoutes(srv.Router())
		querylog.RegisterRoutes(srv.Router(), a.history)
		a.tool.RegisterChat(srv.Root())

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "airtable-mcp server v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Storage: %s\n", a.cfg.Storage.Backend)
		fmt.Fprintf(os.Stderr, "  Query log: %s\n", a.db.Path())

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}
