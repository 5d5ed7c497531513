package cmd

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/snapgather/snapgather/internal/relay"
	"github.com/snapgather/snapgather/internal/server"
)

var flagRelayPort int

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the room relay server",
	Long: `Run the websocket relay that hosts room membership and forwards
signaling between participants. Media and canvas traffic never pass
through the relay; it only brokers connections.

Examples:
  snapgather relay
  snapgather relay --port 9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelay()
	},
}

func runRelay() error {
	hub := relay.NewHub()
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.HealthCheck)
	mux.HandleFunc("/ws", server.ServeWs(hub))

	addr := fmt.Sprintf(":%d", flagRelayPort)
	slog.Info("starting relay server", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.Flags().IntVar(&flagRelayPort, "port", 8080, "Listen port")
}
