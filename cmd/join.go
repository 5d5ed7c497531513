package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapgather/snapgather/internal/room"
)

var joinCmd = &cobra.Command{
	Use:     "join <room-id-or-link>",
	Aliases: []string{"j"},
	Short:   "Join an existing photo room",
	Long: `Join a photo room by its ID or share link and connect to everyone
already inside.

Examples:
  snapgather join cozy-otter-meadow-3f9a81bc
  snapgather join https://snapgather.app/r/cozy-otter-meadow-3f9a81bc`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return joinRoom(args[0])
	},
}

func joinRoom(input string) error {
	roomID, err := room.ParseInput(input)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sess, err := connectSession(cfg)
	if err != nil {
		return err
	}
	defer sess.Leave()

	if err := sess.Join(roomID); err != nil {
		return fmt.Errorf("join room %s: %w", roomID, err)
	}

	return runRoom(cfg, sess)
}

func init() {
	rootCmd.AddCommand(joinCmd)
	addConnectionFlags(joinCmd)
}
