package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapgather/snapgather/internal/ui"
)

var hostCmd = &cobra.Command{
	Use:     "host",
	Aliases: []string{"h", "create"},
	Short:   "Create a photo room and share the link",
	Long: `Create a new photo room and print its capability link. Anyone with
the link can join; there is no separate access control.

Examples:
  snapgather host
  snapgather host --domain rooms.example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return hostRoom()
	},
}

func hostRoom() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sess, err := connectSession(cfg)
	if err != nil {
		return err
	}
	defer sess.Leave()

	roomID, err := sess.Create()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(ui.NewRoomInfo(roomID, cfg.GetRoomLink(roomID)).View())
	fmt.Println()

	return runRoom(cfg, sess)
}

func init() {
	rootCmd.AddCommand(hostCmd)
	addConnectionFlags(hostCmd)
}
