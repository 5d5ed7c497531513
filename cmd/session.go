package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapgather/snapgather/internal/canvas"
	"github.com/snapgather/snapgather/internal/catalog"
	"github.com/snapgather/snapgather/internal/config"
	"github.com/snapgather/snapgather/internal/session"
	"github.com/snapgather/snapgather/internal/ui"
)

var (
	flagDomain   string
	flagCatalog  string
	flagSTUN     string
	flagTURN     string
	flagTURNUser string
	flagTURNPass string
)

// addConnectionFlags registers the relay/ICE override flags shared by the
// room commands.
func addConnectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagDomain, "domain", "d", "", "Custom relay domain")
	cmd.Flags().StringVar(&flagCatalog, "catalog", "", "Custom catalog base URL")
	cmd.Flags().StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server")
	cmd.Flags().StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server")
	cmd.Flags().StringVarP(&flagTURNUser, "turn-user", "u", "", "TURN username")
	cmd.Flags().StringVarP(&flagTURNPass, "turn-pass", "p", "", "TURN password")
}

// loadConfig builds the effective configuration from flags, environment,
// and defaults.
func loadConfig() (*config.Config, error) {
	return config.Load(config.Options{
		Domain:      flagDomain,
		CatalogBase: flagCatalog,
		STUNServer:  flagSTUN,
		TURNServer:  flagTURN,
		TURNUser:    flagTURNUser,
		TURNPass:    flagTURNPass,
	})
}

// connectSession dials the relay with a fresh participant identity.
func connectSession(cfg *config.Config) (*session.Session, error) {
	stopSpinner := ui.RunConnectionSpinner("Connecting to relay...")
	defer stopSpinner()

	sess := session.New(cfg)
	if err := sess.Connect(); err != nil {
		return nil, err
	}
	stopSpinner()
	return sess, nil
}

// sceneSource renders the current canvas state as the capture frame. The
// CLI has no camera pipeline; a capture saves the shared scene instead.
type sceneSource struct {
	sess *session.Session
}

type capturedScene struct {
	RoomID     string           `json:"room_id"`
	CapturedAt time.Time        `json:"captured_at"`
	Stickers   []canvas.Sticker `json:"stickers"`
}

func (s *sceneSource) LatestFrame() ([]byte, bool) {
	scene := capturedScene{
		RoomID:     s.sess.RoomID(),
		CapturedAt: time.Now(),
		Stickers:   s.sess.Stickers(),
	}
	data, err := json.MarshalIndent(scene, "", "  ")
	if err != nil {
		return nil, false
	}
	return data, true
}

// runRoom runs the interactive room view until the user leaves or the
// relay connection drops. Captures are written to the working directory.
func runRoom(cfg *config.Config, sess *session.Session) error {
	var captures atomic.Int64

	sess.SetFrameSource(&sceneSource{sess: sess})
	sess.OnCapture(func(frame []byte, at time.Time) {
		name := fmt.Sprintf("snapgather-%s.json", at.Format("20060102-150405.000"))
		if err := os.WriteFile(name, frame, 0o644); err != nil {
			ui.PrintErrorf("failed to save capture: %v", err)
			return
		}
		captures.Add(1)
	})

	palette, err := loadPalette(cfg)
	if err != nil {
		ui.PrintWarning("catalog unavailable, using built-in stickers")
		palette = builtinPalette
	}

	if err := ui.RunLive(ui.LiveOptions{
		Session: sess,
		Palette: palette,
		CaptureCount: func() int {
			return int(captures.Load())
		},
	}); err != nil {
		return err
	}

	if err := sess.Err(); err != nil {
		return err
	}
	ui.PrintSuccess("Left the room")
	return nil
}

// builtinPalette keeps the room usable when the catalog service is down.
var builtinPalette = []catalog.Item{
	{Name: "star", Image: "builtin://star"},
	{Name: "heart", Image: "builtin://heart"},
	{Name: "sparkles", Image: "builtin://sparkles"},
	{Name: "party", Image: "builtin://party"},
}

func loadPalette(cfg *config.Config) ([]catalog.Item, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return catalog.NewClient(cfg.CatalogBase).Stickers(ctx)
}
