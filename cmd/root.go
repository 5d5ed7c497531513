package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/snapgather/snapgather/internal/ui"
	"github.com/snapgather/snapgather/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "snapgather",
	Short:   "Shared photo rooms over WebRTC, with a collaborative sticker canvas",
	Long: `SnapGather opens a room where participants see each other over WebRTC
and decorate a shared sticker canvas together. Hosting creates a room and
prints a share link; joining connects to everyone already inside. Stickers
are claimed, moved, and released live, and any participant can trigger a
synchronized photo capture.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
