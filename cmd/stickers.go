package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapgather/snapgather/internal/catalog"
	"github.com/snapgather/snapgather/internal/ui"
)

var flagEmojis bool

var stickersCmd = &cobra.Command{
	Use:   "stickers",
	Short: "List the hosted sticker catalog",
	Long: `List the stickers (or emojis, with --emojis) available to place on
the room canvas.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listCatalog()
	},
}

func listCatalog() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	stopSpinner := ui.RunSpinner("Fetching catalog...")
	defer stopSpinner()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := catalog.NewClient(cfg.CatalogBase)

	var items []catalog.Item
	title := "stickers"
	if flagEmojis {
		title = "emojis"
		items, err = client.Emojis(ctx)
	} else {
		items, err = client.Stickers(ctx)
	}
	if err != nil {
		return err
	}
	stopSpinner()

	fmt.Println()
	ui.RenderCatalogTable(title, items)
	return nil
}

func init() {
	rootCmd.AddCommand(stickersCmd)
	stickersCmd.Flags().BoolVar(&flagEmojis, "emojis", false, "List the emoji catalog instead")
	stickersCmd.Flags().StringVar(&flagCatalog, "catalog", "", "Custom catalog base URL")
	stickersCmd.Flags().StringVarP(&flagDomain, "domain", "d", "", "Custom relay domain")
}
