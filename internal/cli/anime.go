package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hivenet/teachhanna/internal/model"
	"github.com/hivenet/teachhanna/internal/shoko"
)

var shokoURL string

// animeCmd represents the anime command
var animeCmd = &cobra.Command{
	Use:   "anime <title...>",
	Short: "Look up anime on Shoko Server and deliver metadata facts",
	Long: `Anime queries a Shoko Server for each title, builds an anidb_metadata
fact from the best match, and delivers it to the TeachHanna webhook.

Titles with no match are reported and skipped; the rest of the batch still
runs.

Example:
  teachhanna anime "Cowboy Bebop"
  teachhanna anime --shoko http://shoko.local:8111 "Mushishi" "Planetes"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnime,
}

func init() {
	rootCmd.AddCommand(animeCmd)
	addIngestFlags(animeCmd)

	animeCmd.Flags().StringVar(&shokoURL, "shoko", "", "Shoko Server base URL (overrides config)")
}

func runAnime(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyIngestFlags(cmd, cfg)
	if cmd.Flags().Changed("shoko") {
		cfg.Shoko.BaseURL = shokoURL
	}
	if cfg.Shoko.BaseURL == "" {
		return fmt.Errorf("no Shoko Server configured: set shoko.base_url or pass --shoko")
	}

	ctx, stop := signalContext()
	defer stop()

	client := shoko.NewClient(cfg.Shoko.BaseURL, cfg.Shoko.Timeout)
	if !client.Healthy(ctx) {
		return fmt.Errorf("shoko server unreachable: %s", cfg.Shoko.BaseURL)
	}

	var items []model.RawInput
	for _, title := range args {
		series, err := client.Search(ctx, title)
		if err != nil {
			return fmt.Errorf("look up %q: %w", title, err)
		}
		if series == nil {
			fmt.Fprintf(os.Stderr, "- %q: no match on Shoko, skipping\n", title)
			continue
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Matched %q -> %s (anidb %d)\n", title, series.Name, series.AniDBID)
		}
		items = append(items, shoko.FactInput(series))
	}
	if len(items) == 0 {
		return fmt.Errorf("no titles matched on Shoko")
	}

	return runBatch(ctx, cfg, items)
}
