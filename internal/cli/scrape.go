package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hivenet/teachhanna/internal/model"
	"github.com/hivenet/teachhanna/internal/worker"
)

var (
	urlsFile         string
	scrapeConfidence float64
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape [url...]",
	Short: "Scrape web pages and deliver them as facts",
	Long: `Scrape fetches web pages, extracts their text, and delivers each page
as a web-sourced fact to the TeachHanna webhook.

Excluded domains are skipped before any fetch. Per-item failures never abort
the batch; the summary reports every outcome.

Example:
  teachhanna scrape https://example.com/article
  teachhanna scrape --file urls.txt --tags cooking,history --concurrency 4
  teachhanna scrape https://example.com --confidence 0.9 --exclusions excluded_domains.json`,
	Args: cobra.ArbitraryArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	addIngestFlags(scrapeCmd)

	scrapeCmd.Flags().StringVar(&urlsFile, "file", "", "file with URLs, one per line (# comments allowed)")
	scrapeCmd.Flags().Float64Var(&scrapeConfidence, "confidence", 0, "confidence for scraped facts (default: config web_confidence)")
}

func runScrape(cmd *cobra.Command, args []string) error {
	urls := args
	if urlsFile != "" {
		fromFile, err := worker.ReadURLs(urlsFile)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given: pass them as arguments or via --file")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyIngestFlags(cmd, cfg)

	items := make([]model.RawInput, 0, len(urls))
	for _, url := range urls {
		item := model.RawInput{
			URL:        url,
			SourceType: model.SourceWeb,
		}
		if cmd.Flags().Changed("confidence") {
			confidence := scrapeConfidence
			item.Confidence = &confidence
		}
		items = append(items, item)
	}

	ctx, stop := signalContext()
	defer stop()

	return runBatch(ctx, cfg, items)
}
