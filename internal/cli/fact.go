package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hivenet/teachhanna/internal/model"
)

var (
	factText       string
	factTitle      string
	factURL        string
	factUser       string
	factSourceType string
	factConfidence float64
	factsFile      string
)

// factCmd represents the fact command
var factCmd = &cobra.Command{
	Use:   "fact",
	Short: "Deliver manually entered facts",
	Long: `Fact delivers one fully-specified fact, or a JSON file of facts, to the
TeachHanna webhook.

A facts file is a JSON array of objects using the payload field names:
  [{"text": "...", "source_type": "manual", "confidence": 0.95,
    "tags": ["database"], "related_entities": ["PostgreSQL"]}]

Example:
  teachhanna fact --text "PostgreSQL supports JSON querying" --tags database
  teachhanna fact --text "..." --source-type chat_correction --user botmaster
  teachhanna fact --file facts.json`,
	RunE: runFact,
}

func init() {
	rootCmd.AddCommand(factCmd)
	addIngestFlags(factCmd)

	factCmd.Flags().StringVar(&factText, "text", "", "the fact text")
	factCmd.Flags().StringVar(&factTitle, "title", "", "human-readable title")
	factCmd.Flags().StringVar(&factURL, "url", "", "source URL, if any")
	factCmd.Flags().StringVar(&factUser, "user", "", "attributed user")
	factCmd.Flags().StringVar(&factSourceType, "source-type", "manual", "source type (manual, chat_correction, anidb_metadata)")
	factCmd.Flags().Float64Var(&factConfidence, "confidence", 0, "confidence 0-1 (default: config manual_confidence)")
	factCmd.Flags().StringVar(&factsFile, "file", "", "JSON file with an array of facts")
}

func runFact(cmd *cobra.Command, args []string) error {
	var items []model.RawInput

	switch {
	case factsFile != "":
		data, err := os.ReadFile(factsFile)
		if err != nil {
			return fmt.Errorf("read facts file: %w", err)
		}
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("parse facts file: %w", err)
		}
		for i := range items {
			if items[i].SourceType == "" {
				items[i].SourceType = model.SourceManual
			}
		}
	case factText != "":
		sourceType, err := model.ParseSourceType(factSourceType)
		if err != nil {
			return err
		}
		item := model.RawInput{
			Text:       factText,
			Title:      factTitle,
			URL:        factURL,
			SourceUser: factUser,
			SourceType: sourceType,
		}
		if cmd.Flags().Changed("confidence") {
			confidence := factConfidence
			item.Confidence = &confidence
		}
		items = append(items, item)
	default:
		return fmt.Errorf("nothing to deliver: pass --text or --file")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyIngestFlags(cmd, cfg)

	ctx, stop := signalContext()
	defer stop()

	return runBatch(ctx, cfg, items)
}
