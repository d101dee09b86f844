package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hivenet/teachhanna/internal/exclude"
	"github.com/hivenet/teachhanna/internal/model"
	"github.com/hivenet/teachhanna/internal/pipeline"
	"github.com/hivenet/teachhanna/internal/sink"
	"github.com/hivenet/teachhanna/internal/worker"
)

// Flags shared by the ingestion commands (scrape, fact, anime).
var (
	webhookURL     string
	exclusionsPath string
	httpTimeout    time.Duration
	userAgent      string
	concurrency    int
	batchTags      []string
	batchEntities  []string
	insecureTLS    bool
	caCertPath     string
	noCache        bool
	noRobots       bool
)

// addIngestFlags registers the delivery flags common to all ingestion
// commands.
func addIngestFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&webhookURL, "webhook", "", "n8n TeachHanna webhook URL (overrides config)")
	cmd.Flags().StringVar(&exclusionsPath, "exclusions", "", "path to excluded_domains.json")
	cmd.Flags().DurationVar(&httpTimeout, "timeout", 10*time.Second, "per-request HTTP timeout")
	cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: CPU count)")
	cmd.Flags().StringSliceVar(&batchTags, "tags", nil, "tags merged into every fact in the batch")
	cmd.Flags().StringSliceVar(&batchEntities, "entities", nil, "related entities merged into every fact in the batch")
	cmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
	cmd.Flags().StringVar(&caCertPath, "ca-cert", "", "path to CA certificate for self-signed endpoints")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the in-run fetch cache")
	cmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks")
}

// loadConfig builds the effective configuration from defaults, config file
// and environment.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Output.Verbose = verbose
	return cfg, nil
}

// applyIngestFlags overlays explicitly-set flags onto cfg.
func applyIngestFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("webhook") {
		cfg.Sink.WebhookURL = webhookURL
	}
	if flags.Changed("exclusions") {
		cfg.Exclusions.Path = exclusionsPath
	}
	if flags.Changed("timeout") {
		cfg.HTTP.Timeout = httpTimeout
		cfg.Sink.Timeout = httpTimeout
	}
	if flags.Changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}
	if flags.Changed("insecure") {
		cfg.HTTP.InsecureTLS = insecureTLS
	}
	if flags.Changed("ca-cert") {
		cfg.HTTP.CACertPath = caCertPath
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("no-robots") {
		cfg.Robots.Enabled = !noRobots
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM so a batch
// stops dispatching new items while in-flight ones drain.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runBatch performs the fatal pre-batch checks, builds the pipeline and
// dispatches the items. Per-item failures are reported in the summary, not
// as an error.
func runBatch(ctx context.Context, cfg *model.Config, items []model.RawInput) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	excl, err := exclude.Load(cfg.Exclusions.Path)
	if err != nil {
		return err
	}
	if excl.Skipped() > 0 {
		fmt.Fprintf(os.Stderr, "Warning: skipped %d malformed exclusion entries\n", excl.Skipped())
	}
	if verbose && excl.Len() > 0 {
		fmt.Fprintf(os.Stderr, "Loaded %d excluded domains\n", excl.Len())
	}

	webhookSink, err := sink.NewWebhookSink(cfg)
	if err != nil {
		return err
	}
	p, err := pipeline.NewPipeline(cfg, webhookSink)
	if err != nil {
		return err
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	dispatcher := worker.NewDispatcher(excl, p, limiter, cfg.Concurrency.Workers)

	if verbose {
		fmt.Fprintf(os.Stderr, "Processing %d items with %d workers...\n\n", len(items), cfg.Concurrency.Workers)
	}

	summary := dispatcher.Run(ctx, items, batchTags, batchEntities)
	printSummary(summary)
	return nil
}

// printSummary renders per-item outcomes and the aggregate counts.
func printSummary(summary model.BatchSummary) {
	for _, item := range summary.Items {
		switch item.Status {
		case model.StatusDelivered:
			if verbose {
				fmt.Fprintf(os.Stderr, "✓ %s (attempts: %d)\n", item.Ref, item.Attempts)
			}
		case model.StatusSkippedExcluded:
			fmt.Fprintf(os.Stderr, "- %s: excluded domain\n", item.Ref)
		case model.StatusSkippedInvalid:
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", item.Ref, item.Detail)
		default:
			fmt.Fprintf(os.Stderr, "✗ %s: %s (%s)\n", item.Ref, item.Detail, item.Status)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:       %d\n", summary.Total)
	fmt.Fprintf(os.Stderr, "  Delivered:   %d\n", summary.Delivered)
	fmt.Fprintf(os.Stderr, "  Excluded:    %d\n", summary.SkippedExcluded)
	fmt.Fprintf(os.Stderr, "  Invalid:     %d\n", summary.SkippedInvalid)
	fmt.Fprintf(os.Stderr, "  Transient:   %d\n", summary.FailedTransient)
	fmt.Fprintf(os.Stderr, "  Permanent:   %d\n", summary.FailedPermanent)
	fmt.Fprintf(os.Stderr, "\n")
}
