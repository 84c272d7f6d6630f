package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"decklens/analysis"
	"decklens/config"
	"decklens/pipeline"
	"decklens/research"
	"decklens/vision"
)

var (
	flagOutput       string
	flagAPIKey       string
	flagConfig       string
	flagSkipResearch bool
	flagSkipVision   bool
)

var rootCmd = &cobra.Command{
	Use:   "decklens [deck file]",
	Short: "Analyze a startup pitch deck and generate an investment report",
	Long: `decklens extracts text, images, and links from a pitch deck
(PDF, PPT, or PPTX), sends the content to a language model, and writes a
markdown investment analysis report.`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output path for the report (default: next to the deck)")
	rootCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "OpenRouter API key (overrides config and OPENROUTER_API_KEY)")
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "Path to a yaml config file")
	rootCmd.Flags().BoolVar(&flagSkipResearch, "skip-research", false, "Skip URL enrichment lookups")
	rootCmd.Flags().BoolVar(&flagSkipVision, "skip-vision", false, "Skip vision URL extraction from images")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagAPIKey != "" {
		cfg.OpenRouterAPIKey = flagAPIKey
	}
	if cfg.OpenRouterAPIKey == "" {
		return fmt.Errorf("OpenRouter API key is required; set OPENROUTER_API_KEY or use --api-key")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	analyzer, err := analysis.NewClient(cfg.OpenRouterAPIKey, cfg.BaseURL, cfg.Model, logger)
	if err != nil {
		return err
	}

	var urlReader pipeline.URLReader
	if !flagSkipVision {
		reader, err := vision.NewReader(cfg.OpenRouterAPIKey, cfg.BaseURL, cfg.VisionModel, logger)
		if err != nil {
			return err
		}
		urlReader = reader
	}

	var ocr pipeline.TextReader
	if cfg.EnableOCR {
		ocr = vision.NewOCR(logger)
	}

	var enricher pipeline.Enricher
	if cfg.Research.Enabled && !flagSkipResearch {
		enricher = research.NewResearcher(cfg.Research, logger)
	}

	p := pipeline.New(cfg, logger, analyzer, urlReader, ocr, enricher)
	result, err := p.Run(cmd.Context(), args[0], flagOutput)
	if err != nil {
		if pipeline.IsFatal(err) {
			return fmt.Errorf("cannot analyze %s: %w", args[0], err)
		}
		return fmt.Errorf("run failed, the deck may be fine to retry: %w", err)
	}

	fmt.Printf("Report saved to: %s\n", result.ReportPath)
	fmt.Printf("  Format:       %s\n", result.Format)
	fmt.Printf("  Pages/Slides: %d\n", result.Pages)
	fmt.Printf("  Images:       %d\n", result.Images)
	fmt.Printf("  URLs:         %d\n", result.URLs)
	fmt.Printf("  Text layer:   %v\n", result.TextIsNative)
	fmt.Printf("  Model:        %s\n", result.Model)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
