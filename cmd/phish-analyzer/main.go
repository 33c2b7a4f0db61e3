package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/itx-nasir/phish-guard/internal/config"
	"github.com/itx-nasir/phish-guard/internal/core"
	"github.com/itx-nasir/phish-guard/internal/factory"
	"github.com/itx-nasir/phish-guard/internal/logging"
	"go.uber.org/zap"
)

var (
	// Analysis flags
	threatThreshold = flag.Float64("threshold", 0.7, "Threat score threshold for high risk")
	strictAuth      = flag.Bool("strict-auth", false, "Treat missing authentication results as failures")
	flagArchives    = flag.Bool("flag-archives", false, "Flag zip archives as suspicious attachments")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	jsonOutput = flag.Bool("json", false, "Print the analysis result as JSON")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		// Create config from command line flags
		cfg = createConfigFromFlags()
	}

	analyzer := factory.NewAnalyzerFactory(cfg, logger).CreateAnalyzerService()

	startTime := time.Now()

	var result *core.AnalysisResult
	if *inputFile != "" {
		logger.Info("Analyzing email file", zap.String("file", *inputFile))
		result = analyzer.AnalyzeFile(context.Background(), *inputFile)
	} else {
		logger.Info("Reading email from stdin")
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Fatal("Failed to read stdin", zap.Error(err))
		}
		result = analyzer.AnalyzeContent(context.Background(), string(content))
	}

	duration := time.Since(startTime)

	if *jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			logger.Fatal("Failed to encode result", zap.Error(err))
		}
	} else {
		printResult(result, duration)
	}

	if result.Failed() {
		os.Exit(1)
	}
}

func printResult(result *core.AnalysisResult, duration time.Duration) {
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("Subject: %s\n", result.Subject)
	fmt.Printf("Sender: %s\n", result.Sender)
	fmt.Printf("Date: %s\n", result.Timestamp)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Threat score: %.4f\n", result.ThreatScore)
	fmt.Printf("Risk level: %s\n", result.RiskLevel)
	if result.Error != "" {
		fmt.Printf("Error: %s\n", result.Error)
	}

	if result.HeaderAnalysis != nil {
		printFindings("Header indicators", result.HeaderAnalysis.RiskIndicators)
	}
	if result.ContentAnalysis != nil {
		printFindings("Suspicious keywords", result.ContentAnalysis.SuspiciousKeywords)
		printFindings("Urgency indicators", result.ContentAnalysis.UrgencyIndicators)
	}
	if result.LinkAnalysis != nil {
		printFindings("Suspicious links", result.LinkAnalysis.SuspiciousLinks)
		printFindings("Redirects", result.LinkAnalysis.Redirects)
		printFindings("Malicious domains", result.LinkAnalysis.MaliciousDomains)
	}
	if result.AttachmentAnalysis != nil {
		printFindings("Suspicious attachments", result.AttachmentAnalysis.SuspiciousAttachments)
	}

	fmt.Printf("\n=== Recommendations ===\n")
	for _, recommendation := range result.Recommendations {
		fmt.Printf("- %s\n", recommendation)
	}

	fmt.Printf("\nProcessing time: %v\n", duration)
}

func printFindings(label string, findings []string) {
	if len(findings) == 0 {
		return
	}
	fmt.Printf("%s: %s\n", label, strings.Join(findings, ", "))
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("analysis.threat_threshold", *threatThreshold)
	v.Set("analysis.strict_auth", *strictAuth)
	v.Set("analysis.flag_archives", *flagArchives)

	return config.NewFromViper(v)
}
